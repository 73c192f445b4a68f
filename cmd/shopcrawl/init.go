package main

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/shopcrawl/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/shopcrawl.yaml
var configTemplate embed.FS

const (
	// configFileName is the default configuration file name.
	configFileName = config.DefaultConfigFile
	templatePath   = "templates/shopcrawl.yaml"
)

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new shopcrawl configuration file",
		Long: `Initialize creates a new .shopcrawl configuration file in the current directory.

The generated file includes:
- The default list of domains to crawl
- Product path markers and per-site page limits
- Commented examples for cookies and headers per site

Examples:
  # Create .shopcrawl in current directory
  shopcrawl init

  # Create config file at a specific path
  shopcrawl init -o myconfig.yaml

  # Force overwrite existing file
  shopcrawl init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", configFileName,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// errConfigExists is returned when init would overwrite a file without -f.
var errConfigExists = errors.New("configuration file already exists")

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if err := writeConfigTemplate(outputPath, force); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), `Created configuration file: %s

Edit this file to configure:
  - The domains crawled by default
  - Product URL markers
  - Cookies, headers and page limits per site
`, outputPath)
	return nil
}

// writeConfigTemplate writes the embedded template to path, creating
// parent directories as needed. The file is private to the user since
// site entries may carry session cookies.
func writeConfigTemplate(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s (use -f to overwrite)", errConfigExists, path)
		}
	}

	content, err := configTemplate.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}
	return nil
}
