package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for shopcrawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shopcrawl",
		Short: "Collect product page URLs from e-commerce sites",
		Long: `shopcrawl walks each configured shop breadth-first, starting at its home
page, and records every link that looks like a product page.

Results are written to output.json as a mapping of domain to product URLs.
Press Ctrl+C to stop early; everything found so far is still saved.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
