package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/nao1215/shopcrawl/internal/config"
)

func TestNewInitCmd(t *testing.T) {
	t.Parallel()

	cmd := NewInitCmd()
	if cmd.Use != "init" {
		t.Errorf("expected use 'init', got %q", cmd.Use)
	}

	flags := []struct {
		name      string
		shorthand string
		defValue  string
	}{
		{"output", "o", configFileName},
		{"force", "f", "false"},
	}
	for _, f := range flags {
		flag := cmd.Flags().Lookup(f.name)
		if flag == nil {
			t.Errorf("expected %s flag", f.name)
			continue
		}
		if flag.Shorthand != f.shorthand {
			t.Errorf("%s: expected shorthand %q, got %q", f.name, f.shorthand, flag.Shorthand)
		}
		if flag.DefValue != f.defValue {
			t.Errorf("%s: expected default %q, got %q", f.name, f.defValue, flag.DefValue)
		}
	}
}

func TestRunInitCmd(t *testing.T) {
	t.Parallel()

	template, err := configTemplate.ReadFile(templatePath)
	if err != nil {
		t.Fatalf("failed to read template: %v", err)
	}

	tests := []struct {
		name     string
		path     string // relative to a temp dir
		existing string // written before running when non-empty
		force    bool
		wantErr  error
	}{
		{name: "new file", path: ".shopcrawl"},
		{name: "nested directories", path: filepath.Join("a", "b", ".shopcrawl")},
		{name: "existing without force", path: ".shopcrawl", existing: "domains: []\n", wantErr: errConfigExists},
		{name: "existing with force", path: ".shopcrawl", existing: "domains: []\n", force: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), tt.path)
			if tt.existing != "" {
				if err := os.WriteFile(path, []byte(tt.existing), 0600); err != nil {
					t.Fatalf("failed to create existing file: %v", err)
				}
			}

			args := []string{"-o", path}
			if tt.force {
				args = append(args, "-f")
			}
			var out bytes.Buffer
			cmd := NewInitCmd()
			cmd.SetOut(&out)
			cmd.SetErr(&out)
			cmd.SetArgs(args)

			err := cmd.Execute()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				content, _ := os.ReadFile(path)
				if string(content) != tt.existing {
					t.Errorf("expected existing file to be kept, got %q", content)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			content, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("failed to read config: %v", err)
			}
			if !bytes.Equal(content, template) {
				t.Error("expected config to match the embedded template")
			}
			if !strings.Contains(out.String(), path) {
				t.Errorf("expected output to mention %s, got %q", path, out.String())
			}

			if runtime.GOOS == "windows" {
				return
			}
			info, err := os.Stat(path)
			if err != nil {
				t.Fatalf("failed to stat config: %v", err)
			}
			if perm := info.Mode().Perm(); perm != 0600 {
				t.Errorf("expected permissions 0600, got %o", perm)
			}
		})
	}
}

// TestConfigTemplateLoads verifies the template is accepted by the config loader.
func TestConfigTemplateLoads(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".shopcrawl")
	if err := writeConfigTemplate(path, false); err != nil {
		t.Fatalf("failed to write template: %v", err)
	}

	file, err := config.LoadConfigFile(path)
	if err != nil {
		t.Fatalf("expected template to load, got %v", err)
	}
	if len(file.Domains) != len(config.DefaultDomains) {
		t.Errorf("expected %d domains, got %v", len(config.DefaultDomains), file.Domains)
	}
	if file.Defaults.MaxPages != 0 {
		t.Errorf("expected unlimited default max pages, got %d", file.Defaults.MaxPages)
	}
	if len(file.Sites) != 0 {
		t.Errorf("expected site examples to be commented out, got %v", file.Sites)
	}
}
