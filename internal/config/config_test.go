package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() error = %v", err)
	}
	if cfg.Output.Format != FormatJSON {
		t.Errorf("Output.Format = %q, want %q", cfg.Output.Format, FormatJSON)
	}
	if !cfg.Capsules.Table {
		t.Error("Capsules.Table = false, want true")
	}
	if !cfg.HTML.RawHTML {
		t.Error("HTML.RawHTML = false, want true")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string // substring of the error, empty for valid
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "yaml output", mutate: func(c *Config) { c.Output.Format = FormatYAML }},
		{name: "empty format means default", mutate: func(c *Config) { c.Output.Format = "" }},
		{name: "unknown format", mutate: func(c *Config) { c.Output.Format = "pdf" }, wantErr: "format"},
		{name: "unknown style", mutate: func(c *Config) { c.HTML.Style = "no-such-style" }, wantErr: "style"},
		{name: "monokai style", mutate: func(c *Config) { c.HTML.Style = "monokai" }},
		{name: "custom theme name", mutate: func(c *Config) { c.HTML.Theme = "mine" }},
		{name: "no theme", mutate: func(c *Config) { c.HTML.Theme = "none" }},
		{name: "theme path", mutate: func(c *Config) { c.HTML.Theme = "../x" }, wantErr: "theme"},
		{name: "theme with extension", mutate: func(c *Config) { c.HTML.Theme = "x.css" }, wantErr: "theme"},
		{name: "bad log level", mutate: func(c *Config) { c.Log.Level = "trace" }, wantErr: "level"},
		{name: "bad log format", mutate: func(c *Config) { c.Log.Format = "xml" }, wantErr: "format"},
		{name: "negative workers", mutate: func(c *Config) { c.Convert.Workers = -1 }, wantErr: "workers"},
		{name: "too many workers", mutate: func(c *Config) { c.Convert.Workers = MaxWorkers + 1 }, wantErr: "workers"},
		{name: "max workers", mutate: func(c *Config) { c.Convert.Workers = MaxWorkers }},
		{
			name:    "long output dir",
			mutate:  func(c *Config) { c.Output.DefaultDir = strings.Repeat("d", MaxPathLength+1) },
			wantErr: "defaultDir",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if !errors.Is(err, ErrConfigInvalid) {
				t.Fatalf("Validate() error = %v, want ErrConfigInvalid", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func writeConfig(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeConfig(t, dir, "doc.yaml", `
output:
  format: markdown
capsules:
  table: false
convert:
  workers: 2
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	want := DefaultConfig()
	want.Output.Format = FormatMarkdown
	want.Capsules.Table = false
	want.Convert.Workers = 2
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("LoadConfig() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	unknown := writeConfig(t, dir, "unknown.yaml", "output:\n  colour: red\n")
	invalid := writeConfig(t, dir, "invalid.yaml", "output:\n  format: pdf\n")
	broken := writeConfig(t, dir, "broken.yaml", "output: [\n")

	tests := []struct {
		name    string
		arg     string
		wantErr error
	}{
		{name: "empty name", arg: "", wantErr: ErrEmptyConfigName},
		{name: "missing path", arg: filepath.Join(dir, "nope.yaml"), wantErr: ErrConfigNotFound},
		{name: "missing name", arg: "md2doc-config-that-does-not-exist", wantErr: ErrConfigNotFound},
		{name: "unknown key", arg: unknown, wantErr: ErrConfigParse},
		{name: "broken yaml", arg: broken, wantErr: ErrConfigParse},
		{name: "invalid value", arg: invalid, wantErr: ErrConfigInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := LoadConfig(tt.arg)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("LoadConfig(%q) error = %v, want %v", tt.arg, err, tt.wantErr)
			}
		})
	}
}

func TestResolveConfigPath_UserConfigDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	t.Setenv("HOME", home)

	userDir, err := os.UserConfigDir()
	if err != nil {
		t.Skipf("no user config dir: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(userDir, searchDir), 0o750); err != nil {
		t.Fatal(err)
	}
	want := writeConfig(t, filepath.Join(userDir, searchDir), "team.yml", "log:\n  level: debug\n")

	got, err := resolveConfigPath("team")
	if err != nil {
		t.Fatalf("resolveConfigPath() error = %v", err)
	}
	if got != want {
		t.Errorf("resolveConfigPath() = %q, want %q", got, want)
	}
}

func TestSearchPaths(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	t.Setenv("HOME", home)

	paths := SearchPaths("team")
	if len(paths) < 2 {
		t.Fatalf("SearchPaths() = %v, want at least the local candidates", paths)
	}
	if diff := cmp.Diff([]string{"team.yaml", "team.yml"}, paths[:2]); diff != "" {
		t.Errorf("local candidates mismatch (-want +got):\n%s", diff)
	}
	if userDir, err := os.UserConfigDir(); err == nil {
		want := filepath.Join(userDir, searchDir, "team.yaml")
		if len(paths) != 4 || paths[2] != want {
			t.Errorf("SearchPaths() = %v, want %q third", paths, want)
		}
	}
}
