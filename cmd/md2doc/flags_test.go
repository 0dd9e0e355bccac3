package main

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-md2doc/internal/assets"
	"github.com/alnah/go-md2doc/internal/config"
)

func TestParseConvertFlags(t *testing.T) {
	t.Parallel()

	f, positional, err := parseConvertFlags([]string{
		"docs", "-o", "out", "-f", "yaml", "-w", "3", "-s",
		"-c", "team", "-q", "-t", "1m",
		"--style", "monokai", "--no-tables", "--no-raw-html",
		"--theme", "compact", "--theme-dir", "themes", "--no-front-matter",
	})
	if err != nil {
		t.Fatalf("parseConvertFlags() error = %v", err)
	}

	if len(positional) != 1 || positional[0] != "docs" {
		t.Errorf("positional = %v, want [docs]", positional)
	}
	if f.output != "out" || f.format != "yaml" || f.workers != 3 || !f.summary {
		t.Errorf("convert flags = %+v", f)
	}
	if f.common.config != "team" || !f.common.quiet || f.common.timeout != "1m" {
		t.Errorf("common flags = %+v", f.common)
	}
	if f.render.style != "monokai" || !f.render.noTables || !f.render.noRawHTML ||
		f.render.theme != "compact" || f.render.themeDir != "themes" || !f.render.noMeta {
		t.Errorf("render flags = %+v", f.render)
	}
}

func TestParseFlags_Errors(t *testing.T) {
	t.Parallel()

	if _, _, err := parseConvertFlags([]string{"--nope"}); !errors.Is(err, ErrInvalidFlags) {
		t.Errorf("unknown flag error = %v, want ErrInvalidFlags", err)
	}
	if _, _, err := parseRoundTripFlags([]string{"-h"}); !errors.Is(err, flag.ErrHelp) {
		t.Errorf("-h error = %v, want flag.ErrHelp", err)
	}
	if _, _, err := parseValidateFlags([]string{"-w", "2"}); !errors.Is(err, ErrInvalidFlags) {
		t.Errorf("convert-only flag on validate error = %v, want ErrInvalidFlags", err)
	}
	if _, _, err := parseSchemaFlags([]string{"--output"}); !errors.Is(err, ErrInvalidFlags) {
		t.Errorf("missing flag value error = %v, want ErrInvalidFlags", err)
	}
}

func TestParseTimeout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "", want: 0},
		{in: "30s", want: 30 * time.Second},
		{in: "2m", want: 2 * time.Minute},
		{in: "0s", wantErr: true},
		{in: "-1s", wantErr: true},
		{in: "soon", wantErr: true},
	}

	for _, tt := range tests {
		got, err := parseTimeout(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidTimeout) {
				t.Errorf("parseTimeout(%q) error = %v, want ErrInvalidTimeout", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("parseTimeout(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// Settings
// ---------------------------------------------------------------------------

func TestLoadSettings_FlagsOverrideConfig(t *testing.T) {
	t.Parallel()

	dir := setupTestDir(t, map[string]string{
		"md2doc.yaml": "capsules:\n  table: true\nhtml:\n  style: github\nlog:\n  level: info\n  format: json\n",
	})
	env, _, _ := testEnv("")

	s, err := loadSettings(
		commonFlags{config: filepath.Join(dir, "md2doc.yaml"), verbose: true, timeout: "5s"},
		&renderFlags{style: "monokai", noTables: true},
		env,
	)
	if err != nil {
		t.Fatalf("loadSettings() error = %v", err)
	}
	if s.cfg.Log.Level != "debug" {
		t.Errorf("log level = %q, want debug from --verbose", s.cfg.Log.Level)
	}
	if s.cfg.HTML.Style != "monokai" || s.cfg.Capsules.Table {
		t.Errorf("render settings = %+v %+v, want flag values", s.cfg.HTML, s.cfg.Capsules)
	}
	if !s.cfg.HTML.RawHTML {
		t.Error("rawHTML should keep its config value")
	}
	if s.timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", s.timeout)
	}
	if !strings.Contains(s.previewCSS, "body") {
		t.Error("previewCSS should hold the default theme")
	}
	if got := len(s.converterOptions()); got != 7 {
		t.Errorf("converterOptions() = %d options, want 7 with a theme and a timeout", got)
	}
}

func TestLoadSettings_Errors(t *testing.T) {
	t.Parallel()

	dir := setupTestDir(t, map[string]string{"bad.yaml": "log:\n  level: loud\n"})

	tests := []struct {
		name    string
		common  commonFlags
		render  *renderFlags
		wantErr error
	}{
		{name: "invalid config", common: commonFlags{config: filepath.Join(dir, "bad.yaml")}, wantErr: config.ErrConfigInvalid},
		{name: "missing config path", common: commonFlags{config: filepath.Join(dir, "none.yaml")}, wantErr: config.ErrConfigNotFound},
		{name: "invalid style flag", render: &renderFlags{style: "no-such-style"}, wantErr: config.ErrConfigInvalid},
		{name: "invalid timeout", common: commonFlags{timeout: "x"}, wantErr: ErrInvalidTimeout},
		{name: "theme path", render: &renderFlags{theme: "../x"}, wantErr: config.ErrConfigInvalid},
		{name: "unknown theme", render: &renderFlags{theme: "absent"}, wantErr: assets.ErrThemeNotFound},
		{name: "missing theme dir", render: &renderFlags{themeDir: filepath.Join(dir, "themes")}, wantErr: assets.ErrInvalidBasePath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, _, _ := testEnv("")
			if _, err := loadSettings(tt.common, tt.render, env); !errors.Is(err, tt.wantErr) {
				t.Errorf("loadSettings() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig_NameHint(t *testing.T) {
	t.Parallel()

	_, err := loadConfig("no-such-config-name")
	if !errors.Is(err, config.ErrConfigNotFound) {
		t.Fatalf("loadConfig() error = %v, want ErrConfigNotFound", err)
	}
	if hint := hintFor(err); !strings.Contains(hint, "--config") {
		t.Errorf("hintFor() = %q, want a --config suggestion", hint)
	}
}

func TestLoadTheme(t *testing.T) {
	t.Parallel()

	dir := setupTestDir(t, map[string]string{"themes/mine.css": "body { color: teal; }"})
	themeDir := filepath.Join(dir, "themes")

	tests := []struct {
		name     string
		html     config.HTMLConfig
		contains string
		wantNone bool
	}{
		{name: "empty name uses default", html: config.HTMLConfig{}, contains: "max-width"},
		{name: "built-in", html: config.HTMLConfig{Theme: "compact"}, contains: "13px"},
		{name: "custom directory", html: config.HTMLConfig{Theme: "mine", ThemeDir: themeDir}, contains: "teal"},
		{name: "built-in through custom directory", html: config.HTMLConfig{Theme: "compact", ThemeDir: themeDir}, contains: "13px"},
		{name: "disabled", html: config.HTMLConfig{Theme: assets.ThemeNone}, wantNone: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			css, err := loadTheme(tt.html)
			if err != nil {
				t.Fatalf("loadTheme() error = %v", err)
			}
			if tt.wantNone {
				if css != "" {
					t.Errorf("loadTheme() = %q, want empty", css)
				}
				return
			}
			if !strings.Contains(css, tt.contains) {
				t.Errorf("loadTheme() lacks %q", tt.contains)
			}
		})
	}
}

func TestLoadTheme_Hint(t *testing.T) {
	t.Parallel()

	_, err := loadTheme(config.HTMLConfig{Theme: "absent"})
	if !errors.Is(err, assets.ErrThemeNotFound) {
		t.Fatalf("loadTheme() error = %v, want ErrThemeNotFound", err)
	}
	if hint := hintFor(err); !strings.Contains(hint, "compact") {
		t.Errorf("hintFor() = %q, want the built-in theme list", hint)
	}
	if code := exitCodeFor(err); code != ExitUsage {
		t.Errorf("exitCodeFor() = %d, want %d", code, ExitUsage)
	}
}
