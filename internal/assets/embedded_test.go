package assets

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEmbeddedLoader_LoadTheme(t *testing.T) {
	t.Parallel()

	loader := NewEmbeddedLoader()

	tests := []struct {
		name     string
		theme    string
		contains string
		wantErr  error
	}{
		{name: "default", theme: DefaultTheme, contains: "body"},
		{name: "compact", theme: "compact", contains: "font-size: 13px"},
		{name: "none", theme: ThemeNone},
		{name: "missing", theme: "nonexistent", wantErr: ErrThemeNotFound},
		{name: "path", theme: "../default", wantErr: ErrInvalidThemeName},
		{name: "empty", theme: "", wantErr: ErrInvalidThemeName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			css, err := loader.LoadTheme(tt.theme)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("LoadTheme(%q) error = %v, want %v", tt.theme, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadTheme(%q) unexpected error: %v", tt.theme, err)
			}
			if !strings.Contains(css, tt.contains) {
				t.Errorf("LoadTheme(%q) lacks %q", tt.theme, tt.contains)
			}
			if tt.theme == ThemeNone && css != "" {
				t.Errorf("LoadTheme(none) = %q, want empty", css)
			}
		})
	}
}

func TestThemes(t *testing.T) {
	t.Parallel()

	if diff := cmp.Diff([]string{"compact", "default"}, Themes()); diff != "" {
		t.Errorf("Themes() mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateThemeName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		wantErr bool
	}{
		{"default", false},
		{"my-theme_2", false},
		{"", true},
		{"a/b", true},
		{`a\b`, true},
		{"theme.css", true},
		{"..", true},
		{"nul\x00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateThemeName(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateThemeName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidThemeName) {
				t.Errorf("error %v is not ErrInvalidThemeName", err)
			}
		})
	}
}
