package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/alnah/go-md2doc/internal/assets"
	"github.com/alnah/go-md2doc/internal/fileutil"
	"github.com/alnah/go-md2doc/internal/pipeline"
	"github.com/alnah/go-md2doc/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrConfigInvalid   = errors.New("invalid config")
)

// Output formats accepted by output.format.
const (
	FormatJSON     = "json"
	FormatYAML     = "yaml"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// Limits enforced by Validate.
const (
	MaxPathLength = 4096
	MaxWorkers    = 8
)

// searchDir is the directory under the user config dir searched for names.
const searchDir = "go-md2doc"

// Config holds all configuration for the CLI.
type Config struct {
	Input    InputConfig    `yaml:"input" json:"input"`
	Output   OutputConfig   `yaml:"output" json:"output"`
	Capsules CapsulesConfig `yaml:"capsules" json:"capsules"`
	HTML     HTMLConfig     `yaml:"html" json:"html"`
	Log      LogConfig      `yaml:"log" json:"log"`
	Convert  ConvertConfig  `yaml:"convert" json:"convert"`
}

// InputConfig defines input source options.
type InputConfig struct {
	DefaultDir  string `yaml:"defaultDir" json:"defaultDir"`   // Default input directory (empty = must specify)
	FrontMatter bool   `yaml:"frontMatter" json:"frontMatter"` // read a leading YAML/TOML block as metadata
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	DefaultDir string `yaml:"defaultDir" json:"defaultDir"` // Default output directory (empty = same as source)
	Format     string `yaml:"format" json:"format"`         // json, yaml, markdown, html
}

// CapsulesConfig toggles the built-in capsule filters.
type CapsulesConfig struct {
	Table bool `yaml:"table" json:"table"`
}

// HTMLConfig defines preview rendering options.
type HTMLConfig struct {
	Style    string `yaml:"style" json:"style"`       // chroma style for code blocks
	RawHTML  bool   `yaml:"rawHTML" json:"rawHTML"`   // copy raw HTML into the preview
	Theme    string `yaml:"theme" json:"theme"`       // page stylesheet name, "none" to disable
	ThemeDir string `yaml:"themeDir" json:"themeDir"` // directory searched before the built-in themes
}

// LogConfig defines diagnostic logging options.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug, info, warn, error
	Format string `yaml:"format" json:"format"` // auto, text, json
}

// ConvertConfig defines batch conversion options.
type ConvertConfig struct {
	Workers int `yaml:"workers" json:"workers"` // 0 = auto
}

// Validate checks enums, ranges and path lengths.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.Input),
		validation.Field(&c.Output),
		validation.Field(&c.HTML),
		validation.Field(&c.Log),
		validation.Field(&c.Convert),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}
	return nil
}

// Validate implements validation.Validatable.
func (c InputConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.DefaultDir, validation.Length(0, MaxPathLength)),
	)
}

// Validate implements validation.Validatable.
func (c OutputConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.DefaultDir, validation.Length(0, MaxPathLength)),
		validation.Field(&c.Format, validation.In(FormatJSON, FormatYAML, FormatMarkdown, FormatHTML)),
	)
}

// Validate implements validation.Validatable.
func (c HTMLConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Style, validation.By(knownStyle)),
		validation.Field(&c.Theme, validation.By(themeName)),
		validation.Field(&c.ThemeDir, validation.Length(0, MaxPathLength)),
	)
}

// Validate implements validation.Validatable.
func (c LogConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Level, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.Format, validation.In("auto", "text", "json")),
	)
}

// Validate implements validation.Validatable.
func (c ConvertConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Workers, validation.Min(0), validation.Max(MaxWorkers)),
	)
}

func knownStyle(value any) error {
	name, _ := value.(string)
	if name == "" {
		return nil
	}
	if _, err := pipeline.HighlightCSS(name); err != nil {
		return errors.New("must be a chroma style name")
	}
	return nil
}

// themeName only checks the name shape; the theme may live in ThemeDir,
// which is resolved when the converter is built.
func themeName(value any) error {
	name, _ := value.(string)
	if name == "" {
		return nil
	}
	if err := assets.ValidateThemeName(name); err != nil {
		return errors.New("must be a file name without extension")
	}
	return nil
}

// DefaultConfig returns the configuration used when no file is given:
// JSON output, table capsules on, raw HTML kept in previews.
func DefaultConfig() *Config {
	return &Config{
		Input:    InputConfig{FrontMatter: true},
		Output:   OutputConfig{Format: FormatJSON},
		Capsules: CapsulesConfig{Table: true},
		HTML:     HTMLConfig{Style: pipeline.DefaultHighlightStyle, RawHTML: true, Theme: assets.DefaultTheme},
		Log:      LogConfig{Level: "warn", Format: "auto"},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Keys absent from the file keep their DefaultConfig value.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !fileutil.IsFilePath(nameOrPath) {
		var err error
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SearchPaths lists the files tried for a config name, in lookup order:
// the current directory, then the user config directory, each with the
// .yaml and .yml extensions.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)
	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(dir, searchDir, name+ext))
		}
	}
	return paths
}

// resolveConfigPath returns the first existing file of SearchPaths.
func resolveConfigPath(name string) (string, error) {
	tried := SearchPaths(name)
	for _, p := range tried {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(tried, ", "))
}
