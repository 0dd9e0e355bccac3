package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	md2doc "github.com/alnah/go-md2doc"
	"github.com/alnah/go-md2doc/internal/assets"
	"github.com/alnah/go-md2doc/internal/config"
	"github.com/alnah/go-md2doc/internal/fileutil"
	"github.com/alnah/go-md2doc/internal/hints"
	"github.com/alnah/go-md2doc/internal/logging"
)

// settings is the resolved configuration of one command run.
type settings struct {
	cfg        *config.Config
	logger     *slog.Logger
	timeout    time.Duration
	previewCSS string
}

// loadSettings loads the config named by the common flags, applies flag
// overrides, validates the result and builds the logger.
func loadSettings(common commonFlags, render *renderFlags, env *Environment) (*settings, error) {
	timeout, err := parseTimeout(common.timeout)
	if err != nil {
		return nil, err
	}

	cfg, err := loadConfig(common.config)
	if err != nil {
		return nil, err
	}
	applyCommonFlags(common, cfg)
	if render != nil {
		applyRenderFlags(*render, cfg)
	}
	// Flags can bring invalid values the file never had.
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Writer: env.Stderr,
	})
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	s := &settings{cfg: cfg, logger: logger, timeout: timeout}
	if render != nil {
		if s.previewCSS, err = loadTheme(cfg.HTML); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// loadTheme reads the preview page stylesheet named by the config.
func loadTheme(h config.HTMLConfig) (string, error) {
	name := h.Theme
	if name == "" {
		name = assets.DefaultTheme
	}
	resolver, err := assets.NewResolver(h.ThemeDir)
	if err != nil {
		return "", fmt.Errorf("loading theme: %w", err)
	}
	css, err := resolver.LoadTheme(name)
	if err != nil {
		err = fmt.Errorf("loading theme: %w", err)
		if errors.Is(err, assets.ErrThemeNotFound) {
			return "", withHint(err, hints.ForThemeNotFound(assets.Themes(), h.ThemeDir))
		}
		return "", err
	}
	return css, nil
}

// loadConfig returns the named config, or the defaults when name is empty.
func loadConfig(name string) (*config.Config, error) {
	if name == "" {
		return config.DefaultConfig(), nil
	}
	cfg, err := config.LoadConfig(name)
	if err != nil {
		err = fmt.Errorf("loading config: %w", err)
		if errors.Is(err, config.ErrConfigNotFound) && !fileutil.IsFilePath(name) {
			return nil, withHint(err, hints.ForConfigNotFound(config.SearchPaths(name)))
		}
		return nil, err
	}
	return cfg, nil
}

// applyCommonFlags merges logging flags into cfg. CLI values override config values.
func applyCommonFlags(f commonFlags, cfg *config.Config) {
	switch {
	case f.verbose:
		cfg.Log.Level = "debug"
	case f.quiet:
		cfg.Log.Level = "error"
	}
}

// applyRenderFlags merges converter flags into cfg.
func applyRenderFlags(f renderFlags, cfg *config.Config) {
	if f.style != "" {
		cfg.HTML.Style = f.style
	}
	if f.theme != "" {
		cfg.HTML.Theme = f.theme
	}
	if f.themeDir != "" {
		cfg.HTML.ThemeDir = f.themeDir
	}
	if f.noTables {
		cfg.Capsules.Table = false
	}
	if f.noRawHTML {
		cfg.HTML.RawHTML = false
	}
	if f.noMeta {
		cfg.Input.FrontMatter = false
	}
}

// converterOptions translates settings into library options.
func (s *settings) converterOptions() []md2doc.Option {
	opts := []md2doc.Option{
		md2doc.WithLogger(s.logger),
		md2doc.WithTables(s.cfg.Capsules.Table),
		md2doc.WithHighlightStyle(s.cfg.HTML.Style),
		md2doc.WithRawHTML(s.cfg.HTML.RawHTML),
		md2doc.WithFrontMatter(s.cfg.Input.FrontMatter),
	}
	if s.previewCSS != "" {
		opts = append(opts, md2doc.WithPreviewCSS(s.previewCSS))
	}
	if s.timeout > 0 {
		opts = append(opts, md2doc.WithTimeout(s.timeout))
	}
	return opts
}
