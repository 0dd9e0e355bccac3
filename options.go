package md2doc

import (
	"log/slog"
	"time"

	"github.com/alnah/go-md2doc/internal/capsule"
	"github.com/alnah/go-md2doc/internal/filters"
	"github.com/alnah/go-md2doc/internal/pipeline"
)

// Option configures a Converter.
type Option func(*Converter)

// converterConfig holds internal configuration for Converter.
type converterConfig struct {
	timeout        time.Duration
	logger         *slog.Logger
	registry       *capsule.Registry
	parser         filters.HTMLParser
	filters        []capsule.Filter
	tables         bool
	highlightStyle string
	rawHTML        bool
	previewCSS     string
	frontMatter    bool
}

// defaultTimeout is used when no timeout is specified.
const defaultTimeout = 30 * time.Second

func defaultConfig() converterConfig {
	return converterConfig{
		timeout:        defaultTimeout,
		logger:         slog.New(slog.DiscardHandler),
		tables:         true,
		highlightStyle: pipeline.DefaultHighlightStyle,
		rawHTML:        true,
		frontMatter:    true,
	}
}

// WithTimeout sets the time limit of each conversion.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("md2doc: WithTimeout duration must be positive")
	}
	return func(c *Converter) {
		c.cfg.timeout = d
	}
}

// WithLogger sets the logger for recovery misses and filter diagnostics.
// The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(c *Converter) {
		if l != nil {
			c.cfg.logger = l
		}
	}
}

// WithRegistry uses r instead of building a registry from the filter
// options. WithFilters, WithTables and WithHTMLParser are then ignored.
func WithRegistry(r *Registry) Option {
	return func(c *Converter) {
		c.cfg.registry = r
	}
}

// WithHTMLParser sets the HTML fragment parser used by the table filter.
func WithHTMLParser(p HTMLParser) Option {
	return func(c *Converter) {
		c.cfg.parser = p
	}
}

// WithFilters registers extra capsule filters after the built-in ones.
func WithFilters(f ...Filter) Option {
	return func(c *Converter) {
		c.cfg.filters = append(c.cfg.filters, f...)
	}
}

// WithTables enables or disables the built-in HTML table filter.
// Disabled, HTML tables go through goldmark as ordinary HTML blocks.
func WithTables(enabled bool) Option {
	return func(c *Converter) {
		c.cfg.tables = enabled
	}
}

// WithHighlightStyle sets the chroma style used for code in HTML previews.
func WithHighlightStyle(name string) Option {
	return func(c *Converter) {
		c.cfg.highlightStyle = name
	}
}

// WithRawHTML controls whether HTML previews copy raw HTML through.
// Tables without a pipe form are written as HTML, so disabling it drops
// them from previews.
func WithRawHTML(enabled bool) Option {
	return func(c *Converter) {
		c.cfg.rawHTML = enabled
	}
}

// WithPreviewCSS sets a page stylesheet for HTML previews. It is injected
// before the code highlighting styles.
func WithPreviewCSS(css string) Option {
	return func(c *Converter) {
		c.cfg.previewCSS = css
	}
}

// WithFrontMatter controls whether a leading YAML (---) or TOML (+++) block
// is read as document metadata. Disabled, it is parsed as Markdown.
func WithFrontMatter(enabled bool) Option {
	return func(c *Converter) {
		c.cfg.frontMatter = enabled
	}
}
