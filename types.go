package md2doc

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/alnah/go-md2doc/internal/capsule"
	"github.com/alnah/go-md2doc/internal/docmodel"
	"github.com/alnah/go-md2doc/internal/filters"
	"github.com/alnah/go-md2doc/internal/pipeline"
)

// Document is the root node of a converted document.
type Document = docmodel.Node

// Document model types.
type (
	Kind     = docmodel.Kind
	Attrs    = docmodel.Attrs
	Mark     = docmodel.Mark
	MarkType = docmodel.MarkType
)

// Stats counts capsule activity during one conversion.
type Stats = pipeline.Stats

// Capsule types, re-exported so filters can be written outside this module.
type (
	Filter     = capsule.Filter
	FilterBase = capsule.Base
	Descriptor = capsule.Descriptor
	Token      = capsule.Token
	NodeWriter = capsule.Writer
	Outcome    = capsule.Outcome
	Registry   = capsule.Registry
	HTMLParser = filters.HTMLParser
)

// Filter outcomes.
const (
	OutcomeStructured = capsule.OutcomeStructured
	OutcomeFallback   = capsule.OutcomeFallback
)

// TableType is the type tag of the built-in HTML table filter.
const TableType = filters.TableType

// NewFilterType returns a fresh capsule type tag.
func NewFilterType() string {
	return capsule.NewType()
}

// NewFilterBase returns the Type, Pattern and recovery methods shared by
// most filters. pattern must capture prefix, body and suffix groups.
var NewFilterBase = capsule.NewBase

// NewRegistry returns a registry holding filters in precedence order.
func NewRegistry(filters ...Filter) (*Registry, error) {
	return capsule.NewRegistry(filters...)
}

// DefaultFilters returns the built-in filters using parser for HTML
// fragments. A nil parser selects the golang.org/x/net/html parser.
func DefaultFilters(parser HTMLParser) []Filter {
	return filters.Default(parser)
}

// Input contains conversion parameters.
type Input struct {
	Markdown  string // Markdown source (required)
	SourceDir string // directory of the source, for previews with relative images
}

// ConvertResult holds the document produced by Convert.
type ConvertResult struct {
	Document *Document
	Stats    Stats
	Meta     map[string]any // front matter, also stored in the doc's "meta" attribute
}

// Format names a document encoding.
type Format string

// Supported formats.
const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// Formats lists the supported formats in display order.
var Formats = []Format{FormatJSON, FormatYAML, FormatMarkdown, FormatHTML}

// ParseFormat resolves a format name, accepting the md and yml aliases.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// FormatForPath guesses a format from the file extension of path.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".md", ".markdown":
		return FormatMarkdown, nil
	case ".html", ".htm":
		return FormatHTML, nil
	}
	return "", fmt.Errorf("%w: extension of %q", ErrUnknownFormat, path)
}

// Extension returns the file extension for f, without dot.
func (f Format) Extension() string {
	if f == FormatMarkdown {
		return "md"
	}
	return string(f)
}

// RoundTripReport describes how well a source survives conversion.
type RoundTripReport struct {
	Capsules     int   // placeholders produced by the encoder
	Exact        bool  // encode then recover reproduced the source byte for byte
	Offset       int   // first differing byte when not Exact, else -1
	Stable       bool  // document -> Markdown -> document gave the same tree
	Stats        Stats // statistics of the first conversion
	ReparseStats Stats // statistics of the conversion of the regenerated Markdown
}

// Err returns nil when the report shows a lossless round trip, or an error
// wrapping ErrRoundTrip that says which check failed.
func (r *RoundTripReport) Err() error {
	switch {
	case !r.Exact:
		return fmt.Errorf("%w: capsule recovery differs at byte %d", ErrRoundTrip, r.Offset)
	case !r.Stable:
		return fmt.Errorf("%w: document changed after Markdown regeneration", ErrRoundTrip)
	}
	return nil
}

// DocumentSchema returns the JSON Schema that JSON and YAML documents are
// checked against by Decode.
func DocumentSchema() []byte {
	return docmodel.DocumentSchema()
}

// HighlightStyles lists the code highlight styles accepted by
// WithHighlightStyle.
func HighlightStyles() []string {
	return pipeline.HighlightStyles()
}
