package md2doc

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alnah/go-md2doc/internal/capsule"
	"github.com/alnah/go-md2doc/internal/docmodel"
	"github.com/alnah/go-md2doc/internal/filters"
	"github.com/alnah/go-md2doc/internal/pipeline"
	"github.com/alnah/go-md2doc/internal/yamlutil"
)

// Compile-time interface implementation checks.
var (
	_ pipeline.MarkdownPreprocessor = (*pipeline.CommonMarkPreprocessor)(nil)
	_ pipeline.DocumentBuilder      = (*pipeline.DocumentWriter)(nil)
	_ pipeline.MarkdownSerializer   = (*pipeline.MarkdownWriter)(nil)
	_ pipeline.HTMLConverter        = (*pipeline.GoldmarkConverter)(nil)
	_ pipeline.CSSInjector          = (*pipeline.CSSInjection)(nil)
	_ capsule.Writer                = (*docmodel.Builder)(nil)
)

// Converter orchestrates conversion between Markdown and documents.
// Create with NewConverter. A Converter is safe for concurrent use.
type Converter struct {
	cfg           converterConfig
	registry      *capsule.Registry
	schema        *docmodel.Schema
	preprocessor  pipeline.MarkdownPreprocessor
	builder       pipeline.DocumentBuilder
	serializer    pipeline.MarkdownSerializer
	previewPrep   pipeline.MarkdownPreprocessor
	htmlConverter pipeline.HTMLConverter
	cssInjector   pipeline.CSSInjector
	pageCSS       string
}

// NewConverter creates a Converter with the built-in table filter.
// Returns error if a filter cannot be registered or the highlight style
// is unknown.
func NewConverter(opts ...Option) (*Converter, error) {
	c := &Converter{cfg: defaultConfig()}
	for _, opt := range opts {
		opt(c)
	}

	registry := c.cfg.registry
	if registry == nil {
		var err error
		registry, err = c.buildRegistry()
		if err != nil {
			return nil, err
		}
	}

	css, err := pipeline.HighlightCSS(c.cfg.highlightStyle)
	if err != nil {
		return nil, err
	}

	logger := c.cfg.logger
	c.registry = registry
	c.schema = docmodel.DefaultSchema()
	c.preprocessor = &pipeline.CommonMarkPreprocessor{Registry: registry}
	c.builder = pipeline.NewDocumentWriter(registry,
		pipeline.WithSchema(c.schema),
		pipeline.WithLogger(logger),
	)
	c.serializer = pipeline.NewMarkdownWriter()
	c.previewPrep = &pipeline.CommonMarkPreprocessor{}
	c.htmlConverter = pipeline.NewGoldmarkConverter(pipeline.WithRawHTML(c.cfg.rawHTML))
	c.cssInjector = &pipeline.CSSInjection{}
	c.pageCSS = joinCSS(c.cfg.previewCSS, css)
	return c, nil
}

// buildRegistry registers the built-in filters, then the extra ones.
func (c *Converter) buildRegistry() (*capsule.Registry, error) {
	var all []capsule.Filter
	if c.cfg.tables {
		all = append(all, filters.Default(c.cfg.parser,
			filters.WithTableLogger(c.cfg.logger),
		)...)
	}
	all = append(all, c.cfg.filters...)
	r, err := capsule.NewRegistry(all...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRegistry, err)
	}
	return r, nil
}

// Registry returns the filter registry in use. It must not be modified.
func (c *Converter) Registry() *Registry {
	return c.registry
}

// Convert parses Markdown into a document.
// The context is used for cancellation; the converter timeout applies on top.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (c *Converter) Convert(ctx context.Context, input Input) (result *ConvertResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	if err := c.validateInput(input); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.timeout)
	defer cancel()

	body := input.Markdown
	var meta map[string]any
	if c.cfg.frontMatter {
		meta, body = pipeline.SplitFrontMatter(body)
	}

	// Encode capsules, normalize, mark highlights
	mdContent, err := c.preprocessor.PreprocessMarkdown(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("preprocessing markdown: %w", err)
	}

	// Parse and walk into the document, recovering capsules
	doc, stats, err := c.builder.Build(ctx, mdContent)
	if err != nil {
		return nil, fmt.Errorf("building document: %w", err)
	}

	c.cfg.logger.Debug("markdown converted",
		"capsules", stats.Capsules,
		"structured", stats.Structured,
		"fallback", stats.Fallback,
		"misses", stats.Misses,
	)
	if meta != nil {
		doc.Attrs = docmodel.Attrs{pipeline.MetaAttr: meta}
	}
	return &ConvertResult{Document: doc, Stats: stats, Meta: meta}, nil
}

// ToMarkdown serializes doc to Markdown. Tables without a pipe form are
// written as single-line HTML so they convert back to the same table.
func (c *Converter) ToMarkdown(doc *Document) (string, error) {
	if err := c.validateDocument(doc); err != nil {
		return "", err
	}
	return c.serializer.WriteMarkdown(doc)
}

// ToHTML renders a standalone HTML preview of doc. Relative image and link
// targets are resolved against sourceDir when it is not empty.
func (c *Converter) ToHTML(ctx context.Context, doc *Document, sourceDir string) (string, error) {
	md, err := c.ToMarkdown(doc)
	if err != nil {
		return "", err
	}

	md, err = c.previewPrep.PreprocessMarkdown(ctx, md)
	if err != nil {
		return "", fmt.Errorf("preprocessing markdown: %w", err)
	}

	htmlContent, err := c.htmlConverter.ToHTML(ctx, md)
	if err != nil {
		return "", fmt.Errorf("converting to HTML: %w", err)
	}

	// Highlight placeholders become <mark> after goldmark, so raw HTML
	// rendering is not needed for them.
	htmlContent = pipeline.ConvertMarkPlaceholders(htmlContent)

	htmlContent = c.cssInjector.InjectCSS(ctx, htmlContent, c.pageCSS)
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	htmlContent, err = pipeline.ResolveAssetPaths(htmlContent, sourceDir)
	if err != nil {
		return "", fmt.Errorf("resolving asset paths: %w", err)
	}
	return htmlContent, nil
}

// Render encodes doc in the given format. sourceDir only matters for
// FormatHTML.
func (c *Converter) Render(ctx context.Context, doc *Document, format Format, sourceDir string) ([]byte, error) {
	if err := c.validateDocument(doc); err != nil {
		return nil, err
	}

	switch format {
	case FormatJSON:
		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding json: %w", err)
		}
		return append(out, '\n'), nil
	case FormatYAML:
		return yamlutil.Marshal(doc)
	case FormatMarkdown:
		md, err := c.ToMarkdown(doc)
		return []byte(md), err
	case FormatHTML:
		page, err := c.ToHTML(ctx, doc, sourceDir)
		return []byte(page), err
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// Decode reads a document encoded in format. JSON and YAML input is checked
// against the document JSON Schema and the node schema; Markdown input is
// converted. HTML previews cannot be read back.
func (c *Converter) Decode(ctx context.Context, data []byte, format Format) (*Document, error) {
	switch format {
	case FormatJSON:
		return docmodel.DecodeJSON(data, c.schema)
	case FormatYAML:
		js, err := yamlutil.ToJSON(data)
		if err != nil {
			return nil, err
		}
		return docmodel.DecodeJSON(js, c.schema)
	case FormatMarkdown:
		res, err := c.Convert(ctx, Input{Markdown: string(data)})
		if err != nil {
			return nil, err
		}
		return res.Document, nil
	case FormatHTML:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRead, format)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// VerifyRoundTrip checks that markdown survives capsule encoding byte for
// byte, and that its document is unchanged after being written back to
// Markdown and converted again. Failed checks are reported, not returned;
// see RoundTripReport.Err.
func (c *Converter) VerifyRoundTrip(ctx context.Context, markdown string) (*RoundTripReport, error) {
	encoded, err := c.registry.Encode(markdown)
	if err != nil {
		return nil, fmt.Errorf("encoding capsules: %w", err)
	}
	recovered := capsule.Unescape(c.registry.RecoverText(encoded))

	report := &RoundTripReport{
		Capsules: capsule.Count(encoded),
		Exact:    recovered == markdown,
		Offset:   firstDifference(markdown, recovered),
	}

	first, err := c.Convert(ctx, Input{Markdown: markdown})
	if err != nil {
		return nil, err
	}
	report.Stats = first.Stats

	regenerated, err := c.ToMarkdown(first.Document)
	if err != nil {
		return nil, err
	}
	if regenerated == "" {
		// An empty document has no Markdown to convert again.
		report.Stable = len(first.Document.Content) == 0
		return report, nil
	}
	second, err := c.Convert(ctx, Input{Markdown: regenerated})
	if err != nil {
		return nil, err
	}
	report.ReparseStats = second.Stats
	report.Stable = docmodel.Equal(first.Document, second.Document)
	return report, nil
}

// validateInput checks that required fields are present.
func (c *Converter) validateInput(input Input) error {
	if input.Markdown == "" {
		return ErrEmptyMarkdown
	}
	return nil
}

// validateDocument is the trust boundary for documents built by callers.
func (c *Converter) validateDocument(doc *Document) error {
	if doc == nil {
		return ErrNilDocument
	}
	if doc.Type != docmodel.KindDoc {
		return fmt.Errorf("%w: root is %q, not doc", docmodel.ErrInvalidContent, doc.Type)
	}
	return c.schema.Validate(doc)
}

// joinCSS concatenates the non-empty stylesheets.
func joinCSS(sheets ...string) string {
	var parts []string
	for _, s := range sheets {
		if strings.TrimSpace(s) != "" {
			parts = append(parts, strings.TrimRight(s, "\n"))
		}
	}
	return strings.Join(parts, "\n")
}

// firstDifference returns the first byte offset where a and b differ, or
// -1 when they are equal.
func firstDifference(a, b string) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	if len(a) == len(b) {
		return -1
	}
	return n
}
