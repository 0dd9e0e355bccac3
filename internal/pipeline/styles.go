package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
)

// DefaultHighlightStyle is the chroma style used for preview code blocks.
const DefaultHighlightStyle = "github"

// ErrUnknownStyle indicates a chroma style name that is not registered.
var ErrUnknownStyle = errors.New("unknown highlight style")

// CSSInjector defines the contract for adding a stylesheet to an HTML page.
type CSSInjector interface {
	InjectCSS(ctx context.Context, htmlContent, cssContent string) string
}

// CSSInjection adds stylesheets as <style> elements.
type CSSInjection struct{}

// Compile-time interface check.
var _ CSSInjector = (*CSSInjection)(nil)

// InjectCSS places a <style> element at the end of <head>, at the start of
// <body> when there is no head, or in front of a bare fragment.
func (s *CSSInjection) InjectCSS(ctx context.Context, htmlContent, cssContent string) string {
	if cssContent == "" || ctx.Err() != nil {
		return htmlContent
	}

	style := "<style>" + strings.ReplaceAll(cssContent, "</", `<\/`) + "</style>"
	lower := strings.ToLower(htmlContent)

	if i := strings.Index(lower, "</head>"); i >= 0 {
		return htmlContent[:i] + style + htmlContent[i:]
	}
	if i := strings.Index(lower, "<body"); i >= 0 {
		if end := strings.IndexByte(htmlContent[i:], '>'); end >= 0 {
			at := i + end + 1
			return htmlContent[:at] + style + htmlContent[at:]
		}
	}
	return style + htmlContent
}

// HighlightCSS returns the stylesheet matching the classes emitted by
// GoldmarkConverter for the named chroma style.
func HighlightCSS(name string) (string, error) {
	if name == "" {
		name = DefaultHighlightStyle
	}
	style, ok := styles.Registry[strings.ToLower(name)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStyle, name)
	}
	var b strings.Builder
	if err := chromahtml.New(chromahtml.WithClasses(true)).WriteCSS(&b, style); err != nil {
		return "", fmt.Errorf("writing highlight css: %w", err)
	}
	return b.String(), nil
}

// HighlightStyles lists the registered chroma style names in sorted order.
func HighlightStyles() []string {
	return styles.Names()
}
