package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/alnah/go-md2doc/internal/capsule"
)

// ==text== is rewritten to a pair of Private Use Area runes before parsing.
// Goldmark leaves them alone; the walker turns them into the highlight mark
// and previews turn them into <mark> after rendering.
const (
	MarkStartPlaceholder = "\uE000" // U+E000: Private Use Area start
	MarkEndPlaceholder   = "\uE001" // U+E001: Private Use Area end
)

var (
	lineBreakRe = regexp.MustCompile(`\r\n?`)
	highlightRe = regexp.MustCompile(`==(.*?)==`)
)

// MarkdownPreprocessor rewrites Markdown source ahead of goldmark.
type MarkdownPreprocessor interface {
	PreprocessMarkdown(ctx context.Context, content string) (string, error)
}

// CommonMarkPreprocessor encodes capsules and normalizes the source.
// A nil Registry skips capsule encoding, as previews need.
type CommonMarkPreprocessor struct {
	Registry *capsule.Registry
}

// Compile-time interface check.
var _ MarkdownPreprocessor = (*CommonMarkPreprocessor)(nil)

// PreprocessMarkdown prepares Markdown for parsing. Capsules are encoded
// before highlight markers so ==...== inside a foreign block is kept
// verbatim in its payload.
func (p *CommonMarkPreprocessor) PreprocessMarkdown(ctx context.Context, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	content = normalizeLineEndings(content)
	if p.Registry != nil {
		encoded, err := p.Registry.Encode(content)
		if err != nil {
			return "", fmt.Errorf("encoding capsules: %w", err)
		}
		content = encoded
	}
	content = convertHighlights(content)
	return content, nil
}

func normalizeLineEndings(content string) string {
	return lineBreakRe.ReplaceAllString(content, "\n")
}

func convertHighlights(content string) string {
	return highlightRe.ReplaceAllString(content, MarkStartPlaceholder+"$1"+MarkEndPlaceholder)
}

// RestoreHighlights turns placeholder markers back into == delimiters.
// Used for literal text such as code, where highlighting does not apply.
func RestoreHighlights(content string) string {
	if !strings.Contains(content, MarkStartPlaceholder) && !strings.Contains(content, MarkEndPlaceholder) {
		return content
	}
	return strings.NewReplacer(MarkStartPlaceholder, "==", MarkEndPlaceholder, "==").Replace(content)
}

var markReplacer = strings.NewReplacer(MarkStartPlaceholder, "<mark>", MarkEndPlaceholder, "</mark>")

// ConvertMarkPlaceholders turns highlight runes in rendered HTML into <mark>.
func ConvertMarkPlaceholders(content string) string {
	return markReplacer.Replace(content)
}
