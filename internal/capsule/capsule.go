package capsule

import (
	"regexp"
	"strings"

	"github.com/alnah/go-md2doc/internal/docmodel"
)

// Descriptor describes one foreign block found in the source text.
// Prefix + Source + Suffix is the exact text the block occupied.
type Descriptor struct {
	Type   string `msgpack:"t"`
	Prefix string `msgpack:"p"`
	Source string `msgpack:"s"`
	Suffix string `msgpack:"x"`
}

// Text returns the block exactly as it appeared in the source.
func (d Descriptor) Text() string {
	return d.Prefix + d.Source + d.Suffix
}

// Canonical returns Source with Prefix removed from the start of every
// continuation line, which is the block text without blockquote markers.
func (d Descriptor) Canonical() string {
	return SourceWithoutPrefix(d.Source, d.Prefix)
}

// SourceWithoutPrefix strips prefix from the start of each line of source
// after the first. The first line never carries it: the match pattern
// captured it separately.
func SourceWithoutPrefix(source, prefix string) string {
	if prefix == "" || !strings.Contains(source, "\n") {
		return source
	}
	lines := strings.Split(source, "\n")
	for i := 1; i < len(lines); i++ {
		lines[i] = strings.TrimPrefix(lines[i], prefix)
	}
	return strings.Join(lines, "\n")
}

// TokenKind identifies the converter node a Token was taken from.
type TokenKind int

const (
	// TokenParagraph is a paragraph. Its Text is the raw paragraph source.
	TokenParagraph TokenKind = iota + 1
	// TokenRawBlock is an HTML or other raw block.
	TokenRawBlock
	// TokenCode is a code block.
	TokenCode
)

// Token is a converter node presented to RecoverToken.
type Token struct {
	Kind TokenKind
	Text string
}

// Outcome is the terminal state of a Write.
type Outcome int

const (
	// OutcomeStructured means native document nodes were emitted.
	OutcomeStructured Outcome = iota + 1
	// OutcomeFallback means the block was emitted as a raw node.
	OutcomeFallback
)

func (o Outcome) String() string {
	switch o {
	case OutcomeStructured:
		return "structured"
	case OutcomeFallback:
		return "fallback"
	}
	return "unknown"
}

// Writer receives the nodes emitted by a filter.
// *docmodel.Builder implements it.
type Writer interface {
	OpenNode(kind docmodel.Kind, attrs docmodel.Attrs)
	WriteText(text string)
	CloseNode()
	AddNode(kind docmodel.Kind, attrs docmodel.Attrs, children ...*docmodel.Node)
}

// Filter is the strategy for one kind of foreign block.
//
// Pattern must be a multi-line expression anchored to whole lines with three
// capture groups: prefix, body and suffix. Matches must be non-empty.
// Enclose wraps a placeholder so the converter keeps it a block; filters that
// change the placeholder text there must also override RecoverText and
// RecoverToken.
type Filter interface {
	Type() string
	Pattern() *regexp.Regexp
	Enclose(placeholder string, d Descriptor) string
	RecoverText(text string) string
	RecoverToken(tok Token) (Descriptor, bool)
	Write(d Descriptor, w Writer) Outcome
}

// Base supplies the common parts of a Filter: identity enclosure, text
// recovery inside raw or code text, and recovery of paragraphs made of a
// single placeholder. Embed it and implement Write.
type Base struct {
	typ     string
	pattern *regexp.Regexp
	inText  *regexp.Regexp
	whole   *regexp.Regexp
}

// NewBase returns a Base for the given type tag and match pattern.
func NewBase(typ string, pattern *regexp.Regexp) Base {
	inText := typePattern(typ)
	return Base{
		typ:     typ,
		pattern: pattern,
		inText:  inText,
		whole:   regexp.MustCompile(`^` + inText.String() + `$`),
	}
}

// Type returns the filter's type tag.
func (b Base) Type() string { return b.typ }

// Pattern returns the block match pattern.
func (b Base) Pattern() *regexp.Regexp { return b.pattern }

// Enclose returns the placeholder unchanged.
func (b Base) Enclose(placeholder string, _ Descriptor) string { return placeholder }

// RecoverText replaces every placeholder of this type with its original
// Source. Placeholders that fail to decode are left alone.
func (b Base) RecoverText(text string) string {
	if b.inText == nil || !strings.Contains(text, OpenDelim) {
		return text
	}
	return b.inText.ReplaceAllStringFunc(text, func(ph string) string {
		m := b.inText.FindStringSubmatch(ph)
		d, err := decodePayload(b.typ, m[1])
		if err != nil {
			return ph
		}
		return d.Source
	})
}

// RecoverToken recognises a paragraph consisting entirely of a placeholder
// of this type.
func (b Base) RecoverToken(tok Token) (Descriptor, bool) {
	if tok.Kind != TokenParagraph || b.whole == nil {
		return Descriptor{}, false
	}
	m := b.whole.FindStringSubmatch(strings.TrimSpace(tok.Text))
	if m == nil {
		return Descriptor{}, false
	}
	d, err := decodePayload(b.typ, m[1])
	if err != nil {
		return Descriptor{}, false
	}
	return d, true
}
