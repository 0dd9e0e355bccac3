package capsule

import (
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// Placeholder delimiters (Unicode Private Use Area). They pass through
// goldmark untouched and never appear in a placeholder payload.
const (
	OpenDelim  = "\uE010" // U+E010: Private Use Area
	CloseDelim = "\uE011" // U+E011: Private Use Area
)

// EscapeRune introduces a delimiter that was already present in the input.
// Escaped input holds delimiters only inside placeholders.
const EscapeRune = "\uE012" // U+E012: Private Use Area

var (
	escaper   = strings.NewReplacer(EscapeRune, EscapeRune+"0", OpenDelim, EscapeRune+"1", CloseDelim, EscapeRune+"2")
	unescaper = strings.NewReplacer(EscapeRune+"0", EscapeRune, EscapeRune+"1", OpenDelim, EscapeRune+"2", CloseDelim)
)

// Escape rewrites the delimiters and the escape rune in text as two-rune
// sequences. Text without them is returned unchanged.
func Escape(text string) string {
	if !hasDelim(text) && !strings.Contains(text, EscapeRune) {
		return text
	}
	return escaper.Replace(text)
}

// Unescape reverses Escape.
func Unescape(text string) string {
	if !strings.Contains(text, EscapeRune) {
		return text
	}
	return unescaper.Replace(text)
}

// ErrBadPayload indicates a placeholder whose payload cannot be decoded.
var ErrBadPayload = errors.New("invalid capsule payload")

var (
	// typeTag restricts type tags so they can be embedded verbatim.
	typeTag = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

	// anyPlaceholder matches a placeholder of any type.
	anyPlaceholder = regexp.MustCompile(`\x{E010}([a-z0-9][a-z0-9-]*):([A-Za-z0-9+/]*)\x{E011}`)
)

// payloadEncoding never emits '=', '_', '*' or other Markdown punctuation.
var payloadEncoding = base64.RawStdEncoding

// NewType returns a fresh type tag derived from a random UUID.
func NewType() string {
	return uuid.NewString()
}

// ValidType reports whether s can be used as a type tag.
func ValidType(s string) bool {
	return typeTag.MatchString(s)
}

// Placeholder returns the placeholder text carrying d.
func Placeholder(d Descriptor) (string, error) {
	data, err := msgpack.Marshal(&d)
	if err != nil {
		return "", fmt.Errorf("encoding capsule: %w", err)
	}
	var b strings.Builder
	b.Grow(len(OpenDelim) + len(d.Type) + 1 + payloadEncoding.EncodedLen(len(data)) + len(CloseDelim))
	b.WriteString(OpenDelim)
	b.WriteString(d.Type)
	b.WriteByte(':')
	b.WriteString(payloadEncoding.EncodeToString(data))
	b.WriteString(CloseDelim)
	return b.String(), nil
}

// decodePayload decodes a payload and checks it belongs to typ.
func decodePayload(typ, payload string) (Descriptor, error) {
	data, err := payloadEncoding.DecodeString(payload)
	if err != nil {
		return Descriptor{}, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	var d Descriptor
	if err := msgpack.Unmarshal(data, &d); err != nil {
		return Descriptor{}, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if d.Type != typ {
		return Descriptor{}, fmt.Errorf("%w: type %q does not match tag %q", ErrBadPayload, d.Type, typ)
	}
	return d, nil
}

// typePattern matches placeholders of a single type.
func typePattern(typ string) *regexp.Regexp {
	return regexp.MustCompile(`\x{E010}` + regexp.QuoteMeta(typ) + `:([A-Za-z0-9+/]*)\x{E011}`)
}

// Unrecovered returns the type tags of placeholders still present in text,
// in order of appearance.
func Unrecovered(text string) []string {
	if !strings.Contains(text, OpenDelim) {
		return nil
	}
	matches := anyPlaceholder.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, m[1])
	}
	return tags
}

// Count returns the number of placeholders in text.
func Count(text string) int {
	if !strings.Contains(text, OpenDelim) {
		return 0
	}
	return len(anyPlaceholder.FindAllStringIndex(text, -1))
}

// hasDelim reports whether s contains either placeholder delimiter.
func hasDelim(s string) bool {
	return strings.Contains(s, OpenDelim) || strings.Contains(s, CloseDelim)
}
