// Package docmodel implements the structured document tree produced by the
// Markdown conversion pipeline.
//
// A document is a tree of *Node values. Block nodes hold children in Content,
// text nodes hold Text plus an optional set of Marks. The shape of a tree is
// governed by a Schema, and trees are normally assembled through a Builder.
package docmodel

import (
	"maps"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// Kind identifies a node type.
type Kind string

// Node kinds.
const (
	KindDoc            Kind = "doc"
	KindParagraph      Kind = "paragraph"
	KindHeading        Kind = "heading"
	KindBlockquote     Kind = "blockquote"
	KindBulletList     Kind = "bullet_list"
	KindOrderedList    Kind = "ordered_list"
	KindListItem       Kind = "list_item"
	KindCodeBlock      Kind = "code_block"
	KindHorizontalRule Kind = "horizontal_rule"
	KindRawBlock       Kind = "raw_block"
	KindTableContainer Kind = "table_container"
	KindTable          Kind = "table"
	KindTableRow       Kind = "table_row"
	KindTableHeader    Kind = "table_header"
	KindTableCell      Kind = "table_cell"
	KindText           Kind = "text"
	KindHardBreak      Kind = "hard_break"
	KindImage          Kind = "image"
	KindRawInline      Kind = "raw_inline"
)

// MarkType identifies an inline mark applied to text nodes.
type MarkType string

// Mark types.
const (
	MarkEm        MarkType = "em"
	MarkStrong    MarkType = "strong"
	MarkCode      MarkType = "code"
	MarkLink      MarkType = "link"
	MarkStrike    MarkType = "strike"
	MarkHighlight MarkType = "mark"
)

// FormatHTML is the raw_block/raw_inline format for embedded HTML.
const FormatHTML = "html"

// Attrs holds node or mark attributes.
type Attrs map[string]any

// Mark is an inline annotation on a text node.
type Mark struct {
	Type  MarkType `json:"type" yaml:"type"`
	Attrs Attrs    `json:"attrs,omitempty" yaml:"attrs,omitempty"`
}

// Node is one element of the document tree.
type Node struct {
	Type    Kind    `json:"type" yaml:"type"`
	Attrs   Attrs   `json:"attrs,omitempty" yaml:"attrs,omitempty"`
	Content []*Node `json:"content,omitempty" yaml:"content,omitempty"`
	Text    string  `json:"text,omitempty" yaml:"text,omitempty"`
	Marks   []Mark  `json:"marks,omitempty" yaml:"marks,omitempty"`
}

// New creates a node of the given kind.
func New(kind Kind, attrs Attrs, children ...*Node) *Node {
	return &Node{Type: kind, Attrs: attrs, Content: children}
}

// NewText creates a text node carrying the given marks.
func NewText(text string, marks ...Mark) *Node {
	n := &Node{Type: KindText, Text: text}
	if len(marks) > 0 {
		n.Marks = append([]Mark(nil), marks...)
	}
	return n
}

// TextContent returns the concatenated text of the node and its descendants.
func (n *Node) TextContent() string {
	if n == nil {
		return ""
	}
	if n.Type == KindText {
		return n.Text
	}
	var b strings.Builder
	n.appendText(&b)
	return b.String()
}

func (n *Node) appendText(b *strings.Builder) {
	if n.Type == KindText {
		b.WriteString(n.Text)
		return
	}
	for _, c := range n.Content {
		c.appendText(b)
	}
}

// FirstChild returns the first child or nil.
func (n *Node) FirstChild() *Node {
	if n == nil || len(n.Content) == 0 {
		return nil
	}
	return n.Content[0]
}

// AttrString returns a string attribute, or "" when absent.
func (n *Node) AttrString(key string) string {
	return n.Attrs.String(key)
}

// AttrInt returns an integer attribute, or def when absent or not numeric.
func (n *Node) AttrInt(key string, def int) int {
	return n.Attrs.Int(key, def)
}

// HasMark reports whether the node carries a mark of the given type.
func (n *Node) HasMark(t MarkType) bool {
	for _, m := range n.Marks {
		if m.Type == t {
			return true
		}
	}
	return false
}

// String returns a string attribute, or "" when absent.
func (a Attrs) String(key string) string {
	v, _ := a[key].(string)
	return v
}

// Int returns an integer attribute. Decoded JSON and YAML documents carry
// numbers as float64 or uint64, so those are accepted as well.
func (a Attrs) Int(key string, def int) int {
	switch v := a[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case uint64:
		return int(v) // #nosec G115 -- attribute values are small counters
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// Bool returns a boolean attribute, or false when absent.
func (a Attrs) Bool(key string) bool {
	v, _ := a[key].(bool)
	return v
}

func sameMarks(a, b []Mark) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Type != b[i].Type || !sameAttrs(a[i].Attrs, b[i].Attrs) {
			return false
		}
	}
	return true
}

func sameAttrs(a, b Attrs) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || !reflect.DeepEqual(bv, v) {
			return false
		}
	}
	return true
}

// MapStrings applies fn to the text and the string attributes of n, its
// marks and its descendants. Changed attribute maps are replaced with
// copies, never written in place, since marks can share them.
func MapStrings(n *Node, fn func(string) string) {
	if n == nil {
		return
	}
	n.Text = fn(n.Text)
	if attrs, ok := mapAttrs(n.Attrs, fn); ok {
		n.Attrs = attrs
	}
	cloned := false
	for i, m := range n.Marks {
		if attrs, ok := mapAttrs(m.Attrs, fn); ok {
			if !cloned {
				n.Marks = slices.Clone(n.Marks)
				cloned = true
			}
			n.Marks[i].Attrs = attrs
		}
	}
	for _, c := range n.Content {
		MapStrings(c, fn)
	}
}

// mapAttrs returns a copy of a with fn applied to its string values, and
// whether any value changed.
func mapAttrs(a Attrs, fn func(string) string) (Attrs, bool) {
	var out Attrs
	for k, v := range a {
		str, ok := v.(string)
		if !ok {
			continue
		}
		if mapped := fn(str); mapped != str {
			if out == nil {
				out = maps.Clone(a)
			}
			out[k] = mapped
		}
	}
	return out, out != nil
}

// Equal reports whether a and b are the same tree: same kinds, attributes,
// text and marks at every position.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Type != b.Type || a.Text != b.Text || !sameAttrs(a.Attrs, b.Attrs) || !sameMarks(a.Marks, b.Marks) {
		return false
	}
	if len(a.Content) != len(b.Content) {
		return false
	}
	for i := range a.Content {
		if !Equal(a.Content[i], b.Content[i]) {
			return false
		}
	}
	return true
}
