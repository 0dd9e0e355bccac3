package docmodel

import (
	"errors"
	"strings"
	"testing"
)

func TestSchema_Validate(t *testing.T) {
	t.Parallel()

	tableDoc := New(KindDoc, nil,
		New(KindTableContainer, nil,
			New(KindTable, nil,
				New(KindTableRow, nil,
					New(KindTableCell, nil, New(KindParagraph, nil, NewText("x")))))))

	tests := []struct {
		name    string
		node    *Node
		wantErr error
		path    string
	}{
		{name: "empty doc", node: New(KindDoc, nil)},
		{name: "table document", node: tableDoc},
		{
			name: "list with items",
			node: New(KindDoc, nil,
				New(KindOrderedList, Attrs{"order": 3},
					New(KindListItem, nil, New(KindParagraph, nil, NewText("a"))))),
		},
		{
			name:    "unknown kind",
			node:    New(Kind("widget"), nil),
			wantErr: ErrUnknownKind,
			path:    "widget",
		},
		{
			name:    "unknown kind inside doc",
			node:    New(KindDoc, nil, New(Kind("widget"), nil)),
			wantErr: ErrInvalidContent,
		},
		{
			name:    "text directly in doc",
			node:    New(KindDoc, nil, NewText("loose")),
			wantErr: ErrInvalidContent,
		},
		{
			name:    "bare table in doc",
			node:    New(KindDoc, nil, New(KindTable, nil)),
			wantErr: ErrInvalidContent,
		},
		{
			name:    "empty text node",
			node:    New(KindDoc, nil, New(KindParagraph, nil, NewText(""))),
			wantErr: ErrEmptyText,
			path:    "doc/0:paragraph/0:text",
		},
		{
			name:    "row without cells",
			node:    New(KindDoc, nil, New(KindTableContainer, nil, New(KindTable, nil, New(KindTableRow, nil)))),
			wantErr: ErrInvalidContent,
		},
		{
			name:    "paragraph inside paragraph",
			node:    New(KindDoc, nil, New(KindParagraph, nil, New(KindParagraph, nil))),
			wantErr: ErrInvalidContent,
		},
	}

	schema := DefaultSchema()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := schema.Validate(tt.node)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
			if tt.path != "" && !strings.Contains(err.Error(), tt.path) {
				t.Errorf("Validate() error %q does not name path %q", err, tt.path)
			}
		})
	}
}

func TestSchema_Accepts(t *testing.T) {
	t.Parallel()

	schema := DefaultSchema()
	tests := []struct {
		parent, child Kind
		want          bool
	}{
		{KindDoc, KindTableContainer, true},
		{KindDoc, KindTable, false},
		{KindTableRow, KindTableHeader, true},
		{KindTableCell, KindParagraph, true},
		{KindParagraph, KindImage, true},
		{KindCodeBlock, KindHardBreak, false},
		{Kind("nope"), KindText, false},
	}
	for _, tt := range tests {
		if got := schema.Accepts(tt.parent, tt.child); got != tt.want {
			t.Errorf("Accepts(%s, %s) = %v, want %v", tt.parent, tt.child, got, tt.want)
		}
	}
}

func TestAttrs(t *testing.T) {
	t.Parallel()

	a := Attrs{
		"i":   3,
		"i64": int64(4),
		"u64": uint64(5),
		"f":   float64(6),
		"s":   "7",
		"bad": "x",
		"str": "hello",
		"ok":  true,
	}
	for key, want := range map[string]int{"i": 3, "i64": 4, "u64": 5, "f": 6, "s": 7, "bad": -1, "missing": -1} {
		if got := a.Int(key, -1); got != want {
			t.Errorf("Int(%q) = %d, want %d", key, got, want)
		}
	}
	if got := a.String("str"); got != "hello" {
		t.Errorf("String(str) = %q", got)
	}
	if got := a.String("i"); got != "" {
		t.Errorf("String(i) = %q, want empty", got)
	}
	if !a.Bool("ok") || a.Bool("str") {
		t.Error("Bool() returned wrong values")
	}

	var nilAttrs Attrs
	if nilAttrs.Int("x", 9) != 9 || nilAttrs.String("x") != "" {
		t.Error("nil Attrs accessors should return defaults")
	}
}

func TestNode_Helpers(t *testing.T) {
	t.Parallel()

	n := New(KindParagraph, nil,
		NewText("a", Mark{Type: MarkCode}),
		New(KindHardBreak, nil),
		NewText("b"))

	if got := n.TextContent(); got != "ab" {
		t.Errorf("TextContent() = %q, want %q", got, "ab")
	}
	if !n.FirstChild().HasMark(MarkCode) {
		t.Error("FirstChild() should carry the code mark")
	}
	if n.Content[2].HasMark(MarkCode) {
		t.Error("second text should not carry the code mark")
	}

	var empty *Node
	if empty.TextContent() != "" || empty.FirstChild() != nil {
		t.Error("nil node helpers should return zero values")
	}

	marks := []Mark{{Type: MarkStrong}}
	text := NewText("x", marks...)
	marks[0].Type = MarkEm
	if !text.HasMark(MarkStrong) {
		t.Error("NewText() must copy the marks slice")
	}
}

func TestEqual(t *testing.T) {
	t.Parallel()

	link := Mark{Type: MarkLink, Attrs: Attrs{"href": "https://x"}}
	base := func() *Node {
		return New(KindDoc, nil,
			New(KindHeading, Attrs{"level": 2}, NewText("t")),
			New(KindParagraph, nil, NewText("a", link)))
	}

	tests := []struct {
		name   string
		mutate func(*Node)
		want   bool
	}{
		{name: "identical", mutate: func(*Node) {}, want: true},
		{name: "attr value", mutate: func(n *Node) { n.Content[0].Attrs["level"] = 3 }},
		{name: "attr key", mutate: func(n *Node) { n.Content[0].Attrs = Attrs{"depth": 2} }},
		{name: "text", mutate: func(n *Node) { n.Content[1].Content[0].Text = "b" }},
		{name: "mark attrs", mutate: func(n *Node) { n.Content[1].Content[0].Marks[0].Attrs = Attrs{"href": "https://y"} }},
		{name: "extra child", mutate: func(n *Node) { n.Content = append(n.Content, New(KindHorizontalRule, nil)) }},
		{name: "kind", mutate: func(n *Node) { n.Content[1].Type = KindBlockquote }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b := base()
			tt.mutate(b)
			if got := Equal(base(), b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}

	if !Equal(nil, nil) || Equal(base(), nil) {
		t.Error("Equal() mishandles nil trees")
	}
}

func TestMapStrings(t *testing.T) {
	t.Parallel()

	link := Mark{Type: MarkLink, Attrs: Attrs{"href": "x-url"}}
	first := NewText("x-a", link)
	second := NewText("x-b", link)
	doc := New(KindDoc, nil,
		New(KindParagraph, nil, first, second),
		New(KindOrderedList, Attrs{"order": 2, "tight": true},
			New(KindListItem, nil, New(KindParagraph, nil, NewText("x-c")))),
	)

	MapStrings(doc, func(s string) string { return strings.Replace(s, "x-", "", 1) })

	if first.Text != "a" || second.Text != "b" {
		t.Errorf("texts = %q, %q", first.Text, second.Text)
	}
	// Both nodes share the mark's attribute map; each is rewritten once.
	if first.Marks[0].Attrs.String("href") != "url" || second.Marks[0].Attrs.String("href") != "url" {
		t.Errorf("hrefs = %q, %q", first.Marks[0].Attrs.String("href"), second.Marks[0].Attrs.String("href"))
	}
	if link.Attrs.String("href") != "x-url" {
		t.Errorf("shared attrs modified in place: %q", link.Attrs.String("href"))
	}
	if got := doc.Content[1].Content[0].TextContent(); got != "c" {
		t.Errorf("nested text = %q", got)
	}
	if doc.Content[1].AttrInt("order", 0) != 2 {
		t.Error("non-string attribute changed")
	}
}
