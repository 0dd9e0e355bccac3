package pipeline

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/alnah/go-md2doc/internal/docmodel"
)

func TestWriteMarkdown_Inlines(t *testing.T) {
	t.Parallel()

	strong := docmodel.Mark{Type: docmodel.MarkStrong}
	em := docmodel.Mark{Type: docmodel.MarkEm}
	code := docmodel.Mark{Type: docmodel.MarkCode}
	mark := docmodel.Mark{Type: docmodel.MarkHighlight}
	link := docmodel.Mark{Type: docmodel.MarkLink, Attrs: docmodel.Attrs{"href": "https://go.dev", "title": "Go"}}

	tests := []struct {
		name     string
		inlines  []*docmodel.Node
		expected string
	}{
		{
			name:     "strong",
			inlines:  []*docmodel.Node{txt("a "), txt("b", strong), txt(" c")},
			expected: "a **b** c",
		},
		{
			name:     "whitespace moved outside delimiters",
			inlines:  []*docmodel.Node{txt("a "), txt("b ", strong), txt("c")},
			expected: "a **b** c",
		},
		{
			name:     "nested marks share delimiters",
			inlines:  []*docmodel.Node{txt("a", strong), txt("b", strong, em)},
			expected: "**a*b***",
		},
		{
			name:     "link with title",
			inlines:  []*docmodel.Node{txt("go", link)},
			expected: `[go](https://go.dev "Go")`,
		},
		{
			name:     "code span with backtick",
			inlines:  []*docmodel.Node{txt("a`b", code)},
			expected: "``a`b``",
		},
		{
			name:     "highlight",
			inlines:  []*docmodel.Node{txt("hi", mark)},
			expected: "==hi==",
		},
		{
			name:     "markup characters escaped",
			inlines:  []*docmodel.Node{txt("1. not *a* list")},
			expected: `1\. not \*a\* list`,
		},
		{
			name:     "heading marker escaped",
			inlines:  []*docmodel.Node{txt("# no")},
			expected: `\# no`,
		},
		{
			name:     "double equals escaped",
			inlines:  []*docmodel.Node{txt("a == b = c")},
			expected: `a \=\= b = c`,
		},
		{
			name:     "hard break",
			inlines:  []*docmodel.Node{txt("a"), el(docmodel.KindHardBreak, nil), txt("b")},
			expected: "a\\\nb",
		},
		{
			name: "image",
			inlines: []*docmodel.Node{el(docmodel.KindImage, docmodel.Attrs{
				"src": "a.png", "alt": "A", "title": "t",
			})},
			expected: `![A](a.png "t")`,
		},
		{
			name: "destination with spaces",
			inlines: []*docmodel.Node{txt("x", docmodel.Mark{
				Type: docmodel.MarkLink, Attrs: docmodel.Attrs{"href": "my file.md"},
			})},
			expected: "[x](<my file.md>)",
		},
		{
			name:     "raw inline verbatim",
			inlines:  []*docmodel.Node{el(docmodel.KindRawInline, docmodel.Attrs{"format": docmodel.FormatHTML}, txt("<b>"))},
			expected: "<b>",
		},
	}

	w := NewMarkdownWriter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := w.WriteMarkdown(doc(para(tt.inlines...)))
			if err != nil {
				t.Fatalf("WriteMarkdown() error = %v", err)
			}
			if want := tt.expected + "\n"; got != want {
				t.Errorf("WriteMarkdown() = %q, want %q", got, want)
			}
		})
	}
}

func TestWriteMarkdown_Blocks(t *testing.T) {
	t.Parallel()

	item := func(children ...*docmodel.Node) *docmodel.Node {
		return el(docmodel.KindListItem, nil, children...)
	}

	tests := []struct {
		name     string
		blocks   []*docmodel.Node
		expected string
	}{
		{
			name:     "heading",
			blocks:   []*docmodel.Node{el(docmodel.KindHeading, docmodel.Attrs{"level": 2}, txt("Title"))},
			expected: "## Title",
		},
		{
			name:     "heading level clamped",
			blocks:   []*docmodel.Node{el(docmodel.KindHeading, docmodel.Attrs{"level": 9}, txt("Deep"))},
			expected: "###### Deep",
		},
		{
			name:     "paragraphs",
			blocks:   []*docmodel.Node{para(txt("a")), para(txt("b"))},
			expected: "a\n\nb",
		},
		{
			name:     "blockquote",
			blocks:   []*docmodel.Node{el(docmodel.KindBlockquote, nil, para(txt("a")), para(txt("b")))},
			expected: "> a\n>\n> b",
		},
		{
			name: "tight bullet list",
			blocks: []*docmodel.Node{el(docmodel.KindBulletList, docmodel.Attrs{"tight": true},
				item(para(txt("a"))), item(para(txt("b"))))},
			expected: "- a\n- b",
		},
		{
			name: "loose ordered list",
			blocks: []*docmodel.Node{el(docmodel.KindOrderedList, docmodel.Attrs{"tight": false, "order": 3},
				item(para(txt("a"))), item(para(txt("b"))))},
			expected: "3. a\n\n4. b",
		},
		{
			name: "task list",
			blocks: []*docmodel.Node{el(docmodel.KindBulletList, nil,
				el(docmodel.KindListItem, docmodel.Attrs{"checked": true}, para(txt("done"))),
				el(docmodel.KindListItem, docmodel.Attrs{"checked": false}, para(txt("todo"))))},
			expected: "- [x] done\n- [ ] todo",
		},
		{
			name: "nested list",
			blocks: []*docmodel.Node{el(docmodel.KindBulletList, docmodel.Attrs{"tight": true},
				item(para(txt("a")), el(docmodel.KindBulletList, docmodel.Attrs{"tight": true}, item(para(txt("b"))))))},
			expected: "- a\n  - b",
		},
		{
			name: "raw table in list item stays on the marker line",
			blocks: []*docmodel.Node{el(docmodel.KindBulletList, docmodel.Attrs{"tight": true},
				item(rawBlock("<table><tr><td>x</td></tr></table>")))},
			expected: "- <table><tr><td>x</td></tr></table>",
		},
		{
			name: "html table in list item starts its own line",
			blocks: []*docmodel.Node{el(docmodel.KindBulletList, docmodel.Attrs{"tight": true},
				item(el(docmodel.KindTableContainer, nil,
					el(docmodel.KindTable, nil,
						el(docmodel.KindTableRow, nil,
							el(docmodel.KindTableCell, docmodel.Attrs{"colspan": 2}, para(txt("x"))))))))},
			expected: "-\n  <table><tr><td colspan=\"2\">x</td></tr></table>",
		},
		{
			name:     "code block",
			blocks:   []*docmodel.Node{el(docmodel.KindCodeBlock, docmodel.Attrs{"language": "go"}, txt("x := 1"))},
			expected: "```go\nx := 1\n```",
		},
		{
			name:     "code block containing a fence",
			blocks:   []*docmodel.Node{el(docmodel.KindCodeBlock, nil, txt("```\nx\n```"))},
			expected: "````\n```\nx\n```\n````",
		},
		{
			name:     "horizontal rule",
			blocks:   []*docmodel.Node{el(docmodel.KindHorizontalRule, nil)},
			expected: "***",
		},
		{
			name:     "raw block verbatim",
			blocks:   []*docmodel.Node{rawBlock("<div>\n*x*\n</div>")},
			expected: "<div>\n*x*\n</div>",
		},
		{
			name: "pipe table",
			blocks: []*docmodel.Node{el(docmodel.KindTableContainer, nil,
				el(docmodel.KindTable, nil,
					el(docmodel.KindTableRow, nil,
						el(docmodel.KindTableHeader, docmodel.Attrs{"align": "left"}, para(txt("a"))),
						el(docmodel.KindTableHeader, nil, para(txt("b|c")))),
					el(docmodel.KindTableRow, nil,
						el(docmodel.KindTableCell, nil, para(txt("1"))),
						el(docmodel.KindTableCell, nil, para(txt("2"))))))},
			expected: "| a | b\\|c |\n| :--- | --- |\n| 1 | 2 |",
		},
		{
			name: "table with span written as html",
			blocks: []*docmodel.Node{el(docmodel.KindTableContainer, nil,
				el(docmodel.KindTable, nil,
					el(docmodel.KindTableRow, nil,
						el(docmodel.KindTableCell, docmodel.Attrs{"colspan": 2}, para(txt("x"))))))},
			expected: `<table><tr><td colspan="2">x</td></tr></table>`,
		},
	}

	w := NewMarkdownWriter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := w.WriteMarkdown(doc(tt.blocks...))
			if err != nil {
				t.Fatalf("WriteMarkdown() error = %v", err)
			}
			if want := tt.expected + "\n"; got != want {
				t.Errorf("WriteMarkdown() = %q, want %q", got, want)
			}
		})
	}
}

func TestWriteMarkdown_Errors(t *testing.T) {
	t.Parallel()

	w := NewMarkdownWriter()

	if got, err := w.WriteMarkdown(doc()); err != nil || got != "" {
		t.Errorf("WriteMarkdown(empty) = %q, %v", got, err)
	}
	if _, err := w.WriteMarkdown(para(txt("x"))); !errors.Is(err, ErrMarkdownWrite) {
		t.Errorf("WriteMarkdown(paragraph root) error = %v, want ErrMarkdownWrite", err)
	}
	if _, err := w.WriteMarkdown(doc(txt("loose"))); !errors.Is(err, ErrMarkdownWrite) {
		t.Errorf("WriteMarkdown(text block) error = %v, want ErrMarkdownWrite", err)
	}
}

func TestWriteMarkdown_RoundTrip(t *testing.T) {
	t.Parallel()

	const source = "# Title\n\n" +
		"Some *em* and **strong** text with `code`, ==marks== and [a link](https://go.dev \"Go\").\n\n" +
		"> quoted\n\n" +
		"- a\n- b\n\n" +
		"1. one\n2. two\n\n" +
		"- [x] done\n\n" +
		"```go\nx := 1\n```\n\n" +
		"---\n\n" +
		"| h1 | h2 |\n| :--- | ---: |\n| c1 | c2 |\n\n" +
		"<table><tr><td colspan=\"2\">x</td></tr></table>\n\n" +
		"<table><tr><tdx</table>\n\n" +
		"- <table><tr><td>x</td></tr></table>\n\n" +
		"<table><tr><td>y</td></tr></table>\n---\n"

	reg := tableRegistry(t)
	b := NewDocumentWriter(reg)
	w := NewMarkdownWriter()

	first, stats := buildDoc(t, reg, b, source)
	if stats.Structured != 2 || stats.Fallback != 1 {
		t.Fatalf("stats = %+v, want two structured and one fallback capsule", stats)
	}

	md, err := w.WriteMarkdown(first)
	if err != nil {
		t.Fatalf("WriteMarkdown() error = %v", err)
	}
	second, _ := buildDoc(t, reg, b, md)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("round trip changed the document (-first +second):\n%s\nmarkdown:\n%s", diff, md)
	}
}
