package docmodel

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrTableShape indicates an HTML table that has no faithful node representation.
var ErrTableShape = errors.New("unsupported table shape")

// htmlSpace matches runs of HTML inter-element whitespace.
var htmlSpace = regexp.MustCompile(`[ \t\n\r\f]+`)

// textAlign extracts a text-align declaration from an inline style.
var textAlign = regexp.MustCompile(`(?i)text-align\s*:\s*(left|center|right)`)

// TableFromHTML converts a parsed <table> element into a table node.
// Anything that would be lost in conversion (captions, nested block
// structures, stray text between rows) is rejected with ErrTableShape so the
// caller can keep the original HTML instead.
func TableFromHTML(n *html.Node) (*Node, error) {
	if n == nil || n.Type != html.ElementNode || n.DataAtom != atom.Table {
		return nil, fmt.Errorf("%w: root is not a table element", ErrTableShape)
	}
	table := New(KindTable, nil)
	if err := collectRows(n, table); err != nil {
		return nil, err
	}
	if len(table.Content) == 0 {
		return nil, fmt.Errorf("%w: table has no rows", ErrTableShape)
	}
	return table, nil
}

func collectRows(parent *html.Node, table *Node) error {
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.CommentNode:
			continue
		case html.TextNode:
			if strings.TrimSpace(c.Data) != "" {
				return fmt.Errorf("%w: text outside of cells", ErrTableShape)
			}
		case html.ElementNode:
			switch c.DataAtom {
			case atom.Thead, atom.Tbody, atom.Tfoot:
				if parent.DataAtom != atom.Table {
					return fmt.Errorf("%w: nested <%s>", ErrTableShape, c.Data)
				}
				if err := collectRows(c, table); err != nil {
					return err
				}
			case atom.Colgroup, atom.Col:
				continue
			case atom.Tr:
				row, err := rowFromHTML(c)
				if err != nil {
					return err
				}
				table.Content = append(table.Content, row)
			default:
				return fmt.Errorf("%w: unexpected <%s> in table", ErrTableShape, c.Data)
			}
		default:
			return fmt.Errorf("%w: unexpected node in table", ErrTableShape)
		}
	}
	return nil
}

func rowFromHTML(tr *html.Node) (*Node, error) {
	row := New(KindTableRow, nil)
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c.Type == html.CommentNode:
			continue
		case c.Type == html.TextNode && strings.TrimSpace(c.Data) == "":
			continue
		case c.Type == html.ElementNode && c.DataAtom == atom.Td:
			cell, err := cellFromHTML(c, KindTableCell)
			if err != nil {
				return nil, err
			}
			row.Content = append(row.Content, cell)
		case c.Type == html.ElementNode && c.DataAtom == atom.Th:
			cell, err := cellFromHTML(c, KindTableHeader)
			if err != nil {
				return nil, err
			}
			row.Content = append(row.Content, cell)
		default:
			return nil, fmt.Errorf("%w: unexpected content in row", ErrTableShape)
		}
	}
	if len(row.Content) == 0 {
		return nil, fmt.Errorf("%w: row has no cells", ErrTableShape)
	}
	return row, nil
}

func cellFromHTML(el *html.Node, kind Kind) (*Node, error) {
	cc := &cellCollector{}
	if err := cc.walk(el, nil); err != nil {
		return nil, err
	}
	cc.flush()
	if len(cc.blocks) == 0 {
		cc.blocks = []*Node{New(KindParagraph, nil)}
	}
	return New(kind, cellAttrs(el), cc.blocks...), nil
}

func cellAttrs(el *html.Node) Attrs {
	attrs := Attrs{}
	for _, a := range el.Attr {
		switch strings.ToLower(a.Key) {
		case "colspan", "rowspan":
			if n, err := strconv.Atoi(strings.TrimSpace(a.Val)); err == nil && n > 1 {
				attrs[strings.ToLower(a.Key)] = n
			}
		case "align":
			if v := strings.ToLower(strings.TrimSpace(a.Val)); v == "left" || v == "center" || v == "right" {
				attrs["align"] = v
			}
		case "style":
			if m := textAlign.FindStringSubmatch(a.Val); m != nil {
				attrs["align"] = strings.ToLower(m[1])
			}
		}
	}
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}

// cellCollector gathers the inline content of a cell into paragraphs.
type cellCollector struct {
	blocks []*Node
	inline []*Node
}

func (cc *cellCollector) walk(n *html.Node, marks []Mark) error {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.CommentNode:
			continue
		case html.TextNode:
			cc.text(c.Data, marks)
		case html.ElementNode:
			if err := cc.element(c, marks); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: unexpected node in cell", ErrTableShape)
		}
	}
	return nil
}

func (cc *cellCollector) element(el *html.Node, marks []Mark) error {
	switch el.DataAtom {
	case atom.P, atom.Div:
		cc.flush()
		if err := cc.walk(el, marks); err != nil {
			return err
		}
		cc.flush()
		return nil
	case atom.Span:
		return cc.walk(el, marks)
	case atom.Br:
		cc.inline = append(cc.inline, New(KindHardBreak, nil))
		return nil
	case atom.Img:
		cc.inline = append(cc.inline, New(KindImage, Attrs{
			"src":   attrValue(el, "src"),
			"alt":   attrValue(el, "alt"),
			"title": attrValue(el, "title"),
		}))
		return nil
	}
	m, ok := markForElement(el)
	if !ok {
		return fmt.Errorf("%w: unsupported <%s> in cell", ErrTableShape, el.Data)
	}
	return cc.walk(el, append(marks[:len(marks):len(marks)], m))
}

func (cc *cellCollector) text(s string, marks []Mark) {
	s = htmlSpace.ReplaceAllString(s, " ")
	if s == "" {
		return
	}
	if last := lastInline(cc.inline); last == nil || last.Type == KindHardBreak {
		s = strings.TrimLeft(s, " ")
	} else if last.Type == KindText && strings.HasSuffix(last.Text, " ") {
		s = strings.TrimLeft(s, " ")
	}
	if s == "" {
		return
	}
	if last := lastInline(cc.inline); last != nil && last.Type == KindText && sameMarks(last.Marks, marks) {
		last.Text += s
		return
	}
	cc.inline = append(cc.inline, NewText(s, marks...))
}

func (cc *cellCollector) flush() {
	nodes := cc.inline
	cc.inline = nil
	// Trim trailing whitespace before breaks and at the paragraph end.
	for i, n := range nodes {
		if n.Type != KindText {
			continue
		}
		if i == len(nodes)-1 || nodes[i+1].Type == KindHardBreak {
			n.Text = strings.TrimRight(n.Text, " ")
		}
	}
	kept := nodes[:0]
	for _, n := range nodes {
		if n.Type == KindText && n.Text == "" {
			continue
		}
		kept = append(kept, n)
	}
	if len(kept) == 0 {
		return
	}
	cc.blocks = append(cc.blocks, New(KindParagraph, nil, kept...))
}

func markForElement(el *html.Node) (Mark, bool) {
	switch el.DataAtom {
	case atom.Strong, atom.B:
		return Mark{Type: MarkStrong}, true
	case atom.Em, atom.I:
		return Mark{Type: MarkEm}, true
	case atom.Code:
		return Mark{Type: MarkCode}, true
	case atom.S, atom.Del, atom.Strike:
		return Mark{Type: MarkStrike}, true
	case atom.Mark:
		return Mark{Type: MarkHighlight}, true
	case atom.A:
		attrs := Attrs{"href": attrValue(el, "href")}
		if title := attrValue(el, "title"); title != "" {
			attrs["title"] = title
		}
		return Mark{Type: MarkLink, Attrs: attrs}, true
	}
	return Mark{}, false
}

func attrValue(el *html.Node, key string) string {
	for _, a := range el.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func lastInline(nodes []*Node) *Node {
	if len(nodes) == 0 {
		return nil
	}
	return nodes[len(nodes)-1]
}

// RenderTableHTML renders a table (or table_container) node as a single line
// of HTML. The output parses back into an equivalent table node.
func RenderTableHTML(n *Node) (string, error) {
	if n != nil && n.Type == KindTableContainer {
		n = n.FirstChild()
	}
	if n == nil || n.Type != KindTable {
		return "", fmt.Errorf("%w: node is not a table", ErrTableShape)
	}

	table := newElement(atom.Table)
	for _, row := range n.Content {
		tr := newElement(atom.Tr)
		for _, cell := range row.Content {
			td, err := renderCell(cell)
			if err != nil {
				return "", err
			}
			tr.AppendChild(td)
		}
		table.AppendChild(tr)
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, table); err != nil {
		return "", fmt.Errorf("rendering table: %w", err)
	}
	return buf.String(), nil
}

func renderCell(cell *Node) (*html.Node, error) {
	a := atom.Td
	if cell.Type == KindTableHeader {
		a = atom.Th
	}
	td := newElement(a)
	for _, key := range []string{"colspan", "rowspan"} {
		if v := cell.AttrInt(key, 1); v > 1 {
			td.Attr = append(td.Attr, html.Attribute{Key: key, Val: strconv.Itoa(v)})
		}
	}
	if align := cell.AttrString("align"); align != "" {
		td.Attr = append(td.Attr, html.Attribute{Key: "style", Val: "text-align: " + align})
	}

	if len(cell.Content) == 1 {
		return td, renderInlines(td, cell.Content[0])
	}
	for _, block := range cell.Content {
		p := newElement(atom.P)
		if err := renderInlines(p, block); err != nil {
			return nil, err
		}
		td.AppendChild(p)
	}
	return td, nil
}

func renderInlines(parent *html.Node, block *Node) error {
	if block.Type != KindParagraph {
		return fmt.Errorf("%w: %s in table cell", ErrTableShape, block.Type)
	}
	for _, n := range block.Content {
		switch n.Type {
		case KindText:
			parent.AppendChild(renderMarkedText(n))
		case KindHardBreak:
			parent.AppendChild(newElement(atom.Br))
		case KindImage:
			img := newElement(atom.Img)
			for _, key := range []string{"src", "alt", "title"} {
				if v := n.AttrString(key); v != "" || key != "title" {
					img.Attr = append(img.Attr, html.Attribute{Key: key, Val: v})
				}
			}
			parent.AppendChild(img)
		case KindRawInline:
			parent.AppendChild(&html.Node{Type: html.RawNode, Data: singleLine(n.Text)})
		default:
			return fmt.Errorf("%w: %s in table cell", ErrTableShape, n.Type)
		}
	}
	return nil
}

func renderMarkedText(n *Node) *html.Node {
	leaf := &html.Node{Type: html.TextNode, Data: singleLine(n.Text)}
	out := leaf
	for i := len(n.Marks) - 1; i >= 0; i-- {
		el := markElement(n.Marks[i])
		el.AppendChild(out)
		out = el
	}
	return out
}

func markElement(m Mark) *html.Node {
	switch m.Type {
	case MarkStrong:
		return newElement(atom.Strong)
	case MarkEm:
		return newElement(atom.Em)
	case MarkCode:
		return newElement(atom.Code)
	case MarkStrike:
		return newElement(atom.Del)
	case MarkHighlight:
		return newElement(atom.Mark)
	case MarkLink:
		a := newElement(atom.A)
		a.Attr = append(a.Attr, html.Attribute{Key: "href", Val: m.Attrs.String("href")})
		if title := m.Attrs.String("title"); title != "" {
			a.Attr = append(a.Attr, html.Attribute{Key: "title", Val: title})
		}
		return a
	}
	return newElement(atom.Span)
}

func newElement(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: a.String(), DataAtom: a}
}

func singleLine(s string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
}
