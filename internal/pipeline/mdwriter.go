package pipeline

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/alnah/go-md2doc/internal/docmodel"
)

// ErrMarkdownWrite indicates a document that cannot be serialized to Markdown.
var ErrMarkdownWrite = errors.New("markdown serialization failed")

// Patterns for text that would start a block construct at the beginning of
// a paragraph line.
var (
	orderedMarker = regexp.MustCompile(`^(\d{1,9})([.)])(\s|$)`)
	blockMarker   = regexp.MustCompile(`^(?:>|(?:#{1,6}|[-+])(?:\s|$)|=+\s*$|-+\s*$)`)
)

// markRank orders marks from outermost to innermost when serialized.
var markRank = map[docmodel.MarkType]int{
	docmodel.MarkLink:      0,
	docmodel.MarkStrong:    1,
	docmodel.MarkEm:        2,
	docmodel.MarkStrike:    3,
	docmodel.MarkHighlight: 4,
}

// MarkdownSerializer abstracts document to Markdown conversion.
type MarkdownSerializer interface {
	WriteMarkdown(doc *docmodel.Node) (string, error)
}

// MarkdownWriter serializes a document tree to CommonMark + GFM.
//
// Tables with a header row and plain cells become pipe tables. Any other
// table is written as a single line of HTML, which the table capsule turns
// back into the same table on the next parse. Raw blocks are written
// verbatim.
type MarkdownWriter struct{}

// Compile-time interface check.
var _ MarkdownSerializer = (*MarkdownWriter)(nil)

// NewMarkdownWriter creates a MarkdownWriter.
func NewMarkdownWriter() *MarkdownWriter {
	return &MarkdownWriter{}
}

// WriteMarkdown returns the Markdown text of doc, ending with a newline
// unless the document is empty. A meta attribute on the doc is written
// first as a YAML front matter block.
func (w *MarkdownWriter) WriteMarkdown(doc *docmodel.Node) (string, error) {
	if doc == nil || doc.Type != docmodel.KindDoc {
		return "", fmt.Errorf("%w: root is not a doc node", ErrMarkdownWrite)
	}
	out, err := writeBlocks(doc.Content, false)
	if err != nil {
		return "", err
	}

	var head string
	if meta, ok := doc.Attrs[MetaAttr].(map[string]any); ok && len(meta) > 0 {
		if head, err = writeFrontMatter(meta); err != nil {
			return "", fmt.Errorf("%w: front matter: %v", ErrMarkdownWrite, err)
		}
	}
	switch {
	case out == "":
		return head, nil
	case head != "":
		return head + "\n" + out + "\n", nil
	}
	return out + "\n", nil
}

func writeBlocks(nodes []*docmodel.Node, tight bool) (string, error) {
	sep := "\n\n"
	if tight {
		sep = "\n"
	}
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		s, err := writeBlock(n)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, sep), nil
}

func writeBlock(n *docmodel.Node) (string, error) {
	switch n.Type {
	case docmodel.KindParagraph:
		return escapeLineStarts(writeInlines(n.Content)), nil
	case docmodel.KindHeading:
		level := min(max(n.AttrInt("level", 1), 1), 6)
		text := writeInlines(n.Content)
		if strings.HasSuffix(text, "#") {
			text = text[:len(text)-1] + `\#`
		}
		return strings.TrimRight(strings.Repeat("#", level)+" "+text, " "), nil
	case docmodel.KindBlockquote:
		inner, err := writeBlocks(n.Content, false)
		if err != nil {
			return "", err
		}
		return prefixLines(inner, "> ", "> "), nil
	case docmodel.KindBulletList, docmodel.KindOrderedList:
		return writeList(n)
	case docmodel.KindCodeBlock:
		return writeCode(n), nil
	case docmodel.KindHorizontalRule:
		// "---" could open a front matter block at the top of the document.
		return "***", nil
	case docmodel.KindRawBlock:
		return n.TextContent(), nil
	case docmodel.KindTableContainer, docmodel.KindTable:
		return writeTable(n)
	}
	return "", fmt.Errorf("%w: unexpected %s block", ErrMarkdownWrite, n.Type)
}

func writeList(n *docmodel.Node) (string, error) {
	tight := true
	if _, ok := n.Attrs["tight"]; ok {
		tight = n.Attrs.Bool("tight")
	}
	start := n.AttrInt("order", 1)

	items := make([]string, 0, len(n.Content))
	for i, item := range n.Content {
		marker := "- "
		if n.Type == docmodel.KindOrderedList {
			marker = strconv.Itoa(start+i) + ". "
		}
		body, err := writeBlocks(item.Content, tight)
		if err != nil {
			return "", err
		}
		if _, ok := item.Attrs["checked"]; ok {
			box := "[ ] "
			if item.Attrs.Bool("checked") {
				box = "[x] "
			}
			body = box + body
		}
		indent := strings.Repeat(" ", len(marker))
		switch {
		case body == "":
			items = append(items, strings.TrimRight(marker, " "))
		case item.Content[0].Type == docmodel.KindTableContainer && strings.HasPrefix(body, "<table>"):
			// A table line must start its own line to be captured. Raw
			// blocks stay on the marker line so they are read back raw.
			items = append(items, strings.TrimRight(marker, " ")+"\n"+prefixLines(body, indent, indent))
		default:
			items = append(items, prefixLines(body, marker, indent))
		}
	}
	sep := "\n\n"
	if tight {
		sep = "\n"
	}
	return strings.Join(items, sep), nil
}

func writeCode(n *docmodel.Node) string {
	text := n.TextContent()
	fence := strings.Repeat("`", max(3, longestRun(text, '`')+1))
	var b strings.Builder
	b.WriteString(fence)
	b.WriteString(n.AttrString("language"))
	b.WriteByte('\n')
	if text != "" {
		b.WriteString(text)
		b.WriteByte('\n')
	}
	b.WriteString(fence)
	return b.String()
}

func writeTable(n *docmodel.Node) (string, error) {
	table := n
	if n.Type == docmodel.KindTableContainer {
		table = n.FirstChild()
	}
	if table == nil || table.Type != docmodel.KindTable {
		return "", fmt.Errorf("%w: table container without table", ErrMarkdownWrite)
	}
	if pipe, ok := pipeTable(table); ok {
		return pipe, nil
	}
	html, err := docmodel.RenderTableHTML(table)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMarkdownWrite, err)
	}
	return html, nil
}

// pipeTable renders table as a GFM pipe table when it has one.
func pipeTable(table *docmodel.Node) (string, bool) {
	if len(table.Content) == 0 {
		return "", false
	}
	width := len(table.Content[0].Content)
	rows := make([][]string, 0, len(table.Content))
	for i, row := range table.Content {
		if len(row.Content) != width {
			return "", false
		}
		cells := make([]string, 0, width)
		for _, cell := range row.Content {
			if (cell.Type == docmodel.KindTableHeader) != (i == 0) {
				return "", false
			}
			text, ok := pipeCell(cell)
			if !ok {
				return "", false
			}
			cells = append(cells, text)
		}
		rows = append(rows, cells)
	}

	delims := make([]string, width)
	for i, cell := range table.Content[0].Content {
		switch cell.AttrString("align") {
		case "left":
			delims[i] = ":---"
		case "center":
			delims[i] = ":---:"
		case "right":
			delims[i] = "---:"
		default:
			delims[i] = "---"
		}
	}

	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, pipeRow(rows[0]), pipeRow(delims))
	for _, r := range rows[1:] {
		lines = append(lines, pipeRow(r))
	}
	return strings.Join(lines, "\n"), true
}

func pipeCell(cell *docmodel.Node) (string, bool) {
	if cell.AttrInt("colspan", 1) > 1 || cell.AttrInt("rowspan", 1) > 1 {
		return "", false
	}
	if len(cell.Content) != 1 || cell.Content[0].Type != docmodel.KindParagraph {
		return "", false
	}
	for _, in := range cell.Content[0].Content {
		if in.Type == docmodel.KindHardBreak || strings.Contains(in.Text, "\n") {
			return "", false
		}
	}
	text := writeInlines(cell.Content[0].Content)
	return strings.ReplaceAll(text, "|", `\|`), true
}

func pipeRow(cells []string) string {
	return strings.TrimRight("| "+strings.Join(cells, " | ")+" |", " ")
}

// inlineWriter serializes inline content, keeping track of open marks.
type inlineWriter struct {
	b      strings.Builder
	active []docmodel.Mark
}

func writeInlines(nodes []*docmodel.Node) string {
	w := &inlineWriter{}
	pending := ""
	for i, n := range nodes {
		want := wantedMarks(n)
		common := commonMarks(w.active, want)

		lead, body, trail := "", "", ""
		if n.Type == docmodel.KindText && !n.HasMark(docmodel.MarkCode) {
			lead, body, trail = splitSpace(n.Text)
			if body == "" {
				want = want[:common]
			}
		}

		w.closeTo(common)
		w.b.WriteString(pending)
		pending = ""
		w.b.WriteString(escapeInline(lead))
		w.open(want[common:])

		switch n.Type {
		case docmodel.KindText:
			if n.HasMark(docmodel.MarkCode) {
				w.b.WriteString(codeSpan(n.Text))
			} else {
				w.b.WriteString(escapeInline(body))
			}
		case docmodel.KindHardBreak:
			w.b.WriteString("\\\n")
		case docmodel.KindImage:
			w.b.WriteString("![" + escapeInline(n.AttrString("alt")) + "](" + destination(n.AttrString("src")) + title(n.AttrString("title")) + ")")
		case docmodel.KindRawInline:
			w.b.WriteString(n.TextContent())
		}

		if trail != "" {
			closes := i == len(nodes)-1 || commonMarks(want, wantedMarks(nodes[i+1])) < len(want)
			if closes {
				pending = escapeInline(trail)
			} else {
				w.b.WriteString(escapeInline(trail))
			}
		}
	}
	w.closeTo(0)
	w.b.WriteString(pending)
	return w.b.String()
}

func (w *inlineWriter) closeTo(n int) {
	for len(w.active) > n {
		m := w.active[len(w.active)-1]
		w.active = w.active[:len(w.active)-1]
		w.b.WriteString(closeDelim(m))
	}
}

func (w *inlineWriter) open(marks []docmodel.Mark) {
	for _, m := range marks {
		w.b.WriteString(openDelim(m))
		w.active = append(w.active, m)
	}
}

// wantedMarks returns the non-code marks of n from outermost to innermost.
func wantedMarks(n *docmodel.Node) []docmodel.Mark {
	if n.Type != docmodel.KindText {
		return nil
	}
	marks := make([]docmodel.Mark, 0, len(n.Marks))
	for _, m := range n.Marks {
		if _, ok := markRank[m.Type]; ok {
			marks = append(marks, m)
		}
	}
	slices.SortStableFunc(marks, func(a, b docmodel.Mark) int {
		return markRank[a.Type] - markRank[b.Type]
	})
	return marks
}

func commonMarks(a, b []docmodel.Mark) int {
	n := 0
	for n < len(a) && n < len(b) && sameMark(a[n], b[n]) {
		n++
	}
	return n
}

func sameMark(a, b docmodel.Mark) bool {
	return a.Type == b.Type &&
		a.Attrs.String("href") == b.Attrs.String("href") &&
		a.Attrs.String("title") == b.Attrs.String("title")
}

func openDelim(m docmodel.Mark) string {
	switch m.Type {
	case docmodel.MarkStrong:
		return "**"
	case docmodel.MarkEm:
		return "*"
	case docmodel.MarkStrike:
		return "~~"
	case docmodel.MarkHighlight:
		return "=="
	case docmodel.MarkLink:
		return "["
	}
	return ""
}

func closeDelim(m docmodel.Mark) string {
	if m.Type == docmodel.MarkLink {
		return "](" + destination(m.Attrs.String("href")) + title(m.Attrs.String("title")) + ")"
	}
	return openDelim(m)
}

func destination(href string) string {
	if href == "" || strings.ContainsAny(href, " ()<>\t") {
		return "<" + strings.NewReplacer("<", `\<`, ">", `\>`).Replace(href) + ">"
	}
	return href
}

func title(t string) string {
	if t == "" {
		return ""
	}
	return ` "` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(t) + `"`
}

func codeSpan(text string) string {
	text = strings.ReplaceAll(text, "\n", " ")
	fence := strings.Repeat("`", longestRun(text, '`')+1)
	if strings.HasPrefix(text, "`") || strings.HasSuffix(text, "`") ||
		(strings.HasPrefix(text, " ") && strings.HasSuffix(text, " ") && strings.Trim(text, " ") != "") {
		text = " " + text + " "
	}
	return fence + text + fence
}

func splitSpace(s string) (lead, body, trail string) {
	body = strings.TrimLeft(s, " \t")
	lead = s[:len(s)-len(body)]
	trimmed := strings.TrimRight(body, " \t")
	trail = body[len(trimmed):]
	return lead, trimmed, trail
}

// escapeInline backslash-escapes characters that would otherwise start
// inline markup.
func escapeInline(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\', '*', '_', '`', '[', ']', '<', '~', '&':
			b.WriteByte('\\')
		case '=':
			if (i > 0 && s[i-1] == '=') || (i+1 < len(s) && s[i+1] == '=') {
				b.WriteByte('\\')
			}
		case '\n':
			b.WriteByte(' ')
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// escapeLineStarts keeps paragraph lines from being read as block markers.
func escapeLineStarts(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		line = strings.TrimLeft(line, " \t")
		switch {
		case orderedMarker.MatchString(line):
			line = orderedMarker.ReplaceAllString(line, `$1\$2$3`)
		case blockMarker.MatchString(line):
			line = `\` + line
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

func prefixLines(s, first, rest string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		p := rest
		if i == 0 {
			p = first
		}
		if line == "" {
			lines[i] = strings.TrimRight(p, " ")
			continue
		}
		lines[i] = p + line
	}
	return strings.Join(lines, "\n")
}

func longestRun(s string, c byte) int {
	longest, run := 0, 0
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			run++
			longest = max(longest, run)
			continue
		}
		run = 0
	}
	return longest
}
