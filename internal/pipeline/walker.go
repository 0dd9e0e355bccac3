package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/alnah/go-md2doc/internal/capsule"
	"github.com/alnah/go-md2doc/internal/docmodel"
)

// ErrDocumentBuild indicates the parsed Markdown did not yield a valid document.
var ErrDocumentBuild = errors.New("document build failed")

// Stats counts capsule activity during one conversion.
type Stats struct {
	Capsules   int `json:"capsules" yaml:"capsules"`     // placeholders in the encoded source
	Structured int `json:"structured" yaml:"structured"` // capsules written as native nodes
	Fallback   int `json:"fallback" yaml:"fallback"`     // capsules written as raw blocks
	Misses     int `json:"misses" yaml:"misses"`         // placeholders left in the output text
}

// DocumentBuilder abstracts preprocessed Markdown to document conversion.
type DocumentBuilder interface {
	Build(ctx context.Context, source string) (*docmodel.Node, Stats, error)
}

// DocumentWriter parses preprocessed Markdown with goldmark and writes the
// AST into a docmodel tree, recovering capsules on the way.
// It is safe for concurrent use once built.
type DocumentWriter struct {
	parser   parser.Parser
	registry *capsule.Registry
	schema   *docmodel.Schema
	logger   *slog.Logger
}

// Compile-time interface check.
var _ DocumentBuilder = (*DocumentWriter)(nil)

// DocumentWriterOption configures a DocumentWriter.
type DocumentWriterOption func(*DocumentWriter)

// WithSchema sets the schema documents are validated against.
func WithSchema(s *docmodel.Schema) DocumentWriterOption {
	return func(w *DocumentWriter) {
		if s != nil {
			w.schema = s
		}
	}
}

// WithLogger sets the logger used for recovery misses and writer failures.
func WithLogger(l *slog.Logger) DocumentWriterOption {
	return func(w *DocumentWriter) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewDocumentWriter creates a DocumentWriter recovering capsules from
// registry. A nil registry recovers nothing.
func NewDocumentWriter(registry *capsule.Registry, opts ...DocumentWriterOption) *DocumentWriter {
	if registry == nil {
		registry = &capsule.Registry{}
	}
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM), // Tables, strikethrough, autolinks, task lists
	)
	w := &DocumentWriter{
		parser:   md.Parser(),
		registry: registry,
		schema:   docmodel.DefaultSchema(),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Build parses source, as encoded by the registry, and returns the
// validated document with capsule statistics. Cancellation is honored with
// the same goroutine + select pattern as ToHTML since goldmark has no
// context support.
func (w *DocumentWriter) Build(ctx context.Context, source string) (*docmodel.Node, Stats, error) {
	if err := ctx.Err(); err != nil {
		return nil, Stats{}, err
	}

	type result struct {
		doc   *docmodel.Node
		stats Stats
		err   error
	}

	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("%w: panic: %v", ErrDocumentBuild, r)}
			}
		}()
		doc, stats, err := w.build([]byte(source))
		done <- result{doc: doc, stats: stats, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, Stats{}, ctx.Err()
	case r := <-done:
		return r.doc, r.stats, r.err
	}
}

func (w *DocumentWriter) build(src []byte) (*docmodel.Node, Stats, error) {
	root := w.parser.Parse(text.NewReader(src))
	s := &session{
		DocumentWriter: w,
		src:            src,
		b:              docmodel.NewBuilder(w.schema),
	}
	s.stats.Capsules = capsule.Count(string(src))
	s.blocks(root)

	doc, err := s.b.Doc()
	if err != nil {
		return nil, s.stats, fmt.Errorf("%w: %v", ErrDocumentBuild, err)
	}
	docmodel.MapStrings(doc, capsule.Unescape)
	return doc, s.stats, nil
}

// session holds the state of one Build.
type session struct {
	*DocumentWriter
	src       []byte
	b         *docmodel.Builder
	stats     Stats
	highlight bool
}

func (s *session) blocks(parent ast.Node) {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		s.block(n)
	}
}

func (s *session) block(n ast.Node) {
	switch n := n.(type) {
	case *ast.Paragraph:
		s.paragraph(n)
	case *ast.TextBlock:
		s.paragraph(n)
	case *ast.Heading:
		s.heading(n)
	case *ast.Blockquote:
		s.b.OpenNode(docmodel.KindBlockquote, nil)
		s.blocks(n)
		s.b.CloseNode()
	case *ast.List:
		s.list(n)
	case *ast.ListItem:
		s.listItem(n)
	case *ast.ThematicBreak:
		s.b.AddNode(docmodel.KindHorizontalRule, nil)
	case *ast.CodeBlock:
		s.code(n, "")
	case *ast.FencedCodeBlock:
		s.code(n, NormalizeLanguage(string(n.Language(s.src))))
	case *ast.HTMLBlock:
		s.htmlBlock(n)
	case *east.Table:
		s.table(n)
	default:
		s.blocks(n)
	}
}

// paragraph writes a paragraph. A line made of nothing but a capsule
// placeholder leaves the paragraph: the text before and after it becomes
// paragraphs of its own and the capsule is written between them.
func (s *session) paragraph(n ast.Node) {
	s.liftCapsules(splitLines(n), docmodel.KindParagraph, nil)
}

// heading writes a heading. Only a setext heading can hold a placeholder
// line. Its capsules are lifted out as in a paragraph and the text after the
// last one stays the heading. An underline left with no text under it is
// kept as a thematic break, or as paragraph text for "=".
func (s *session) heading(n *ast.Heading) {
	attrs := docmodel.Attrs{"level": n.Level}
	if !s.liftCapsules(splitLines(n), docmodel.KindHeading, attrs) {
		return
	}
	underline := s.setextUnderline(n)
	if strings.HasPrefix(underline, "=") {
		s.b.OpenNode(docmodel.KindParagraph, nil)
		s.b.WriteText(underline)
		s.b.CloseNode()
		return
	}
	s.b.AddNode(docmodel.KindHorizontalRule, nil)
}

// liftCapsules writes lines as blocks of kind, moving every placeholder line
// out to its own capsule block. Runs of text before a placeholder become
// paragraphs. It reports whether the last line was a placeholder.
func (s *session) liftCapsules(lines [][]ast.Node, kind docmodel.Kind, attrs docmodel.Attrs) bool {
	capsules := make([]bool, len(lines))
	descs := make([]capsule.Descriptor, len(lines))
	for i, line := range lines {
		descs[i], capsules[i] = s.lineCapsule(line)
	}

	open := false
	for i, line := range lines {
		if capsules[i] {
			if open {
				s.endInlines()
				s.b.CloseNode()
				open = false
			}
			s.writeCapsule(descs[i])
			continue
		}
		if !open {
			if slices.Contains(capsules[i:], true) {
				s.b.OpenNode(docmodel.KindParagraph, nil)
			} else {
				s.b.OpenNode(kind, attrs)
			}
			open = true
		}
		lineEnds := i == len(lines)-1 || capsules[i+1]
		for j, c := range line {
			if t, ok := c.(*ast.Text); ok && j == len(line)-1 && lineEnds {
				s.text(t, false)
				continue
			}
			s.inline(c)
		}
	}
	if open {
		s.endInlines()
		s.b.CloseNode()
	}
	return len(lines) > 0 && capsules[len(lines)-1]
}

// setextUnderline returns the underline of a setext heading, stripped of
// indentation and quote markers.
func (s *session) setextUnderline(n *ast.Heading) string {
	lines := n.Lines()
	if lines.Len() == 0 {
		return ""
	}
	pos := lines.At(lines.Len() - 1).Stop
	if pos > len(s.src) {
		return ""
	}
	if pos == 0 || s.src[pos-1] != '\n' {
		i := bytes.IndexByte(s.src[pos:], '\n')
		if i < 0 {
			return ""
		}
		pos += i + 1
	}
	line := s.src[pos:]
	if i := bytes.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	return strings.TrimRight(strings.TrimLeft(string(line), " \t>"), " \t")
}

// splitLines groups the inline children of n into source lines.
func splitLines(n ast.Node) [][]ast.Node {
	var lines [][]ast.Node
	var cur []ast.Node
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		cur = append(cur, c)
		if t, ok := c.(*ast.Text); ok && (t.SoftLineBreak() || t.HardLineBreak()) {
			lines = append(lines, cur)
			cur = nil
		}
	}
	if len(cur) > 0 {
		lines = append(lines, cur)
	}
	return lines
}

// lineCapsule reports whether line is a single placeholder of a registered type.
func (s *session) lineCapsule(line []ast.Node) (capsule.Descriptor, bool) {
	var b strings.Builder
	for _, c := range line {
		t, ok := c.(*ast.Text)
		if !ok || t.IsRaw() {
			return capsule.Descriptor{}, false
		}
		b.Write(t.Segment.Value(s.src))
	}
	d, _, ok := s.registry.RecoverToken(capsule.Token{Kind: capsule.TokenParagraph, Text: b.String()})
	return d, ok
}

// writeCapsule hands d to its filter. A writer that panics, fails, leaves
// nodes open or emits nodes the schema rejects is rolled back and the block
// is kept as a raw block instead.
func (s *session) writeCapsule(d capsule.Descriptor) {
	cp := s.b.Checkpoint()
	outcome, err := s.dispatch(d)
	if err == nil {
		err = s.checkWritten(cp)
	}
	if err != nil {
		s.b.Rollback(cp)
		s.logger.Warn("capsule writer failed, keeping raw block", "type", d.Type, "error", err)
		s.rawBlock(d.Canonical())
		outcome = capsule.OutcomeFallback
	}

	switch outcome {
	case capsule.OutcomeStructured:
		s.stats.Structured++
	case capsule.OutcomeFallback:
		s.stats.Fallback++
	}
}

func (s *session) dispatch(d capsule.Descriptor) (outcome capsule.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcome, err = 0, fmt.Errorf("panic: %v", r)
		}
	}()
	return s.registry.Write(d, s.b)
}

func (s *session) checkWritten(cp docmodel.Checkpoint) error {
	parent, added := s.b.Since(cp)
	if s.b.Depth() != cp.Depth() {
		return fmt.Errorf("writer left the builder at depth %d", s.b.Depth())
	}
	for _, n := range added {
		if !s.schema.Accepts(parent.Type, n.Type) {
			return fmt.Errorf("%w: %s not allowed in %s", docmodel.ErrInvalidContent, n.Type, parent.Type)
		}
		if err := s.schema.Validate(n); err != nil {
			return err
		}
	}
	return nil
}

func (s *session) rawBlock(text string) {
	s.b.OpenNode(docmodel.KindRawBlock, docmodel.Attrs{"format": docmodel.FormatHTML})
	s.b.WriteText(text)
	s.b.CloseNode()
}

func (s *session) list(n *ast.List) {
	kind := docmodel.KindBulletList
	attrs := docmodel.Attrs{"tight": n.IsTight}
	if n.IsOrdered() {
		kind = docmodel.KindOrderedList
		attrs["order"] = n.Start
	}
	s.b.OpenNode(kind, attrs)
	s.blocks(n)
	s.b.CloseNode()
}

func (s *session) listItem(n *ast.ListItem) {
	var attrs docmodel.Attrs
	if first := n.FirstChild(); first != nil {
		if box, ok := first.FirstChild().(*east.TaskCheckBox); ok {
			attrs = docmodel.Attrs{"checked": box.IsChecked}
		}
	}
	s.b.OpenNode(docmodel.KindListItem, attrs)
	s.blocks(n)
	s.b.CloseNode()
}

func (s *session) code(n ast.Node, lang string) {
	var buf strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(s.src))
	}
	body := RestoreHighlights(s.recover(strings.TrimSuffix(buf.String(), "\n"), "code"))

	var attrs docmodel.Attrs
	if lang != "" {
		attrs = docmodel.Attrs{"language": lang}
	}
	s.b.OpenNode(docmodel.KindCodeBlock, attrs)
	s.b.WriteText(body)
	s.b.CloseNode()
}

func (s *session) htmlBlock(n *ast.HTMLBlock) {
	var buf strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(s.src))
	}
	if n.HasClosure() {
		buf.Write(n.ClosureLine.Value(s.src))
	}
	body := RestoreHighlights(s.recover(strings.TrimRight(buf.String(), "\n"), "html"))
	if body == "" {
		return
	}
	s.rawBlock(body)
}

// table writes a pipe table. A placeholder line directly under the table
// is read by goldmark as one more row; such a row closes the table, the
// capsule is written after it and later rows start a new table.
func (s *session) table(n *east.Table) {
	open := false
	for row := n.FirstChild(); row != nil; row = row.NextSibling() {
		if d, ok := s.rowCapsule(row); ok {
			if open {
				s.b.CloseNode()
				s.b.CloseNode()
				open = false
			}
			s.writeCapsule(d)
			continue
		}
		if !open {
			s.b.OpenNode(docmodel.KindTableContainer, nil)
			s.b.OpenNode(docmodel.KindTable, nil)
			open = true
		}
		s.tableRow(row)
	}
	if open {
		s.b.CloseNode()
		s.b.CloseNode()
	}
}

func (s *session) tableRow(row ast.Node) {
	kind := docmodel.KindTableCell
	if _, ok := row.(*east.TableHeader); ok {
		kind = docmodel.KindTableHeader
	}
	s.b.OpenNode(docmodel.KindTableRow, nil)
	for c := row.FirstChild(); c != nil; c = c.NextSibling() {
		var attrs docmodel.Attrs
		if cell, ok := c.(*east.TableCell); ok {
			if align := alignment(cell.Alignment); align != "" {
				attrs = docmodel.Attrs{"align": align}
			}
		}
		s.b.OpenNode(kind, attrs)
		s.b.OpenNode(docmodel.KindParagraph, nil)
		s.inlines(c)
		s.endInlines()
		s.b.CloseNode()
		s.b.CloseNode()
	}
	s.b.CloseNode()
}

// rowCapsule reports whether row is a placeholder line: its first cell holds
// the placeholder and any cells padded after it are empty.
func (s *session) rowCapsule(row ast.Node) (capsule.Descriptor, bool) {
	first := row.FirstChild()
	if first == nil || !first.HasChildren() {
		return capsule.Descriptor{}, false
	}
	for c := first.NextSibling(); c != nil; c = c.NextSibling() {
		if c.HasChildren() {
			return capsule.Descriptor{}, false
		}
	}
	var line []ast.Node
	for c := first.FirstChild(); c != nil; c = c.NextSibling() {
		line = append(line, c)
	}
	return s.lineCapsule(line)
}

func alignment(a east.Alignment) string {
	switch a {
	case east.AlignLeft:
		return "left"
	case east.AlignCenter:
		return "center"
	case east.AlignRight:
		return "right"
	}
	return ""
}

func (s *session) inlines(parent ast.Node) {
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		s.inline(c)
	}
}

// endInlines closes marks that span to the end of a text block.
func (s *session) endInlines() {
	s.setHighlight(false)
}

func (s *session) inline(n ast.Node) {
	switch n := n.(type) {
	case *ast.Text:
		s.text(n, true)
	case *ast.String:
		value := string(n.Value)
		if !n.IsRaw() && !n.IsCode() {
			value = unescape(n.Value)
		}
		s.writeText(s.recover(value, "text"))
	case *ast.CodeSpan:
		s.b.OpenMark(docmodel.Mark{Type: docmodel.MarkCode})
		s.b.WriteText(RestoreHighlights(s.recover(s.codeSpan(n), "code")))
		s.b.CloseMark(docmodel.MarkCode)
	case *ast.Emphasis:
		mark := docmodel.MarkEm
		if n.Level >= 2 {
			mark = docmodel.MarkStrong
		}
		s.b.OpenMark(docmodel.Mark{Type: mark})
		s.inlines(n)
		s.b.CloseMark(mark)
	case *east.Strikethrough:
		s.b.OpenMark(docmodel.Mark{Type: docmodel.MarkStrike})
		s.inlines(n)
		s.b.CloseMark(docmodel.MarkStrike)
	case *ast.Link:
		s.b.OpenMark(linkMark(unescape(n.Destination), unescape(n.Title)))
		s.inlines(n)
		s.b.CloseMark(docmodel.MarkLink)
	case *ast.AutoLink:
		href := string(n.URL(s.src))
		if n.AutoLinkType == ast.AutoLinkEmail && !strings.HasPrefix(strings.ToLower(href), "mailto:") {
			href = "mailto:" + href
		}
		s.b.OpenMark(linkMark(href, ""))
		s.writeText(string(n.Label(s.src)))
		s.b.CloseMark(docmodel.MarkLink)
	case *ast.Image:
		attrs := docmodel.Attrs{
			"src": unescape(n.Destination),
			"alt": s.plainText(n),
		}
		if title := unescape(n.Title); title != "" {
			attrs["title"] = title
		}
		s.b.AddNode(docmodel.KindImage, attrs)
	case *ast.RawHTML:
		var buf strings.Builder
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			buf.Write(seg.Value(s.src))
		}
		if raw := RestoreHighlights(s.recover(buf.String(), "html")); raw != "" {
			s.b.AddNode(docmodel.KindRawInline, docmodel.Attrs{"format": docmodel.FormatHTML}, docmodel.NewText(raw))
		}
	case *east.TaskCheckBox:
		// Carried by the list item's checked attribute.
	default:
		s.inlines(n)
	}
}

// text writes a text node. breaks controls whether a trailing line break
// is written; the last line before a lifted capsule drops it.
func (s *session) text(t *ast.Text, breaks bool) {
	value := t.Segment.Value(s.src)
	if t.IsRaw() {
		s.writeText(s.recover(string(value), "text"))
	} else {
		s.writeText(s.recover(unescape(value), "text"))
	}
	if !breaks {
		return
	}
	switch {
	case t.HardLineBreak():
		s.b.AddNode(docmodel.KindHardBreak, nil)
	case t.SoftLineBreak():
		s.writeText(" ")
	}
}

// writeText writes text, toggling the highlight mark at placeholder markers.
func (s *session) writeText(text string) {
	for text != "" {
		i := strings.IndexAny(text, MarkStartPlaceholder+MarkEndPlaceholder)
		if i < 0 {
			s.b.WriteText(text)
			return
		}
		s.b.WriteText(text[:i])
		r, size := utf8.DecodeRuneInString(text[i:])
		s.setHighlight(string(r) == MarkStartPlaceholder)
		text = text[i+size:]
	}
}

func (s *session) setHighlight(on bool) {
	if on == s.highlight {
		return
	}
	if on {
		s.b.OpenMark(docmodel.Mark{Type: docmodel.MarkHighlight})
	} else {
		s.b.CloseMark(docmodel.MarkHighlight)
	}
	s.highlight = on
}

func (s *session) codeSpan(n *ast.CodeSpan) string {
	var buf strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch c := c.(type) {
		case *ast.Text:
			v := c.Segment.Value(s.src)
			if len(v) > 0 && v[len(v)-1] == '\n' {
				buf.Write(v[:len(v)-1])
				buf.WriteByte(' ')
				continue
			}
			buf.Write(v)
		case *ast.String:
			buf.Write(c.Value)
		}
	}
	return buf.String()
}

// plainText returns the text of n's descendants without markup, as used
// for image alt text.
func (s *session) plainText(n ast.Node) string {
	var buf strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch c := c.(type) {
		case *ast.Text:
			buf.WriteString(unescape(c.Segment.Value(s.src)))
			if c.SoftLineBreak() || c.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(c.Value)
		}
		return ast.WalkContinue, nil
	})
	return RestoreHighlights(s.recover(buf.String(), "text"))
}

// recover restores placeholders in text and reports the ones no filter
// could recover.
func (s *session) recover(text, where string) string {
	text = s.registry.RecoverText(text)
	for _, typ := range capsule.Unrecovered(text) {
		s.stats.Misses++
		s.logger.Warn("capsule placeholder not recovered", "type", typ, "in", where)
	}
	return text
}

func linkMark(href, title string) docmodel.Mark {
	attrs := docmodel.Attrs{"href": href}
	if title != "" {
		attrs["title"] = title
	}
	return docmodel.Mark{Type: docmodel.MarkLink, Attrs: attrs}
}

// unescape resolves backslash escapes and character references the way
// goldmark's HTML renderer does. An escaped character is never part of a
// reference.
func unescape(v []byte) string {
	if len(v) == 0 {
		return ""
	}
	var b strings.Builder
	b.Grow(len(v))
	start := 0
	for i := 0; i < len(v)-1; i++ {
		if v[i] == '\\' && util.IsPunct(v[i+1]) {
			b.Write(resolveReferences(v[start:i]))
			b.WriteByte(v[i+1])
			i++
			start = i + 1
		}
	}
	b.Write(resolveReferences(v[start:]))
	return b.String()
}

func resolveReferences(v []byte) []byte {
	if len(v) == 0 {
		return v
	}
	return util.ResolveEntityNames(util.ResolveNumericReferences(v))
}
