package filters

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/alnah/go-md2doc/internal/capsule"
	"github.com/alnah/go-md2doc/internal/docmodel"
)

// TableType is the capsule type tag of the HTML table filter.
const TableType = "8ef5a772-dd63-4622-84bf-af1995a1b2b9"

// tablePattern matches a whole line holding one HTML table, optionally
// indented or quoted. The body is the table markup itself.
var tablePattern = regexp.MustCompile(`(?m)^([\t >]*)(<table>.*?</table>)([ \t]*)$`)

// TableFilter carries single-line HTML tables through conversion and promotes
// them to table nodes when their shape allows it.
type TableFilter struct {
	capsule.Base
	parser HTMLParser
	schema *docmodel.Schema
	logger *slog.Logger
}

// Compile-time interface check.
var _ capsule.Filter = (*TableFilter)(nil)

// TableOption configures a TableFilter.
type TableOption func(*TableFilter)

// WithTableLogger sets the logger used to report fallbacks at DEBUG level.
func WithTableLogger(l *slog.Logger) TableOption {
	return func(f *TableFilter) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithTableSchema sets the schema promoted tables are checked against.
func WithTableSchema(s *docmodel.Schema) TableOption {
	return func(f *TableFilter) {
		if s != nil {
			f.schema = s
		}
	}
}

// NewTable returns a table filter using parser. A nil parser selects
// NetHTMLParser.
func NewTable(parser HTMLParser, opts ...TableOption) *TableFilter {
	if parser == nil {
		parser = &NetHTMLParser{}
	}
	f := &TableFilter{
		Base:   capsule.NewBase(TableType, tablePattern),
		parser: parser,
		schema: docmodel.DefaultSchema(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Default returns the built-in filters in precedence order.
func Default(parser HTMLParser, opts ...TableOption) []capsule.Filter {
	return []capsule.Filter{NewTable(parser, opts...)}
}

// Write emits a table_container when the block parses into a supported
// table, or a raw html block holding the block text otherwise.
func (f *TableFilter) Write(d capsule.Descriptor, w capsule.Writer) capsule.Outcome {
	text := d.Canonical()
	container, err := f.promote(text)
	if err != nil {
		f.logger.Debug("table kept as raw html", "error", err)
		w.OpenNode(docmodel.KindRawBlock, docmodel.Attrs{"format": docmodel.FormatHTML})
		w.WriteText(text)
		w.CloseNode()
		return capsule.OutcomeFallback
	}
	w.AddNode(container.Type, container.Attrs, container.Content...)
	return capsule.OutcomeStructured
}

// promote parses text into a table_container node.
func (f *TableFilter) promote(text string) (container *docmodel.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			container, err = nil, fmt.Errorf("parsing table: panic: %v", r)
		}
	}()

	nodes, err := f.parser.ParseFragment(text)
	if err != nil {
		return nil, fmt.Errorf("parsing table: %w", err)
	}
	el, err := soleTable(nodes)
	if err != nil {
		return nil, err
	}
	table, err := docmodel.TableFromHTML(el)
	if err != nil {
		return nil, err
	}
	container = docmodel.New(docmodel.KindTableContainer, nil, table)
	if err := f.schema.Validate(docmodel.New(docmodel.KindDoc, nil, container)); err != nil {
		return nil, err
	}
	return container, nil
}

// soleTable returns the only top-level element of nodes if it is a table.
func soleTable(nodes []*html.Node) (*html.Node, error) {
	var table *html.Node
	for _, n := range nodes {
		switch {
		case n.Type == html.TextNode && strings.TrimSpace(n.Data) == "":
			continue
		case n.Type == html.CommentNode:
			continue
		case table == nil && n.Type == html.ElementNode && n.DataAtom == atom.Table:
			table = n
		default:
			return nil, fmt.Errorf("%w: content outside the table", docmodel.ErrTableShape)
		}
	}
	if table == nil {
		return nil, fmt.Errorf("%w: no table element", docmodel.ErrTableShape)
	}
	return table, nil
}
