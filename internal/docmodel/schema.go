package docmodel

import (
	"errors"
	"fmt"
)

// Sentinel errors for schema validation.
var (
	ErrUnknownKind    = errors.New("unknown node kind")
	ErrInvalidContent = errors.New("invalid node content")
	ErrEmptyText      = errors.New("text node cannot be empty")
)

// group names a set of node kinds accepted as children.
type group int

const (
	groupNone group = iota
	groupBlock
	groupInline
	groupText
	groupListItem
	groupTable
	groupRow
	groupCell
)

// contentRule describes what a node kind may contain.
type contentRule struct {
	children group
	min      int
}

// Schema describes the allowed shape of a document tree.
type Schema struct {
	rules  map[Kind]contentRule
	groups map[group]map[Kind]bool
}

// DefaultSchema returns the schema for documents produced by the pipeline.
func DefaultSchema() *Schema {
	return &Schema{
		rules: map[Kind]contentRule{
			KindDoc:            {children: groupBlock},
			KindParagraph:      {children: groupInline},
			KindHeading:        {children: groupInline},
			KindBlockquote:     {children: groupBlock},
			KindBulletList:     {children: groupListItem, min: 1},
			KindOrderedList:    {children: groupListItem, min: 1},
			KindListItem:       {children: groupBlock},
			KindCodeBlock:      {children: groupText},
			KindHorizontalRule: {children: groupNone},
			KindRawBlock:       {children: groupText},
			KindTableContainer: {children: groupTable, min: 1},
			KindTable:          {children: groupRow, min: 1},
			KindTableRow:       {children: groupCell, min: 1},
			KindTableHeader:    {children: groupBlock, min: 1},
			KindTableCell:      {children: groupBlock, min: 1},
			KindText:           {children: groupNone},
			KindHardBreak:      {children: groupNone},
			KindImage:          {children: groupNone},
			KindRawInline:      {children: groupNone},
		},
		groups: map[group]map[Kind]bool{
			groupBlock: {
				KindParagraph: true, KindHeading: true, KindBlockquote: true,
				KindBulletList: true, KindOrderedList: true, KindCodeBlock: true,
				KindHorizontalRule: true, KindRawBlock: true, KindTableContainer: true,
			},
			groupInline:   {KindText: true, KindHardBreak: true, KindImage: true, KindRawInline: true},
			groupText:     {KindText: true},
			groupListItem: {KindListItem: true},
			groupTable:    {KindTable: true},
			groupRow:      {KindTableRow: true},
			groupCell:     {KindTableCell: true, KindTableHeader: true},
		},
	}
}

// Validate checks n and all of its descendants against the schema.
// The returned error names the path to the first offending node.
func (s *Schema) Validate(n *Node) error {
	return s.validate(n, string(n.Type))
}

// Accepts reports whether a node of kind child may appear inside parent.
func (s *Schema) Accepts(parent, child Kind) bool {
	rule, ok := s.rules[parent]
	if !ok {
		return false
	}
	return s.groups[rule.children][child]
}

func (s *Schema) validate(n *Node, path string) error {
	rule, ok := s.rules[n.Type]
	if !ok {
		return fmt.Errorf("%w: %q at %s", ErrUnknownKind, n.Type, path)
	}
	if n.Type == KindText && n.Text == "" {
		return fmt.Errorf("%w: at %s", ErrEmptyText, path)
	}
	if len(n.Content) < rule.min {
		return fmt.Errorf("%w: %s needs at least %d child(ren), has %d", ErrInvalidContent, path, rule.min, len(n.Content))
	}
	for i, c := range n.Content {
		childPath := fmt.Sprintf("%s/%d:%s", path, i, c.Type)
		if !s.groups[rule.children][c.Type] {
			return fmt.Errorf("%w: %s not allowed in %s", ErrInvalidContent, c.Type, path)
		}
		if err := s.validate(c, childPath); err != nil {
			return err
		}
	}
	return nil
}
