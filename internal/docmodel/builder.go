package docmodel

import (
	"errors"
	"fmt"
)

// ErrUnbalanced indicates a CloseNode without a matching OpenNode.
var ErrUnbalanced = errors.New("unbalanced node close")

// Builder assembles a document tree from a stream of open/text/close calls.
// Text written while marks are open carries those marks. Adjacent text with
// identical marks is merged into a single node.
//
// A Builder is owned by one conversion and is not safe for concurrent use.
type Builder struct {
	schema *Schema
	stack  []*Node
	marks  []Mark
	err    error
}

// NewBuilder returns a Builder with an open doc node.
func NewBuilder(schema *Schema) *Builder {
	if schema == nil {
		schema = DefaultSchema()
	}
	return &Builder{
		schema: schema,
		stack:  []*Node{New(KindDoc, nil)},
	}
}

// OpenNode starts a new child of the current node and makes it current.
func (b *Builder) OpenNode(kind Kind, attrs Attrs) {
	n := New(kind, attrs)
	b.append(n)
	b.stack = append(b.stack, n)
}

// WriteText appends text to the current node using the open marks.
func (b *Builder) WriteText(text string) {
	if text == "" {
		return
	}
	top := b.top()
	if last := lastChild(top); last != nil && last.Type == KindText && sameMarks(last.Marks, b.marks) {
		last.Text += text
		return
	}
	b.append(NewText(text, b.marks...))
}

// CloseNode finishes the current node.
func (b *Builder) CloseNode() {
	if len(b.stack) <= 1 {
		b.fail(ErrUnbalanced)
		return
	}
	b.stack = b.stack[:len(b.stack)-1]
}

// AddNode appends a complete node with the given children to the current node.
func (b *Builder) AddNode(kind Kind, attrs Attrs, children ...*Node) {
	b.append(New(kind, attrs, children...))
}

// OpenMark applies m to text written until the matching CloseMark.
func (b *Builder) OpenMark(m Mark) {
	b.marks = append(b.marks, m)
}

// CloseMark removes the innermost open mark of type t.
func (b *Builder) CloseMark(t MarkType) {
	for i := len(b.marks) - 1; i >= 0; i-- {
		if b.marks[i].Type == t {
			b.marks = append(b.marks[:i:i], b.marks[i+1:]...)
			return
		}
	}
}

// Checkpoint is a builder position that Rollback can return to.
type Checkpoint struct {
	stack    []*Node
	children int
	marks    int
	err      error
}

// Depth returns the builder depth at the checkpoint.
func (cp Checkpoint) Depth() int {
	return len(cp.stack) - 1
}

// Checkpoint records the current position.
func (b *Builder) Checkpoint() Checkpoint {
	return Checkpoint{
		stack:    append([]*Node(nil), b.stack...),
		children: len(b.top().Content),
		marks:    len(b.marks),
		err:      b.err,
	}
}

// Rollback discards every node, mark and error recorded since cp was taken.
// Text merged into a node that existed at cp is not undone, so checkpoints
// are only meaningful at block boundaries.
func (b *Builder) Rollback(cp Checkpoint) {
	b.stack = append(b.stack[:0], cp.stack...)
	top := b.top()
	for i := cp.children; i < len(top.Content); i++ {
		top.Content[i] = nil
	}
	top.Content = top.Content[:cp.children]
	if cp.marks < len(b.marks) {
		b.marks = b.marks[:cp.marks]
	}
	b.err = cp.err
}

// Since returns the node that was current at cp and the children appended
// to it after cp was taken.
func (b *Builder) Since(cp Checkpoint) (*Node, []*Node) {
	parent := cp.stack[len(cp.stack)-1]
	if cp.children >= len(parent.Content) {
		return parent, nil
	}
	return parent, parent.Content[cp.children:]
}

// Depth returns the number of open nodes below the doc root.
func (b *Builder) Depth() int {
	return len(b.stack) - 1
}

// Doc closes any nodes still open and returns the validated document.
func (b *Builder) Doc() (*Node, error) {
	if b.err != nil {
		return nil, b.err
	}
	root := b.stack[0]
	b.stack = b.stack[:1]
	if err := b.schema.Validate(root); err != nil {
		return nil, fmt.Errorf("validating document: %w", err)
	}
	return root, nil
}

func (b *Builder) top() *Node {
	return b.stack[len(b.stack)-1]
}

func (b *Builder) append(n *Node) {
	top := b.top()
	top.Content = append(top.Content, n)
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func lastChild(n *Node) *Node {
	if len(n.Content) == 0 {
		return nil
	}
	return n.Content[len(n.Content)-1]
}
