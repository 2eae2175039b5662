package dom

// ChangeOp categorizes a document mutation.
type ChangeOp int

const (
	// OpInsert indicates a node was inserted.
	OpInsert ChangeOp = iota
	// OpRemove indicates a node was removed.
	OpRemove
	// OpText indicates a text leaf's content changed.
	OpText
	// OpAttr indicates an element attribute changed.
	OpAttr
	// OpReplace indicates a wholesale child replacement.
	OpReplace
)

// String returns a human-readable operation name.
func (op ChangeOp) String() string {
	switch op {
	case OpInsert:
		return "insert"
	case OpRemove:
		return "remove"
	case OpText:
		return "text"
	case OpAttr:
		return "attr"
	case OpReplace:
		return "replace"
	default:
		return "unknown"
	}
}

// Change describes one observed mutation of the attached tree.
type Change struct {
	// Op is the mutation category.
	Op ChangeOp

	// Target is the node the mutation applies to: the inserted or removed
	// node for OpInsert/OpRemove, the text leaf for OpText, the element for
	// OpAttr, and the parent for OpReplace.
	Target Node

	// Version is the document version after the mutation.
	Version uint64
}

// Observer receives synchronous change notifications for mutations that
// touch the attached tree. Observers must not mutate the document.
type Observer func(Change)

// Document owns one editable tree and its mutation surface.
// Document is not safe for concurrent use; the editor engine serializes
// access to it.
type Document struct {
	root      *Element
	version   uint64
	observers map[int]Observer
	nextObsID int
}

// NewDocument creates an empty document. The root is a detached-from-nothing
// container element; content lives in its children.
func NewDocument() *Document {
	return &Document{
		root:      NewElement("div"),
		observers: make(map[int]Observer),
	}
}

// Root returns the document's root container element.
func (d *Document) Root() *Element { return d.root }

// Version returns the current document version. The version increases by
// one for every observed mutation.
func (d *Document) Version() uint64 { return d.version }

// Observe registers an observer and returns a function that removes it.
func (d *Document) Observe(fn Observer) func() {
	id := d.nextObsID
	d.nextObsID++
	d.observers[id] = fn
	return func() { delete(d.observers, id) }
}

// Attached reports whether n is the root or a descendant of the root.
func (d *Document) Attached(n Node) bool {
	return n != nil && Contains(d.root, n)
}

// notify bumps the version and informs observers, but only for mutations
// visible under the root. Detached-subtree edits stay silent.
func (d *Document) notify(op ChangeOp, target Node) {
	if !d.Attached(target) && !d.Attached(target.Parent()) {
		return
	}
	d.version++
	c := Change{Op: op, Target: target, Version: d.version}
	for _, fn := range d.observers {
		fn(c)
	}
}

// InsertChild inserts child under parent at index i. A child attached
// elsewhere is detached first, as on the platform. Inserting a node into
// its own subtree fails with ErrCycle.
func (d *Document) InsertChild(parent *Element, i int, child Node) error {
	if parent == nil || child == nil {
		return ErrNilNode
	}
	if i < 0 || i > len(parent.children) {
		return ErrIndexRange
	}
	if Contains(child, parent) {
		return ErrCycle
	}
	d.detach(child)
	parent.children = append(parent.children, nil)
	copy(parent.children[i+1:], parent.children[i:])
	parent.children[i] = child
	child.setParent(parent)
	d.notify(OpInsert, child)
	return nil
}

// AppendChild inserts child as parent's last child.
func (d *Document) AppendChild(parent *Element, child Node) error {
	if parent == nil {
		return ErrNilNode
	}
	return d.InsertChild(parent, len(parent.children), child)
}

// InsertBefore inserts child immediately before ref, which must be attached
// to a parent element.
func (d *Document) InsertBefore(ref, child Node) error {
	parent, i, err := d.locate(ref)
	if err != nil {
		return err
	}
	return d.InsertChild(parent, i, child)
}

// InsertAfter inserts child immediately after ref.
func (d *Document) InsertAfter(ref, child Node) error {
	parent, i, err := d.locate(ref)
	if err != nil {
		return err
	}
	return d.InsertChild(parent, i+1, child)
}

// RemoveChild removes the child at index i under parent and returns it.
func (d *Document) RemoveChild(parent *Element, i int) (Node, error) {
	if parent == nil {
		return nil, ErrNilNode
	}
	if i < 0 || i >= len(parent.children) {
		return nil, ErrIndexRange
	}
	child := parent.children[i]
	d.notify(OpRemove, child)
	parent.children = append(parent.children[:i], parent.children[i+1:]...)
	child.setParent(nil)
	return child, nil
}

// RemoveNode detaches n from its parent. Removing an already-detached node
// is a no-op.
func (d *Document) RemoveNode(n Node) error {
	if n == nil {
		return ErrNilNode
	}
	parent, i, err := d.locate(n)
	if err != nil {
		return nil
	}
	_, err = d.RemoveChild(parent, i)
	return err
}

// ReplaceWith swaps old for n in old's parent, keeping position.
func (d *Document) ReplaceWith(old, n Node) error {
	parent, i, err := d.locate(old)
	if err != nil {
		return err
	}
	if _, err := d.RemoveChild(parent, i); err != nil {
		return err
	}
	return d.InsertChild(parent, i, n)
}

// ReplaceChildren removes every child of parent and installs the given
// children in order. This is the wholesale replacement used by content
// replacement and snapshot replay; it notifies once with OpReplace.
func (d *Document) ReplaceChildren(parent *Element, children ...Node) error {
	if parent == nil {
		return ErrNilNode
	}
	for _, c := range children {
		if c == nil {
			return ErrNilNode
		}
		if Contains(c, parent) {
			return ErrCycle
		}
	}
	for _, c := range parent.children {
		c.setParent(nil)
	}
	parent.children = parent.children[:0]
	for _, c := range children {
		d.detach(c)
		c.setParent(parent)
		parent.children = append(parent.children, c)
	}
	d.notify(OpReplace, parent)
	return nil
}

// SetText replaces the content of a text leaf.
func (d *Document) SetText(t *Text, data string) error {
	if t == nil {
		return ErrNilNode
	}
	if t.data == data {
		return nil
	}
	t.data = data
	d.notify(OpText, t)
	return nil
}

// SplitText splits t at the given rune offset. The original leaf keeps the
// runes before the offset; a new leaf holding the remainder is inserted as
// the next sibling and returned. Splitting at 0 or Len is allowed and
// produces an empty leaf on the corresponding side.
func (d *Document) SplitText(t *Text, offset int) (*Text, error) {
	if t == nil {
		return nil, ErrNilNode
	}
	if offset < 0 || offset > t.Len() {
		return nil, ErrOffsetRange
	}
	runes := []rune(t.data)
	rest := NewText(string(runes[offset:]))
	if err := d.SetText(t, string(runes[:offset])); err != nil {
		return nil, err
	}
	if t.parent != nil {
		if err := d.InsertAfter(t, rest); err != nil {
			return nil, err
		}
	}
	return rest, nil
}

// SetAttr sets or replaces an attribute on an element.
func (d *Document) SetAttr(e *Element, key, val string) error {
	if e == nil {
		return ErrNilNode
	}
	if cur, ok := e.Attr(key); ok && cur == val {
		return nil
	}
	e.setAttr(key, val)
	d.notify(OpAttr, e)
	return nil
}

// RemoveAttr removes an attribute from an element if present.
func (d *Document) RemoveAttr(e *Element, key string) error {
	if e == nil {
		return ErrNilNode
	}
	if e.removeAttr(key) {
		d.notify(OpAttr, e)
	}
	return nil
}

// locate finds n's parent element and child index.
func (d *Document) locate(n Node) (*Element, int, error) {
	if n == nil {
		return nil, 0, ErrNilNode
	}
	parent, ok := n.Parent().(*Element)
	if !ok || parent == nil {
		return nil, 0, ErrNotChild
	}
	i := parent.IndexOf(n)
	if i < 0 {
		return nil, 0, ErrNotChild
	}
	return parent, i, nil
}

// detach silently unlinks n from its current parent, if any. Used when a
// node moves; the insertion that follows carries the notification.
func (d *Document) detach(n Node) {
	parent, ok := n.Parent().(*Element)
	if !ok || parent == nil {
		return
	}
	if i := parent.IndexOf(n); i >= 0 {
		parent.children = append(parent.children[:i], parent.children[i+1:]...)
	}
	n.setParent(nil)
}
