package dom

import (
	"strings"
	"unicode/utf8"
)

// NodeKind discriminates the node kinds in a document tree.
type NodeKind int

const (
	// KindElement is an element node with a tag, attributes, and children.
	KindElement NodeKind = iota
	// KindText is a text leaf holding string content.
	KindText
)

// String returns a human-readable kind name.
func (k NodeKind) String() string {
	switch k {
	case KindElement:
		return "element"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// Node is a single node in the document tree.
// The implementation set is closed: *Element and *Text.
type Node interface {
	// Kind reports whether the node is an element or a text leaf.
	Kind() NodeKind

	// Parent returns the parent node, or nil for a detached node or the root.
	Parent() Node

	// Len returns the addressable unit count of the node: the child count
	// for elements, the rune count for text leaves. Offsets into a node are
	// valid in the range [0, Len()].
	Len() int

	setParent(Node)
}

// Attribute is a single key/value attribute on an element.
// Attribute order is preserved through parse and render.
type Attribute struct {
	Key string
	Val string
}

// Element is an element node with ordered children.
type Element struct {
	tag      string
	attrs    []Attribute
	children []Node
	parent   Node
}

// NewElement creates a detached element with the given tag and children.
// The children are reparented to the new element; attach the result to a
// document with Document.InsertChild or similar.
func NewElement(tag string, children ...Node) *Element {
	e := &Element{tag: strings.ToLower(tag)}
	for _, c := range children {
		if c == nil {
			continue
		}
		c.setParent(e)
		e.children = append(e.children, c)
	}
	return e
}

// Kind returns KindElement.
func (e *Element) Kind() NodeKind { return KindElement }

// Parent returns the element's parent node.
func (e *Element) Parent() Node { return e.parent }

// Len returns the number of children.
func (e *Element) Len() int { return len(e.children) }

func (e *Element) setParent(p Node) { e.parent = p }

// Tag returns the element's lower-cased tag name.
func (e *Element) Tag() string { return e.tag }

// ChildCount returns the number of children.
func (e *Element) ChildCount() int { return len(e.children) }

// ChildAt returns the child at index i, or nil if i is out of range.
func (e *Element) ChildAt(i int) Node {
	if i < 0 || i >= len(e.children) {
		return nil
	}
	return e.children[i]
}

// Children returns a copy of the child list.
func (e *Element) Children() []Node {
	out := make([]Node, len(e.children))
	copy(out, e.children)
	return out
}

// IndexOf returns the index of child among e's children, or -1 if child is
// not a direct child of e.
func (e *Element) IndexOf(child Node) int {
	for i, c := range e.children {
		if c == child {
			return i
		}
	}
	return -1
}

// CloneShallow returns a detached element with the same tag and
// attributes and no children.
func (e *Element) CloneShallow() *Element {
	c := &Element{tag: e.tag}
	c.attrs = append(c.attrs, e.attrs...)
	return c
}

// Attr returns the value of the named attribute and whether it is present.
func (e *Element) Attr(key string) (string, bool) {
	key = strings.ToLower(key)
	for _, a := range e.attrs {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// Attrs returns a copy of the element's attributes in document order.
func (e *Element) Attrs() []Attribute {
	out := make([]Attribute, len(e.attrs))
	copy(out, e.attrs)
	return out
}

// setAttr sets or replaces an attribute, preserving first-set order.
func (e *Element) setAttr(key, val string) {
	key = strings.ToLower(key)
	for i, a := range e.attrs {
		if a.Key == key {
			e.attrs[i].Val = val
			return
		}
	}
	e.attrs = append(e.attrs, Attribute{Key: key, Val: val})
}

// removeAttr removes an attribute. Returns true if it was present.
func (e *Element) removeAttr(key string) bool {
	key = strings.ToLower(key)
	for i, a := range e.attrs {
		if a.Key == key {
			e.attrs = append(e.attrs[:i], e.attrs[i+1:]...)
			return true
		}
	}
	return false
}

// Text is a text leaf node.
type Text struct {
	data   string
	parent Node
}

// NewText creates a detached text leaf with the given content.
func NewText(data string) *Text {
	return &Text{data: data}
}

// Kind returns KindText.
func (t *Text) Kind() NodeKind { return KindText }

// Parent returns the leaf's parent node.
func (t *Text) Parent() Node { return t.parent }

// Len returns the rune count of the leaf's content.
func (t *Text) Len() int { return utf8.RuneCountInString(t.data) }

func (t *Text) setParent(p Node) { t.parent = p }

// Data returns the leaf's content.
func (t *Text) Data() string { return t.data }

// Contains reports whether inner is node or a descendant of node.
func Contains(node, inner Node) bool {
	for n := inner; n != nil; n = n.Parent() {
		if n == node {
			return true
		}
	}
	return false
}

// CommonAncestor returns the deepest node that contains both a and b,
// or nil if the nodes are in disjoint trees.
func CommonAncestor(a, b Node) Node {
	for n := a; n != nil; n = n.Parent() {
		if Contains(n, b) {
			return n
		}
	}
	return nil
}
