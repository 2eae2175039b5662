package selection

import (
	"github.com/dshills/inkstorm/internal/dom"
	"github.com/dshills/inkstorm/internal/engine/path"
)

// Position is one live selection endpoint: a document node plus an offset
// within it. Offsets count runes in a text leaf and children in an element,
// valid in [0, Node.Len()].
type Position struct {
	Node   dom.Node
	Offset int
}

// Valid reports whether the position references a node and an in-range
// offset.
func (p Position) Valid() bool {
	return p.Node != nil && p.Offset >= 0 && p.Offset <= p.Node.Len()
}

// Selection is the live selection state: zero or one contiguous range.
// Anchor is where selecting began; Focus is the caret side. A collapsed
// selection (anchor == focus) is a bare caret.
type Selection struct {
	Anchor Position
	Focus  Position
}

// Collapsed reports whether the selection is a bare caret.
func (s Selection) Collapsed() bool {
	return s.Anchor.Node == s.Focus.Node && s.Anchor.Offset == s.Focus.Offset
}

// Ordered returns the selection's endpoints in document order relative to
// root: start first, end second. A backward selection (focus before
// anchor) is flipped; a collapsed one returns both endpoints unchanged.
func (s Selection) Ordered(root dom.Node) (start, end Position) {
	if Compare(s.Anchor, s.Focus, root) <= 0 {
		return s.Anchor, s.Focus
	}
	return s.Focus, s.Anchor
}

// Compare orders two positions in document order under root: -1 when a
// precedes b, 0 when equal, +1 when a follows b. Positions outside root
// compare as equal to everything; callers guard with path.Encode first
// when that matters.
func Compare(a, b Position, root dom.Node) int {
	ap := boundary(a, root)
	bp := boundary(b, root)
	if ap == nil || bp == nil {
		return 0
	}
	for i := 0; i < len(ap) && i < len(bp); i++ {
		switch {
		case ap[i] < bp[i]:
			return -1
		case ap[i] > bp[i]:
			return 1
		}
	}
	switch {
	case len(ap) < len(bp):
		return -1
	case len(ap) > len(bp):
		return 1
	}
	return 0
}

// boundary converts a position into a comparable index path: the node's
// structural address with the offset appended as a final step. Inside a
// text leaf the offset orders against sibling gaps exactly like a child
// index would.
func boundary(p Position, root dom.Node) []int {
	enc, ok := path.Encode(p.Node, root)
	if !ok {
		return nil
	}
	return append(enc, p.Offset)
}
