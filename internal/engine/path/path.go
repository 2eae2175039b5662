package path

import (
	"strconv"
	"strings"

	"github.com/dshills/inkstorm/internal/dom"
)

// Path is a structural address: the child index to descend at each tree
// level, starting from a fixed root. The empty path addresses the root
// itself.
type Path []int

// Encode walks from node up to root and records the child index at every
// level. It returns false when node is not a descendant of root (or either
// argument is nil); that is an expected outcome for positions outside the
// editor, not a fault.
func Encode(node, root dom.Node) (Path, bool) {
	if node == nil || root == nil {
		return nil, false
	}
	var rev []int
	for n := node; n != root; {
		parent, ok := n.Parent().(*dom.Element)
		if !ok || parent == nil {
			return nil, false
		}
		idx := parent.IndexOf(n)
		if idx < 0 {
			return nil, false
		}
		rev = append(rev, idx)
		n = parent
	}
	out := make(Path, len(rev))
	for i, idx := range rev {
		out[len(rev)-1-i] = idx
	}
	return out, true
}

// Decode walks down from root selecting the recorded child at each level.
// It returns false as soon as an index does not resolve: the step lands on
// a text leaf with path left to walk, or the index is out of range for the
// current element. Both are the expected result of decoding against a tree
// that has been mutated since the path was encoded.
func Decode(p Path, root dom.Node) (dom.Node, bool) {
	if root == nil {
		return nil, false
	}
	n := root
	for _, idx := range p {
		e, ok := n.(*dom.Element)
		if !ok {
			return nil, false
		}
		c := e.ChildAt(idx)
		if c == nil {
			return nil, false
		}
		n = c
	}
	return n, true
}

// Clone returns an independent copy of the path.
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// Equal reports whether two paths address the same structural position.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// String renders the path as a slash-joined index list, e.g. "0/2/1".
// The empty path renders as "/".
func (p Path) String() string {
	if len(p) == 0 {
		return "/"
	}
	parts := make([]string, len(p))
	for i, idx := range p {
		parts[i] = strconv.Itoa(idx)
	}
	return strings.Join(parts, "/")
}
