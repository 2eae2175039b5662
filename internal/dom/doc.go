// Package dom implements the document tree for the Inkstorm editor.
//
// A document is an ordered, rooted tree with exactly two node kinds:
// elements, which carry a tag plus ordered attributes and children, and
// text leaves, which carry string content. The tree is the single mutable
// surface everything else in the editor addresses into; all mutation runs
// through Document methods so that registered observers see every change.
//
// # Nodes
//
// Node is a closed interface: *Element and *Text are the only
// implementations. Consumers dispatch with a type switch:
//
//	switch n := node.(type) {
//	case *dom.Element:
//		// n.Tag(), n.ChildAt(i), ...
//	case *dom.Text:
//		// n.Data()
//	}
//
// # Mutation and observation
//
// Document owns the mutation surface (InsertChild, RemoveNode, SetText,
// SetAttr, ReplaceChildren, ...). Each mutation that touches the attached
// tree bumps the document version and synchronously notifies observers.
// Mutating a detached subtree through the same methods is permitted and
// invisible to observers, mirroring how a platform mutation observer only
// reports changes under its observation root.
//
// # HTML interop
//
// ParseFragment and the Document HTML/SetHTML methods convert between the
// tree and serialized HTML using golang.org/x/net/html, so escaping and
// void-element rules follow the platform parser.
package dom
