package selection

import (
	"github.com/dshills/inkstorm/internal/dom"
	"github.com/dshills/inkstorm/internal/engine/path"
)

// Bridge owns the live selection of one editor and serializes it against
// the editor's root container. Bridge is not safe for concurrent use; the
// engine serializes access.
type Bridge struct {
	doc      *dom.Document
	live     *Selection
	onChange func()
}

// NewBridge creates a bridge for the given document with no selection.
func NewBridge(doc *dom.Document) *Bridge {
	return &Bridge{doc: doc}
}

// OnChange registers a callback fired after every selection change.
// A nil callback disables notification.
func (b *Bridge) OnChange(fn func()) {
	b.onChange = fn
}

// Live returns the current live selection, if any.
func (b *Bridge) Live() (Selection, bool) {
	if b.live == nil {
		return Selection{}, false
	}
	return *b.live, true
}

// Select installs a live selection from anchor to focus. Positions must
// reference nodes with in-range offsets; the platform rejects malformed
// boundary points and so does the bridge.
func (b *Bridge) Select(anchor, focus Position) error {
	if anchor.Node == nil || focus.Node == nil {
		return dom.ErrNilNode
	}
	if !anchor.Valid() || !focus.Valid() {
		return dom.ErrOffsetRange
	}
	b.live = &Selection{Anchor: anchor, Focus: focus}
	b.changed()
	return nil
}

// Collapse installs a caret at the given position.
func (b *Bridge) Collapse(pos Position) error {
	return b.Select(pos, pos)
}

// SelectAll selects the entire editable region: from before the first
// child of the root to after the last.
func (b *Bridge) SelectAll() error {
	root := b.doc.Root()
	return b.Select(
		Position{Node: root, Offset: 0},
		Position{Node: root, Offset: root.Len()},
	)
}

// Clear removes the live selection.
func (b *Bridge) Clear() {
	if b.live == nil {
		return
	}
	b.live = nil
	b.changed()
}

// IsWithinEditor reports whether the live selection's common ancestor lies
// under the editor root. False when there is no selection or when an
// endpoint has been detached from the tree.
func (b *Bridge) IsWithinEditor() bool {
	if b.live == nil {
		return false
	}
	ca := dom.CommonAncestor(b.live.Anchor.Node, b.live.Focus.Node)
	return ca != nil && dom.Contains(b.doc.Root(), ca)
}

// Capture serializes the live selection into structural addresses relative
// to the editor root. It returns false when there is no live selection or
// when an endpoint does not lie under the root; both are expected outcomes,
// not faults.
func (b *Bridge) Capture() (path.Range, bool) {
	if b.live == nil {
		return path.Range{}, false
	}
	anchorPath, ok := path.Encode(b.live.Anchor.Node, b.doc.Root())
	if !ok {
		return path.Range{}, false
	}
	focusPath, ok := path.Encode(b.live.Focus.Node, b.doc.Root())
	if !ok {
		return path.Range{}, false
	}
	return path.Range{
		AnchorPath:   anchorPath,
		AnchorOffset: b.live.Anchor.Offset,
		FocusPath:    focusPath,
		FocusOffset:  b.live.Focus.Offset,
	}, true
}

// Restore resolves a serialized range against the current tree and, on
// success, installs it as the live selection. If either endpoint fails to
// resolve (the usual case after content was replaced wholesale) the call
// is a no-op and returns false. Restore never mutates document content.
func (b *Bridge) Restore(r path.Range) bool {
	anchorNode, ok := path.Decode(r.AnchorPath, b.doc.Root())
	if !ok {
		return false
	}
	focusNode, ok := path.Decode(r.FocusPath, b.doc.Root())
	if !ok {
		return false
	}
	anchor := Position{Node: anchorNode, Offset: r.AnchorOffset}
	focus := Position{Node: focusNode, Offset: r.FocusOffset}
	if !anchor.Valid() || !focus.Valid() {
		// The node survived but shrank past the stored offset; selecting
		// a clamped point would silently land on the wrong text.
		return false
	}
	b.live = &Selection{Anchor: anchor, Focus: focus}
	b.changed()
	return true
}

func (b *Bridge) changed() {
	if b.onChange != nil {
		b.onChange()
	}
}
