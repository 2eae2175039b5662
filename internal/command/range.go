package command

import (
	"strings"
	"unicode/utf8"

	"github.com/dshills/inkstorm/internal/dom"
	"github.com/dshills/inkstorm/internal/engine/selection"
)

// segment is one contiguous rune span inside a text leaf, addressed by
// the half-open range [from, to).
type segment struct {
	leaf *dom.Text
	from int
	to   int
}

// liveRange returns the live selection's endpoints in document order.
func liveRange(d *dom.Document, b *selection.Bridge) (start, end selection.Position, ok bool) {
	live, has := b.Live()
	if !has {
		return start, end, false
	}
	start, end = live.Ordered(d.Root())
	return start, end, true
}

// segmentsBetween collects the text spans the ordered range covers, in
// document order. Element-offset endpoints clamp naturally: a leaf
// strictly inside the range contributes its full content, and a leaf
// holding an endpoint contributes up to that endpoint's offset.
func segmentsBetween(root *dom.Element, start, end selection.Position) []segment {
	var segs []segment
	var walk func(n dom.Node)
	walk = func(n dom.Node) {
		switch n := n.(type) {
		case *dom.Text:
			if n.Len() == 0 {
				return
			}
			leafStart := selection.Position{Node: n, Offset: 0}
			leafEnd := selection.Position{Node: n, Offset: n.Len()}
			if selection.Compare(leafEnd, start, root) <= 0 || selection.Compare(leafStart, end, root) >= 0 {
				return
			}
			from, to := 0, n.Len()
			if start.Node == dom.Node(n) {
				from = start.Offset
			}
			if end.Node == dom.Node(n) {
				to = end.Offset
			}
			if to > from {
				segs = append(segs, segment{leaf: n, from: from, to: to})
			}
		case *dom.Element:
			for _, c := range n.Children() {
				walk(c)
			}
		}
	}
	for _, c := range root.Children() {
		walk(c)
	}
	return segs
}

// isolate splits the segment's leaf so the addressed span stands alone
// as its own leaf, and returns that leaf.
func isolate(d *dom.Document, seg segment) (*dom.Text, error) {
	mid := seg.leaf
	if seg.from > 0 {
		rest, err := d.SplitText(mid, seg.from)
		if err != nil {
			return nil, err
		}
		mid = rest
	}
	if span := seg.to - seg.from; span < mid.Len() {
		if _, err := d.SplitText(mid, span); err != nil {
			return nil, err
		}
	}
	return mid, nil
}

// wrapSegment isolates the segment and wraps the resulting leaf in
// wrapper, which takes the leaf's place in the tree.
func wrapSegment(d *dom.Document, seg segment, wrapper *dom.Element) (*dom.Text, error) {
	mid, err := isolate(d, seg)
	if err != nil {
		return nil, err
	}
	if err := d.ReplaceWith(mid, wrapper); err != nil {
		return nil, err
	}
	if err := d.AppendChild(wrapper, mid); err != nil {
		return nil, err
	}
	return mid, nil
}

// splitAround hoists child out of parent to parent's own level. Siblings
// before the child move into a fresh clone of parent so they keep its
// formatting; an emptied parent is removed.
func splitAround(d *dom.Document, parent *dom.Element, child dom.Node) error {
	idx := parent.IndexOf(child)
	if idx < 0 {
		return dom.ErrNotChild
	}
	children := parent.Children()
	pre := children[:idx]
	post := children[idx+1:]
	if len(pre) > 0 {
		clone := parent.CloneShallow()
		if err := d.InsertBefore(parent, clone); err != nil {
			return err
		}
		for _, c := range pre {
			if err := d.AppendChild(clone, c); err != nil {
				return err
			}
		}
	}
	if err := d.InsertBefore(parent, child); err != nil {
		return err
	}
	if len(post) == 0 {
		return d.RemoveNode(parent)
	}
	return nil
}

// liftOut hoists leaf out of anc. Every wrapper between the two is split
// around the leaf, and the leaf is re-wrapped in clones of the
// intermediate wrappers so it loses only anc's formatting.
func liftOut(d *dom.Document, leaf dom.Node, anc *dom.Element) error {
	var carrier dom.Node = leaf
	for {
		parent, ok := carrier.Parent().(*dom.Element)
		if !ok {
			return dom.ErrNotChild
		}
		last := parent == anc
		if err := splitAround(d, parent, carrier); err != nil {
			return err
		}
		if last {
			return nil
		}
		wrapper := parent.CloneShallow()
		if err := d.ReplaceWith(carrier, wrapper); err != nil {
			return err
		}
		if err := d.AppendChild(wrapper, carrier); err != nil {
			return err
		}
		carrier = wrapper
	}
}

// stripWrappers removes every matching wrapper from each segment,
// isolating the spans first, and returns the span endpoints for
// reselection. Segments with no matching wrapper are left untouched.
func stripWrappers(d *dom.Document, segs []segment, match map[string]bool) (selStart, selEnd selection.Position, err error) {
	record := func(n dom.Node, from, to int) {
		if selStart.Node == nil {
			selStart = selection.Position{Node: n, Offset: from}
		}
		selEnd = selection.Position{Node: n, Offset: to}
	}
	for _, seg := range segs {
		if formatAncestor(d.Root(), seg.leaf, match) == nil {
			record(seg.leaf, seg.from, seg.to)
			continue
		}
		mid, ierr := isolate(d, seg)
		if ierr != nil {
			return selStart, selEnd, ierr
		}
		for anc := formatAncestor(d.Root(), mid, match); anc != nil; anc = formatAncestor(d.Root(), mid, match) {
			if lerr := liftOut(d, mid, anc); lerr != nil {
				return selStart, selEnd, lerr
			}
		}
		record(mid, 0, mid.Len())
	}
	return selStart, selEnd, nil
}

// formatAncestor returns the nearest ancestor of n, strictly below root,
// whose tag is in match.
func formatAncestor(root *dom.Element, n dom.Node, match map[string]bool) *dom.Element {
	for cur := n.Parent(); cur != nil && cur != dom.Node(root); cur = cur.Parent() {
		if e, ok := cur.(*dom.Element); ok && match[e.Tag()] {
			return e
		}
	}
	return nil
}

// deleteRange removes the text the ordered range covers and returns the
// caret position where the range collapsed. Elements are kept even when
// all their text is deleted; only text leaves are removed.
func deleteRange(d *dom.Document, start, end selection.Position) (selection.Position, error) {
	segs := segmentsBetween(d.Root(), start, end)
	caret := start
	for i, seg := range segs {
		if seg.from == 0 && seg.to == seg.leaf.Len() {
			if i == 0 {
				if parent, ok := seg.leaf.Parent().(*dom.Element); ok {
					caret = selection.Position{Node: parent, Offset: parent.IndexOf(seg.leaf)}
				}
			}
			if err := d.RemoveNode(seg.leaf); err != nil {
				return caret, err
			}
			continue
		}
		runes := []rune(seg.leaf.Data())
		if err := d.SetText(seg.leaf, string(runes[:seg.from])+string(runes[seg.to:])); err != nil {
			return caret, err
		}
		if i == 0 {
			caret = selection.Position{Node: seg.leaf, Offset: seg.from}
		}
	}
	if caret.Node != nil && caret.Offset > caret.Node.Len() {
		caret.Offset = caret.Node.Len()
	}
	return caret, nil
}

// insertTextAt splices text in at the given position and returns the
// caret position after the inserted text. Element-offset positions merge
// into an adjacent text leaf when one borders the gap.
func insertTextAt(d *dom.Document, pos selection.Position, text string) (selection.Position, error) {
	switch n := pos.Node.(type) {
	case *dom.Text:
		runes := []rune(n.Data())
		if pos.Offset < 0 || pos.Offset > len(runes) {
			return pos, dom.ErrOffsetRange
		}
		data := string(runes[:pos.Offset]) + text + string(runes[pos.Offset:])
		if err := d.SetText(n, data); err != nil {
			return pos, err
		}
		return selection.Position{Node: n, Offset: pos.Offset + utf8.RuneCountInString(text)}, nil
	case *dom.Element:
		if pos.Offset < 0 || pos.Offset > n.Len() {
			return pos, dom.ErrOffsetRange
		}
		if pos.Offset > 0 {
			if prev, ok := n.ChildAt(pos.Offset - 1).(*dom.Text); ok {
				return insertTextAt(d, selection.Position{Node: prev, Offset: prev.Len()}, text)
			}
		}
		if next, ok := n.ChildAt(pos.Offset).(*dom.Text); ok {
			return insertTextAt(d, selection.Position{Node: next, Offset: 0}, text)
		}
		leaf := dom.NewText(text)
		if err := d.InsertChild(n, pos.Offset, leaf); err != nil {
			return pos, err
		}
		return selection.Position{Node: leaf, Offset: leaf.Len()}, nil
	}
	return pos, dom.ErrNilNode
}

// insertNodeAt inserts node at the given position, splitting a text leaf
// when the position falls strictly inside one.
func insertNodeAt(d *dom.Document, pos selection.Position, node dom.Node) error {
	switch n := pos.Node.(type) {
	case *dom.Element:
		return d.InsertChild(n, pos.Offset, node)
	case *dom.Text:
		switch {
		case pos.Offset <= 0:
			return d.InsertBefore(n, node)
		case pos.Offset >= n.Len():
			return d.InsertAfter(n, node)
		default:
			rest, err := d.SplitText(n, pos.Offset)
			if err != nil {
				return err
			}
			return d.InsertBefore(rest, node)
		}
	}
	return dom.ErrNilNode
}

// blockOf returns the top-level child of root containing n, or nil when
// n is the root itself or detached.
func blockOf(root *dom.Element, n dom.Node) dom.Node {
	for cur := n; cur != nil; cur = cur.Parent() {
		if cur.Parent() == dom.Node(root) {
			return cur
		}
	}
	return nil
}

// blockSpan returns the inclusive top-level child index range the
// ordered range touches. A collapsed caret inside a block touches that
// one block; a caret in a root gap touches none.
func blockSpan(root *dom.Element, start, end selection.Position) (int, int, bool) {
	i0 := topIndex(root, start, false)
	i1 := topIndex(root, end, true)
	if i0 < 0 || i1 < 0 || i1 < i0 {
		return 0, 0, false
	}
	return i0, i1, true
}

// topIndex maps a position to a top-level child index: the containing
// block's index, or for root-gap positions the first block at or after
// the gap (last block before it for the end side).
func topIndex(root *dom.Element, p selection.Position, endSide bool) int {
	if p.Node == dom.Node(root) {
		if endSide {
			return p.Offset - 1
		}
		return p.Offset
	}
	block := blockOf(root, p.Node)
	if block == nil {
		return -1
	}
	return root.IndexOf(block)
}

// plainText flattens the range's covered text, separating segments from
// different top-level blocks with newlines.
func plainText(root *dom.Element, segs []segment) string {
	var sb strings.Builder
	var lastBlock dom.Node
	for i, seg := range segs {
		block := blockOf(root, seg.leaf)
		if i > 0 && block != lastBlock {
			sb.WriteByte('\n')
		}
		lastBlock = block
		runes := []rune(seg.leaf.Data())
		sb.WriteString(string(runes[seg.from:seg.to]))
	}
	return sb.String()
}
