package main

import (
	"github.com/dshills/inkstorm/internal/dom"
	"github.com/dshills/inkstorm/internal/engine/selection"
)

// walkText visits text leaves in document order. Returning false from
// fn stops the walk.
func walkText(n dom.Node, fn func(*dom.Text) bool) bool {
	switch v := n.(type) {
	case *dom.Text:
		return fn(v)
	case *dom.Element:
		for _, c := range v.Children() {
			if !walkText(c, fn) {
				return false
			}
		}
	}
	return true
}

// textLen counts content runes beneath a node.
func textLen(n dom.Node) int {
	total := 0
	walkText(n, func(t *dom.Text) bool {
		total += t.Len()
		return true
	})
	return total
}

// positionAt lands a flat rune offset on the leaf that contains it. An
// offset past the end clamps to the last leaf; a node with no text
// yields a position on the node itself.
func positionAt(n dom.Node, offset int) selection.Position {
	remaining := offset
	var pos selection.Position
	var last *dom.Text
	walkText(n, func(t *dom.Text) bool {
		last = t
		if remaining <= t.Len() {
			pos = selection.Position{Node: t, Offset: remaining}
			return false
		}
		remaining -= t.Len()
		return true
	})
	switch {
	case pos.Node != nil:
		return pos
	case last != nil:
		return selection.Position{Node: last, Offset: last.Len()}
	default:
		return selection.Position{Node: n, Offset: 0}
	}
}

// lineNode resolves a visual line back to its document node.
func lineNode(d *dom.Document, ln visline) (dom.Node, bool) {
	root := d.Root()
	if ln.block < 0 || ln.block >= root.ChildCount() {
		return nil, false
	}
	n := root.ChildAt(ln.block)
	if ln.item < 0 {
		return n, true
	}
	el, ok := n.(*dom.Element)
	if !ok || ln.item >= el.ChildCount() {
		return nil, false
	}
	return el.ChildAt(ln.item), true
}

func isListTag(tag string) bool { return tag == "ul" || tag == "ol" }

func isRule(n dom.Node) bool {
	el, ok := n.(*dom.Element)
	return ok && el.Tag() == "hr"
}

// locate maps a live position to a root child index, a list item index
// (-1 outside lists), and a flat rune offset.
func locate(root *dom.Element, pos selection.Position) (block, item, col int, ok bool) {
	if el, isRoot := pos.Node.(*dom.Element); isRoot && el == root {
		i := pos.Offset
		if i >= root.ChildCount() {
			if root.ChildCount() == 0 {
				return 0, 0, 0, false
			}
			i = root.ChildCount() - 1
			return resolveBlock(root, i, textLen(root.ChildAt(i)))
		}
		return resolveBlock(root, i, 0)
	}
	for i, child := range root.Children() {
		off, within := flatOffset(child, pos)
		if !within {
			continue
		}
		return resolveBlock(root, i, off)
	}
	return 0, 0, 0, false
}

// resolveBlock splits a block-flat offset into a list item index and an
// item-local offset where the block is a list.
func resolveBlock(root *dom.Element, i, off int) (int, int, int, bool) {
	el, ok := root.ChildAt(i).(*dom.Element)
	if !ok || !isListTag(el.Tag()) {
		return i, -1, off, true
	}
	if el.ChildCount() == 0 {
		return i, -1, 0, true
	}
	acc := off
	for j, li := range el.Children() {
		n := textLen(li)
		if acc <= n {
			return i, j, acc, true
		}
		acc -= n
	}
	last := el.ChildCount() - 1
	return i, last, textLen(el.ChildAt(last)), true
}

// flatOffset walks node's subtree and reports the rune offset of pos
// within it. False when pos lies outside the subtree.
func flatOffset(n dom.Node, pos selection.Position) (int, bool) {
	acc := 0
	found := false
	var walk func(nd dom.Node) bool
	walk = func(nd dom.Node) bool {
		if nd == pos.Node {
			switch v := nd.(type) {
			case *dom.Text:
				acc += pos.Offset
			case *dom.Element:
				for i := 0; i < pos.Offset && i < v.ChildCount(); i++ {
					acc += textLen(v.ChildAt(i))
				}
			}
			found = true
			return false
		}
		switch v := nd.(type) {
		case *dom.Text:
			acc += v.Len()
		case *dom.Element:
			for _, c := range v.Children() {
				if !walk(c) {
					return false
				}
			}
		}
		return true
	}
	walk(n)
	return acc, found
}

// topLevelIndex climbs from n to the direct child of el containing it
// and returns that child's index, or -1.
func topLevelIndex(el *dom.Element, n dom.Node) int {
	for cur := n; cur != nil; {
		p := cur.Parent()
		if p == nil {
			return -1
		}
		if pe, ok := p.(*dom.Element); ok && pe == el {
			return el.IndexOf(cur)
		}
		cur = p
	}
	return -1
}

// mergeNodes joins src into dst: src's content moves to the end of dst
// and the emptied container goes away. Deleting into a rule removes the
// rule instead. A list left without items is removed with its last one.
func mergeNodes(d *dom.Document, b *selection.Bridge, dst, src dom.Node) error {
	if isRule(dst) {
		if err := d.RemoveNode(dst); err != nil {
			return err
		}
		return b.Collapse(positionAt(src, 0))
	}
	if isRule(src) {
		if err := d.RemoveNode(src); err != nil {
			return err
		}
		return b.Collapse(positionAt(dst, textLen(dst)))
	}
	dstEl, ok := dst.(*dom.Element)
	if !ok {
		// Two bare text leaves at the root join their data.
		dt, okDst := dst.(*dom.Text)
		st, okSrc := src.(*dom.Text)
		if !okDst || !okSrc {
			return nil
		}
		joint := dt.Len()
		if err := d.SetText(dt, dt.Data()+st.Data()); err != nil {
			return err
		}
		if err := d.RemoveNode(st); err != nil {
			return err
		}
		return b.Collapse(selection.Position{Node: dt, Offset: joint})
	}
	joint := textLen(dstEl)
	switch s := src.(type) {
	case *dom.Element:
		parent := s.Parent()
		for s.ChildCount() > 0 {
			child := s.ChildAt(0)
			if err := d.RemoveNode(child); err != nil {
				return err
			}
			if err := d.AppendChild(dstEl, child); err != nil {
				return err
			}
		}
		if err := d.RemoveNode(s); err != nil {
			return err
		}
		if pe, ok := parent.(*dom.Element); ok && pe != d.Root() && pe.ChildCount() == 0 {
			if err := d.RemoveNode(pe); err != nil {
				return err
			}
		}
	case *dom.Text:
		if err := d.RemoveNode(s); err != nil {
			return err
		}
		if err := d.AppendChild(dstEl, s); err != nil {
			return err
		}
	}
	return b.Collapse(positionAt(dstEl, joint))
}

// splitNode breaks n at the flat offset, carrying the tail into a new
// sibling. List items split into items, everything else into a
// paragraph. A caret inside a formatted run breaks after the run.
func splitNode(d *dom.Document, b *selection.Bridge, n dom.Node, off int) error {
	el, ok := n.(*dom.Element)
	if !ok {
		t, isText := n.(*dom.Text)
		if !isText {
			return nil
		}
		rest, err := d.SplitText(t, min(off, t.Len()))
		if err != nil {
			return err
		}
		return b.Collapse(selection.Position{Node: rest, Offset: 0})
	}

	tag := "p"
	if el.Tag() == "li" {
		tag = "li"
	}
	next := dom.NewElement(tag)

	idx := el.ChildCount()
	pos := positionAt(el, off)
	switch v := pos.Node.(type) {
	case *dom.Text:
		if top := topLevelIndex(el, v); top >= 0 {
			direct := false
			if p, ok := v.Parent().(*dom.Element); ok && p == el {
				direct = true
			}
			switch {
			case pos.Offset == 0:
				idx = top
			case pos.Offset >= v.Len():
				idx = top + 1
			case direct:
				if _, err := d.SplitText(v, pos.Offset); err != nil {
					return err
				}
				idx = top + 1
			default:
				idx = top + 1
			}
		}
	case *dom.Element:
		if v == el {
			idx = pos.Offset
		}
	}

	for el.ChildCount() > idx {
		child := el.ChildAt(idx)
		if err := d.RemoveNode(child); err != nil {
			return err
		}
		if err := d.AppendChild(next, child); err != nil {
			return err
		}
	}
	if err := d.InsertAfter(el, next); err != nil {
		return err
	}
	return b.Collapse(positionAt(next, 0))
}
