package command

import (
	"fmt"

	"github.com/dshills/inkstorm/internal/dom"
	"github.com/dshills/inkstorm/internal/engine"
	"github.com/dshills/inkstorm/internal/engine/selection"
)

// listTags are the list container tags block commands step around.
var listTags = tagSet("ul", "ol")

func heading(e *engine.Engine, args Args) error {
	if args.Level < 1 || args.Level > 6 {
		return fmt.Errorf("%w: heading level %d", ErrBadArgument, args.Level)
	}
	return formatBlocks(e, fmt.Sprintf("h%d", args.Level))
}

func paragraph(e *engine.Engine, _ Args) error  { return formatBlocks(e, "p") }
func blockquote(e *engine.Engine, _ Args) error { return formatBlocks(e, "blockquote") }

// formatBlocks rewrites every top-level block the selection touches to
// the given tag. Bare text at the root is wrapped; list containers and
// rules are stepped over, since the list commands own those.
func formatBlocks(e *engine.Engine, tag string) error {
	return e.Edit(func(d *dom.Document, b *selection.Bridge) error {
		start, end, ok := liveRange(d, b)
		if !ok {
			return ErrNoSelection
		}
		root := d.Root()
		i0, i1, ok := blockSpan(root, start, end)
		if !ok {
			return ErrNoSelection
		}
		for i := i0; i <= i1; i++ {
			switch n := root.ChildAt(i).(type) {
			case *dom.Text:
				repl := dom.NewElement(tag)
				if err := d.ReplaceWith(n, repl); err != nil {
					return err
				}
				if err := d.AppendChild(repl, n); err != nil {
					return err
				}
			case *dom.Element:
				if n.Tag() == tag || listTags[n.Tag()] || n.Tag() == "hr" {
					continue
				}
				repl := dom.NewElement(tag)
				for _, c := range n.Children() {
					if err := d.AppendChild(repl, c); err != nil {
						return err
					}
				}
				if err := d.ReplaceWith(n, repl); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func orderedList(e *engine.Engine, _ Args) error   { return applyList(e, "ol") }
func unorderedList(e *engine.Engine, _ Args) error { return applyList(e, "ul") }

// applyList converts the touched blocks into one list of the given kind.
// When the selection starts inside a list of that kind, the list unwraps
// back to paragraphs; a list of the other kind is converted in place.
func applyList(e *engine.Engine, kind string) error {
	return e.Edit(func(d *dom.Document, b *selection.Bridge) error {
		start, end, ok := liveRange(d, b)
		if !ok {
			return ErrNoSelection
		}
		root := d.Root()
		i0, i1, ok := blockSpan(root, start, end)
		if !ok {
			return ErrNoSelection
		}
		if anchor, isEl := root.ChildAt(i0).(*dom.Element); isEl && listTags[anchor.Tag()] {
			if anchor.Tag() == kind {
				return unwrapList(d, anchor)
			}
			return convertList(d, anchor, kind)
		}
		list := dom.NewElement(kind)
		blocks := make([]dom.Node, 0, i1-i0+1)
		for i := i0; i <= i1; i++ {
			blocks = append(blocks, root.ChildAt(i))
		}
		if err := d.InsertChild(root, i0, list); err != nil {
			return err
		}
		for _, block := range blocks {
			var li *dom.Element
			switch n := block.(type) {
			case *dom.Text:
				li = dom.NewElement("li")
				if err := d.AppendChild(li, n); err != nil {
					return err
				}
			case *dom.Element:
				if listTags[n.Tag()] || n.Tag() == "hr" {
					continue
				}
				li = dom.NewElement("li")
				for _, c := range n.Children() {
					if err := d.AppendChild(li, c); err != nil {
						return err
					}
				}
				if err := d.RemoveNode(n); err != nil {
					return err
				}
			}
			if li == nil {
				continue
			}
			if err := d.AppendChild(list, li); err != nil {
				return err
			}
		}
		return nil
	})
}

// unwrapList dissolves a list container into paragraph blocks, one per
// item, in the list's place.
func unwrapList(d *dom.Document, list *dom.Element) error {
	parent, ok := list.Parent().(*dom.Element)
	if !ok {
		return dom.ErrNotChild
	}
	idx := parent.IndexOf(list)
	if idx < 0 {
		return dom.ErrNotChild
	}
	items := list.Children()
	if err := d.RemoveNode(list); err != nil {
		return err
	}
	for _, item := range items {
		p := dom.NewElement("p")
		if li, isLi := item.(*dom.Element); isLi && li.Tag() == "li" {
			for _, c := range li.Children() {
				if err := d.AppendChild(p, c); err != nil {
					return err
				}
			}
		} else if err := d.AppendChild(p, item); err != nil {
			return err
		}
		if err := d.InsertChild(parent, idx, p); err != nil {
			return err
		}
		idx++
	}
	return nil
}

// convertList swaps a list container's kind in place, keeping the items.
func convertList(d *dom.Document, list *dom.Element, kind string) error {
	repl := dom.NewElement(kind)
	for _, c := range list.Children() {
		if err := d.AppendChild(repl, c); err != nil {
			return err
		}
	}
	return d.ReplaceWith(list, repl)
}

// insertRule inserts a horizontal rule after the block holding the
// selection start, or at the end of the document without a selection.
func insertRule(e *engine.Engine, _ Args) error {
	return e.Edit(func(d *dom.Document, b *selection.Bridge) error {
		root := d.Root()
		hr := dom.NewElement("hr")
		live, ok := b.Live()
		if !ok {
			return d.AppendChild(root, hr)
		}
		start, _ := live.Ordered(root)
		if start.Node == dom.Node(root) {
			return d.InsertChild(root, start.Offset, hr)
		}
		block := blockOf(root, start.Node)
		if block == nil {
			return d.AppendChild(root, hr)
		}
		return d.InsertAfter(block, hr)
	})
}
