package command

import (
	"fmt"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/dshills/inkstorm/internal/dom"
	"github.com/dshills/inkstorm/internal/engine"
	"github.com/dshills/inkstorm/internal/engine/selection"
)

// Inline formatting vocabularies. The first tag of each set is written
// when applying the format; the rest are recognized when toggling off.
var (
	boldTags      = tagSet("b", "strong")
	italicTags    = tagSet("i", "em")
	underlineTags = tagSet("u")
	strikeTags    = tagSet("s", "strike", "del")
	codeTags      = tagSet("code")
	linkTags      = tagSet("a")

	// clearTags is every inline wrapper format.clear strips. Links are
	// kept; link.remove handles those.
	clearTags = tagSet("b", "strong", "i", "em", "u", "s", "strike", "del",
		"code", "sub", "sup", "span", "font", "mark")
)

func tagSet(tags ...string) map[string]bool {
	set := make(map[string]bool, len(tags))
	for _, t := range tags {
		set[t] = true
	}
	return set
}

func bold(e *engine.Engine, _ Args) error      { return toggleInline(e, "b", boldTags) }
func italic(e *engine.Engine, _ Args) error    { return toggleInline(e, "i", italicTags) }
func underline(e *engine.Engine, _ Args) error { return toggleInline(e, "u", underlineTags) }
func strike(e *engine.Engine, _ Args) error    { return toggleInline(e, "s", strikeTags) }
func code(e *engine.Engine, _ Args) error      { return toggleInline(e, "code", codeTags) }

// toggleInline applies the wrap tag to every selected text span, or
// removes the matching wrappers when the whole selection already carries
// the format. A mixed selection is formatted, matching platform toggles.
func toggleInline(e *engine.Engine, wrap string, match map[string]bool) error {
	return e.Edit(func(d *dom.Document, b *selection.Bridge) error {
		start, end, ok := liveRange(d, b)
		if !ok {
			return ErrNoSelection
		}
		segs := segmentsBetween(d.Root(), start, end)
		if len(segs) == 0 {
			return ErrNoSelection
		}
		all := true
		for _, seg := range segs {
			if formatAncestor(d.Root(), seg.leaf, match) == nil {
				all = false
				break
			}
		}
		if all {
			selStart, selEnd, err := stripWrappers(d, segs, match)
			if err != nil {
				return err
			}
			return b.Select(selStart, selEnd)
		}
		var selStart, selEnd selection.Position
		for _, seg := range segs {
			if formatAncestor(d.Root(), seg.leaf, match) != nil {
				// Already carries the format.
				if selStart.Node == nil {
					selStart = selection.Position{Node: seg.leaf, Offset: seg.from}
				}
				selEnd = selection.Position{Node: seg.leaf, Offset: seg.to}
				continue
			}
			mid, err := wrapSegment(d, seg, dom.NewElement(wrap))
			if err != nil {
				return err
			}
			if selStart.Node == nil {
				selStart = selection.Position{Node: mid}
			}
			selEnd = selection.Position{Node: mid, Offset: mid.Len()}
		}
		return b.Select(selStart, selEnd)
	})
}

// clearFormat strips every inline wrapper from the selection.
func clearFormat(e *engine.Engine, _ Args) error {
	return e.Edit(func(d *dom.Document, b *selection.Bridge) error {
		start, end, ok := liveRange(d, b)
		if !ok {
			return ErrNoSelection
		}
		segs := segmentsBetween(d.Root(), start, end)
		if len(segs) == 0 {
			return ErrNoSelection
		}
		selStart, selEnd, err := stripWrappers(d, segs, clearTags)
		if err != nil {
			return err
		}
		return b.Select(selStart, selEnd)
	})
}

// colorText wraps each selected span in a color span. Unlike the toggle
// commands it always applies; recoloring nests a fresh innermost span,
// which is the one the cascade resolves.
func colorText(e *engine.Engine, args Args) error {
	hex, err := normalizeColor(args.Color)
	if err != nil {
		return err
	}
	return wrapEach(e, func(d *dom.Document) (*dom.Element, error) {
		span := dom.NewElement("span")
		if err := d.SetAttr(span, "style", "color: "+hex); err != nil {
			return nil, err
		}
		return span, nil
	})
}

// wrapEach wraps every selected text span in a fresh element from build,
// then selects across the wrapped spans.
func wrapEach(e *engine.Engine, build func(d *dom.Document) (*dom.Element, error)) error {
	return e.Edit(func(d *dom.Document, b *selection.Bridge) error {
		start, end, ok := liveRange(d, b)
		if !ok {
			return ErrNoSelection
		}
		segs := segmentsBetween(d.Root(), start, end)
		if len(segs) == 0 {
			return ErrNoSelection
		}
		var selStart, selEnd selection.Position
		for _, seg := range segs {
			wrapper, err := build(d)
			if err != nil {
				return err
			}
			mid, err := wrapSegment(d, seg, wrapper)
			if err != nil {
				return err
			}
			if selStart.Node == nil {
				selStart = selection.Position{Node: mid}
			}
			selEnd = selection.Position{Node: mid, Offset: mid.Len()}
		}
		return b.Select(selStart, selEnd)
	})
}

// createLink wraps the selection in an anchor. Links already inside the
// selection are removed first so anchors never nest. With a caret and a
// Text argument, a fresh linked run is inserted instead.
func createLink(e *engine.Engine, args Args) error {
	url := strings.TrimSpace(args.URL)
	if url == "" {
		return fmt.Errorf("%w: link needs a url", ErrBadArgument)
	}
	return e.Edit(func(d *dom.Document, b *selection.Bridge) error {
		start, end, ok := liveRange(d, b)
		if !ok {
			return ErrNoSelection
		}
		segs := segmentsBetween(d.Root(), start, end)
		if len(segs) == 0 {
			if args.Text == "" {
				return ErrNoSelection
			}
			leaf := dom.NewText(args.Text)
			a := dom.NewElement("a", leaf)
			if err := d.SetAttr(a, "href", url); err != nil {
				return err
			}
			if err := insertNodeAt(d, start, a); err != nil {
				return err
			}
			return b.Select(
				selection.Position{Node: leaf},
				selection.Position{Node: leaf, Offset: leaf.Len()},
			)
		}
		var selStart, selEnd selection.Position
		for _, seg := range segs {
			mid, err := isolate(d, seg)
			if err != nil {
				return err
			}
			for anc := formatAncestor(d.Root(), mid, linkTags); anc != nil; anc = formatAncestor(d.Root(), mid, linkTags) {
				if err := liftOut(d, mid, anc); err != nil {
					return err
				}
			}
			a := dom.NewElement("a")
			if err := d.SetAttr(a, "href", url); err != nil {
				return err
			}
			if err := d.ReplaceWith(mid, a); err != nil {
				return err
			}
			if err := d.AppendChild(a, mid); err != nil {
				return err
			}
			if selStart.Node == nil {
				selStart = selection.Position{Node: mid}
			}
			selEnd = selection.Position{Node: mid, Offset: mid.Len()}
		}
		return b.Select(selStart, selEnd)
	})
}

// unlink removes anchors from the selection, keeping their text. A
// partially selected anchor is split and only the selected part loses
// the link.
func unlink(e *engine.Engine, _ Args) error {
	return e.Edit(func(d *dom.Document, b *selection.Bridge) error {
		start, end, ok := liveRange(d, b)
		if !ok {
			return ErrNoSelection
		}
		segs := segmentsBetween(d.Root(), start, end)
		if len(segs) == 0 {
			return ErrNoSelection
		}
		selStart, selEnd, err := stripWrappers(d, segs, linkTags)
		if err != nil {
			return err
		}
		return b.Select(selStart, selEnd)
	})
}

// normalizeColor canonicalizes a color argument to lowercase #rrggbb.
// Hex and rgb(r, g, b) forms are accepted.
func normalizeColor(value string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	switch {
	case strings.HasPrefix(v, "#"):
		c, err := colorful.Hex(v)
		if err != nil {
			return "", fmt.Errorf("%w: color %q", ErrBadArgument, value)
		}
		return c.Hex(), nil
	case strings.HasPrefix(v, "rgb(") && strings.HasSuffix(v, ")"):
		var r, g, b int
		if _, err := fmt.Sscanf(v, "rgb(%d,%d,%d)", &r, &g, &b); err != nil {
			return "", fmt.Errorf("%w: color %q", ErrBadArgument, value)
		}
		c := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
		return c.Clamped().Hex(), nil
	}
	return "", fmt.Errorf("%w: color %q", ErrBadArgument, value)
}
