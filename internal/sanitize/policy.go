package sanitize

import "strings"

// Policy is the allow-list a sanitizer pass enforces: which elements
// survive, which attributes they may carry, which elements are discarded
// with their entire subtree, and which attribute values get URL or style
// screening. Build a policy up front and treat it as read-only afterward;
// Sanitize never mutates it, so a built policy is safe for concurrent use.
type Policy struct {
	elems  map[string]map[string]bool
	global map[string]bool
	drop   map[string]bool
	urls   map[string]bool
	styles map[string]bool
}

// NewPolicy returns an empty policy. Sanitizing with it unwraps every
// element and keeps only text.
func NewPolicy() *Policy {
	return &Policy{
		elems:  make(map[string]map[string]bool),
		global: make(map[string]bool),
		drop:   make(map[string]bool),
		urls:   make(map[string]bool),
		styles: make(map[string]bool),
	}
}

// Allow admits an element and the attributes it may carry beyond the
// global set. Repeated calls for the same tag accumulate attributes.
func (p *Policy) Allow(tag string, attrs ...string) *Policy {
	tag = strings.ToLower(tag)
	set := p.elems[tag]
	if set == nil {
		set = make(map[string]bool)
		p.elems[tag] = set
	}
	for _, a := range attrs {
		set[strings.ToLower(a)] = true
	}
	return p
}

// AllowGlobal admits attributes on every allowed element.
func (p *Policy) AllowGlobal(attrs ...string) *Policy {
	for _, a := range attrs {
		p.global[strings.ToLower(a)] = true
	}
	return p
}

// AllowStyles admits CSS properties inside kept style attributes.
// Declarations for any other property are dropped from the value.
func (p *Policy) AllowStyles(props ...string) *Policy {
	for _, s := range props {
		p.styles[strings.ToLower(s)] = true
	}
	return p
}

// Discard removes elements together with their entire subtree instead of
// unwrapping them. Discard wins over Allow when a tag appears in both.
func (p *Policy) Discard(tags ...string) *Policy {
	for _, t := range tags {
		p.drop[strings.ToLower(t)] = true
	}
	return p
}

// CheckURL subjects the named attributes to URL scheme screening.
func (p *Policy) CheckURL(attrs ...string) *Policy {
	for _, a := range attrs {
		p.urls[strings.ToLower(a)] = true
	}
	return p
}

// Default returns the policy for editor content: the formatting
// vocabulary the toolbar commands produce, plus the attributes those
// elements need. Pasted or programmatic content collapses onto the same
// vocabulary.
func Default() *Policy {
	p := NewPolicy()
	for _, tag := range []string{
		"p", "div", "br", "hr",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"blockquote", "pre", "code",
		"b", "strong", "i", "em", "u", "s", "strike", "del", "sub", "sup",
		"span", "ul", "ol", "li",
	} {
		p.Allow(tag)
	}
	p.Allow("a", "href", "title")
	p.Allow("img", "src", "alt", "title", "width", "height")
	p.AllowGlobal("style")
	p.AllowStyles("color", "background-color", "text-align")
	p.CheckURL("href", "src")
	p.Discard(
		"script", "style", "iframe", "frame", "frameset",
		"object", "embed", "applet", "noscript",
		"meta", "link", "base", "title",
		"form", "input", "button", "select", "option", "textarea",
		"svg", "math",
	)
	return p
}
