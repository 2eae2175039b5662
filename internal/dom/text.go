package dom

import (
	"strings"

	"github.com/rivo/uniseg"
)

// blockTags are elements rendered on their own line in the text projection.
var blockTags = map[string]bool{
	"p": true, "div": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "pre": true, "table": true, "tr": true, "br": true,
	"hr": true,
}

// IsBlock reports whether tag is treated as block-level by the text
// projection and the editing commands.
func IsBlock(tag string) bool { return blockTags[tag] }

// TextContent returns the concatenated text of n's subtree. Block
// boundaries contribute a newline so the projection reads like the
// rendered document.
func TextContent(n Node) string {
	var sb strings.Builder
	writeText(&sb, n)
	return strings.TrimSuffix(sb.String(), "\n")
}

func writeText(sb *strings.Builder, n Node) {
	switch n := n.(type) {
	case *Text:
		sb.WriteString(n.data)
	case *Element:
		if n.tag == "br" {
			sb.WriteByte('\n')
			return
		}
		for _, c := range n.children {
			writeText(sb, c)
		}
		if IsBlock(n.tag) {
			sb.WriteByte('\n')
		}
	}
}

// TextContent returns the document's text projection.
func (d *Document) TextContent() string {
	return TextContent(d.root)
}

// GraphemeLength returns the user-perceived character count of s: the
// number of grapheme clusters, so a combining sequence or emoji counts
// once. This is the unit the max-length policy is measured in.
func GraphemeLength(s string) int {
	return uniseg.GraphemeClusterCount(s)
}

// TextLength returns the grapheme length of the text carried by the given
// subtrees. Unlike TextContent, block separators contribute nothing; the
// count covers authored characters only.
func TextLength(nodes ...Node) int {
	total := 0
	for _, n := range nodes {
		switch n := n.(type) {
		case *Text:
			total += uniseg.GraphemeClusterCount(n.data)
		case *Element:
			total += TextLength(n.children...)
		}
	}
	return total
}

// TruncateText trims detached subtrees so their combined text length does
// not exceed max grapheme clusters. The leaf where the budget runs out is
// shortened and everything after that cut is dropped, including elements
// the cut left empty. Content that fits exactly keeps its trailing
// structure.
func TruncateText(nodes []Node, max int) []Node {
	if max < 0 {
		max = 0
	}
	st := &truncState{budget: max}
	return truncateList(nodes, st)
}

// truncState carries the remaining budget and whether a cut happened.
type truncState struct {
	budget int
	cut    bool
}

func truncateList(nodes []Node, st *truncState) []Node {
	for i, n := range nodes {
		if st.cut {
			return nodes[:i]
		}
		switch n := n.(type) {
		case *Text:
			count := uniseg.GraphemeClusterCount(n.data)
			switch {
			case count <= st.budget:
				st.budget -= count
			case st.budget == 0:
				st.cut = true
				return nodes[:i]
			default:
				n.data = graphemePrefix(n.data, st.budget)
				st.budget = 0
				st.cut = true
			}
		case *Element:
			had := len(n.children) > 0
			n.children = truncateList(n.children, st)
			if st.cut && had && len(n.children) == 0 {
				return nodes[:i]
			}
		}
	}
	return nodes
}

// graphemePrefix returns the prefix of s holding its first k grapheme
// clusters.
func graphemePrefix(s string, k int) string {
	if k <= 0 {
		return ""
	}
	g := uniseg.NewGraphemes(s)
	end := 0
	for i := 0; i < k && g.Next(); i++ {
		_, end = g.Positions()
	}
	return s[:end]
}
