package markdown

import (
	"strings"
	"testing"

	"github.com/dshills/inkstorm/internal/dom"
)

func parseDoc(t *testing.T, raw string) *dom.Document {
	t.Helper()
	doc := dom.NewDocument()
	if err := doc.SetHTML(raw); err != nil {
		t.Fatalf("SetHTML(%q): %v", raw, err)
	}
	return doc
}

func TestRenderBlocks(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"paragraph", "<p>hello</p>", "hello\n"},
		{"heading", "<h2>title</h2>", "## title\n"},
		{"deep heading", "<h6>small</h6>", "###### small\n"},
		{"quote", "<blockquote>wise words</blockquote>", "> wise words\n"},
		{"rule", "<hr>", "---\n"},
		{"unordered list", "<ul><li>a</li><li>b</li></ul>", "- a\n- b\n"},
		{"ordered list", "<ol><li>a</li><li>b</li></ol>", "1. a\n2. b\n"},
		{"code block", "<pre><code>x = 1\ny = 2</code></pre>", "```\nx = 1\ny = 2\n```\n"},
		{"two paragraphs", "<p>a</p><p>b</p>", "a\n\nb\n"},
		{"div as paragraph", "<div>text</div>", "text\n"},
		{"empty document", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Render(parseDoc(t, tt.html)); got != tt.want {
				t.Errorf("Render(%q) = %q, want %q", tt.html, got, tt.want)
			}
		})
	}
}

func TestRenderInline(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"bold", "<p><b>bold</b> text</p>", "**bold** text\n"},
		{"strong", "<p><strong>bold</strong></p>", "**bold**\n"},
		{"italic", "<p>made <i>clear</i></p>", "made *clear*\n"},
		{"strike", "<p><s>gone</s></p>", "~~gone~~\n"},
		{"code", "<p>run <code>a*b</code></p>", "run `a*b`\n"},
		{"code with backtick", "<p><code>a`b</code></p>", "``a`b``\n"},
		{"bold italic", "<p><b><i>x</i></b></p>", "***x***\n"},
		{"link", `<p><a href="https://x.test/p">go</a></p>`, "[go](https://x.test/p)\n"},
		{"link with title", `<p><a href="https://x.test" title="exes">go</a></p>`, "[go](https://x.test \"exes\")\n"},
		{"link with spaced dest", `<p><a href="https://x.test/a b">go</a></p>`, "[go](<https://x.test/a b>)\n"},
		{"image", `<p><img src="pic.png" alt="a cat"></p>`, "![a cat](pic.png)\n"},
		{"underline as html", "<p><u>under</u></p>", "<u>under</u>\n"},
		{"color span unwraps", `<p><span style="color:#ff0000">red</span></p>`, "red\n"},
		{"hard break", "<p>a<br>b</p>", "a\\\nb\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Render(parseDoc(t, tt.html)); got != tt.want {
				t.Errorf("Render(%q) = %q, want %q", tt.html, got, tt.want)
			}
		})
	}
}

func TestRenderEscapes(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"inline specials", "<p>a*b _c_ [d]</p>", `a\*b \_c\_ \[d\]` + "\n"},
		{"heading lookalike", "<p># not a heading</p>", `\# not a heading` + "\n"},
		{"list lookalike", "<p>- not a list</p>", `\- not a list` + "\n"},
		{"ordered lookalike", "<p>1. not a list</p>", `1\. not a list` + "\n"},
		{"angle bracket", "<p>a &lt;u&gt; b</p>", `a \<u> b` + "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Render(parseDoc(t, tt.html)); got != tt.want {
				t.Errorf("Render(%q) = %q, want %q", tt.html, got, tt.want)
			}
		})
	}
}

func TestRenderCollapsesMarkupWhitespace(t *testing.T) {
	doc := parseDoc(t, "<p>a</p>\n  <p>b   c</p>\n")
	if got, want := Render(doc), "a\n\nb c\n"; got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}
}

func TestRenderNestedListContent(t *testing.T) {
	doc := parseDoc(t, "<ul><li>top<ul><li>inner</li></ul></li></ul>")
	got := Render(doc)
	if !strings.Contains(got, "- top") || !strings.Contains(got, "  - inner") {
		t.Errorf("Render = %q, want nested item indented under its parent", got)
	}
}
