package path

import (
	"encoding/json"
	"testing"

	"github.com/dshills/inkstorm/internal/dom"
)

// fiveParagraphs builds the document used by the positional-staleness tests.
func fiveParagraphs(t *testing.T) *dom.Document {
	t.Helper()
	d := dom.NewDocument()
	if err := d.SetHTML("<p>one</p><p>two</p><p>three</p><p>four</p><p>five</p>"); err != nil {
		t.Fatalf("SetHTML: %v", err)
	}
	return d
}

// walk collects every node in the subtree in document order.
func walk(n dom.Node, out *[]dom.Node) {
	*out = append(*out, n)
	if e, ok := n.(*dom.Element); ok {
		for i := 0; i < e.ChildCount(); i++ {
			walk(e.ChildAt(i), out)
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	d := dom.NewDocument()
	if err := d.SetHTML(`<p>hi <b>bold <i>both</i></b></p><ul><li>a</li><li>b</li></ul>`); err != nil {
		t.Fatal(err)
	}

	var nodes []dom.Node
	walk(d.Root(), &nodes)

	for _, n := range nodes {
		p, ok := Encode(n, d.Root())
		if !ok {
			t.Fatalf("Encode failed for attached node %v", n)
		}
		back, ok := Decode(p, d.Root())
		if !ok {
			t.Fatalf("Decode(%s) failed on unmodified tree", p)
		}
		if back != n {
			t.Errorf("Decode(%s) = %v, want original node", p, n)
		}
	}
}

func TestEncodeRootIsEmptyPath(t *testing.T) {
	d := dom.NewDocument()
	p, ok := Encode(d.Root(), d.Root())
	if !ok {
		t.Fatal("Encode(root, root) failed")
	}
	if len(p) != 0 {
		t.Errorf("path = %v, want empty", p)
	}
	if p.String() != "/" {
		t.Errorf("String() = %q, want %q", p.String(), "/")
	}
}

func TestEncodeOutsideRoot(t *testing.T) {
	d := fiveParagraphs(t)
	stranger := dom.NewElement("p", dom.NewText("elsewhere"))

	if _, ok := Encode(stranger, d.Root()); ok {
		t.Error("Encode accepted a node outside the root")
	}
	if _, ok := Encode(nil, d.Root()); ok {
		t.Error("Encode accepted nil node")
	}
}

func TestDecodeIndexOutOfRange(t *testing.T) {
	d := fiveParagraphs(t)

	if _, ok := Decode(Path{9}, d.Root()); ok {
		t.Error("Decode resolved an out-of-range index")
	}
	if _, ok := Decode(Path{-1}, d.Root()); ok {
		t.Error("Decode resolved a negative index")
	}
}

func TestDecodeThroughTextLeafFails(t *testing.T) {
	d := fiveParagraphs(t)

	// 0/0 is the text leaf of the first paragraph; a path descending
	// through it points one level too deep.
	if _, ok := Decode(Path{0, 0, 0}, d.Root()); ok {
		t.Error("Decode descended through a text leaf")
	}
}

func TestDecodeAfterStructuralEdit(t *testing.T) {
	d := fiveParagraphs(t)

	// Address the text inside the 3rd paragraph, then delete the 1st
	// paragraph. The stale address must not resolve to the original node.
	third := d.Root().ChildAt(2).(*dom.Element)
	target := third.ChildAt(0)
	p, ok := Encode(target, d.Root())
	if !ok {
		t.Fatal("Encode failed")
	}

	if err := d.RemoveNode(d.Root().ChildAt(0)); err != nil {
		t.Fatal(err)
	}

	got, ok := Decode(p, d.Root())
	if ok && got == target {
		t.Error("stale path still resolved to the original node")
	}

	// The last paragraph's old address now falls off the end entirely.
	if _, ok := Decode(Path{4, 0}, d.Root()); ok {
		t.Error("path beyond the shrunk child list resolved")
	}
}

func TestDecodeIsPositionalNotIdentityBased(t *testing.T) {
	a := dom.NewDocument()
	b := dom.NewDocument()
	for _, d := range []*dom.Document{a, b} {
		if err := d.SetHTML("<p>same <b>shape</b></p>"); err != nil {
			t.Fatal(err)
		}
	}

	p, ok := Encode(a.Root().ChildAt(0).(*dom.Element).ChildAt(1), a.Root())
	if !ok {
		t.Fatal("Encode failed")
	}
	got, ok := Decode(p, b.Root())
	if !ok {
		t.Fatal("Decode failed against structurally identical tree")
	}
	e, isElem := got.(*dom.Element)
	if !isElem || e.Tag() != "b" {
		t.Errorf("Decode landed on %v, want the <b> element", got)
	}
}

func TestPathEqualAndClone(t *testing.T) {
	p := Path{0, 2, 1}
	q := p.Clone()
	if !p.Equal(q) {
		t.Error("clone not equal to original")
	}
	q[2] = 9
	if p.Equal(q) {
		t.Error("mutating clone affected equality")
	}
	if p.Equal(Path{0, 2}) {
		t.Error("paths of different length compared equal")
	}
}

func TestRangeJSONShape(t *testing.T) {
	r := Range{
		AnchorPath:   Path{2, 0},
		AnchorOffset: 2,
		FocusPath:    Path{2, 0},
		FocusOffset:  5,
	}
	raw, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"anchorPath":[2,0],"anchorOffset":2,"focusPath":[2,0],"focusOffset":5}`
	if string(raw) != want {
		t.Errorf("JSON = %s, want %s", raw, want)
	}
}

func TestRangeCollapsedAndClone(t *testing.T) {
	c := Caret(Path{1}, 3)
	if !c.Collapsed() {
		t.Error("caret range should be collapsed")
	}
	r := Range{AnchorPath: Path{1}, AnchorOffset: 3, FocusPath: Path{1}, FocusOffset: 4}
	if r.Collapsed() {
		t.Error("extended range reported collapsed")
	}

	cl := r.Clone()
	cl.AnchorPath[0] = 7
	if r.AnchorPath[0] == 7 {
		t.Error("Clone shares path storage")
	}
}

// FuzzEncodeDecode feeds arbitrary HTML through the parser and checks the
// round-trip law for every node of whatever tree results.
func FuzzEncodeDecode(f *testing.F) {
	f.Add("<p>hello</p>")
	f.Add("<p>a<b>b</b>c</p><ul><li>x</li></ul>")
	f.Add("plain text")
	f.Add("<div><div><div>deep</div></div></div>")
	f.Add("")

	f.Fuzz(func(t *testing.T, raw string) {
		d := dom.NewDocument()
		if err := d.SetHTML(raw); err != nil {
			return
		}

		var nodes []dom.Node
		walk(d.Root(), &nodes)
		for _, n := range nodes {
			p, ok := Encode(n, d.Root())
			if !ok {
				t.Fatalf("Encode failed for attached node")
			}
			back, ok := Decode(p, d.Root())
			if !ok || back != n {
				t.Fatalf("round trip failed for path %s", p)
			}
		}
	})
}
