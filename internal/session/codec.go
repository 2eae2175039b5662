package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/inkstorm/internal/dom"
	"github.com/dshills/inkstorm/internal/engine"
	"github.com/dshills/inkstorm/internal/engine/selection"
)

// Session is one saved editing session: a stable identifier plus the
// snapshot recorded when it was written.
type Session struct {
	ID       string
	Snapshot engine.Snapshot
}

// NewID returns a fresh session identifier.
func NewID() string { return uuid.NewString() }

// Encode serializes a session to its interop JSON shape:
//
//	{
//	  "id": "…",
//	  "content": "<p>…</p>",
//	  "selection": {"anchorPath": [0, 0], "anchorOffset": 1,
//	                "focusPath": [0, 0], "focusOffset": 3},
//	  "timestamp": 1764226800000
//	}
//
// selection is null when the snapshot carries none; timestamp is epoch
// milliseconds.
func Encode(s Session) ([]byte, error) {
	fields := []struct {
		path  string
		value any
	}{
		{"id", s.ID},
		{"content", s.Snapshot.Content},
		{"selection", selectionField(s.Snapshot.Selection)},
		{"timestamp", s.Snapshot.Timestamp.UnixMilli()},
	}
	blob := []byte(`{}`)
	var err error
	for _, f := range fields {
		if blob, err = sjson.SetBytes(blob, f.path, f.value); err != nil {
			return nil, fmt.Errorf("encode %s: %w", f.path, err)
		}
	}
	return blob, nil
}

func selectionField(r *engine.Range) any {
	if r == nil {
		return nil
	}
	return r
}

// Decode parses a serialized session. Content must be present.
// Selection may be absent or null, and id and timestamp are optional,
// so blobs written by hosts that only know the snapshot shape still
// load.
func Decode(data []byte) (Session, error) {
	if !gjson.ValidBytes(data) {
		return Session{}, fmt.Errorf("%w: not valid JSON", ErrBadSession)
	}
	root := gjson.ParseBytes(data)

	content := root.Get("content")
	if !content.Exists() {
		return Session{}, fmt.Errorf("%w: missing content", ErrBadSession)
	}
	s := Session{
		ID:       root.Get("id").String(),
		Snapshot: engine.Snapshot{Content: content.String()},
	}
	if ts := root.Get("timestamp"); ts.Exists() {
		s.Snapshot.Timestamp = time.UnixMilli(ts.Int())
	}
	if sel := root.Get("selection"); sel.Exists() && sel.Type != gjson.Null {
		r, err := decodeSelection(sel)
		if err != nil {
			return Session{}, err
		}
		s.Snapshot.Selection = &r
	}
	return s, nil
}

func decodeSelection(sel gjson.Result) (engine.Range, error) {
	anchor := sel.Get("anchorPath")
	focus := sel.Get("focusPath")
	if !anchor.IsArray() || !focus.IsArray() {
		return engine.Range{}, fmt.Errorf("%w: selection paths must be arrays", ErrBadSession)
	}
	return engine.Range{
		AnchorPath:   decodePath(anchor),
		AnchorOffset: int(sel.Get("anchorOffset").Int()),
		FocusPath:    decodePath(focus),
		FocusOffset:  int(sel.Get("focusOffset").Int()),
	}, nil
}

func decodePath(arr gjson.Result) engine.Path {
	vals := arr.Array()
	p := make(engine.Path, len(vals))
	for i, v := range vals {
		p[i] = int(v.Int())
	}
	return p
}

// Capture records the engine's current state: serialized content, the
// captured selection address when one is live, and the current time.
// Content and selection are read in one transaction so they always
// describe the same document state.
func Capture(e *engine.Engine) (engine.Snapshot, error) {
	snap := engine.Snapshot{Timestamp: time.Now()}
	err := e.View(func(doc *dom.Document, sel *selection.Bridge) error {
		snap.Content = doc.HTML()
		if r, ok := sel.Capture(); ok {
			snap.Selection = &r
		}
		return nil
	})
	if err != nil {
		return engine.Snapshot{}, err
	}
	return snap, nil
}

// Save captures the engine's state and writes it to the store under id.
// It returns the encoded blob size in bytes.
func Save(st Store, e *engine.Engine, id string) (int, error) {
	snap, err := Capture(e)
	if err != nil {
		return 0, err
	}
	blob, err := Encode(Session{ID: id, Snapshot: snap})
	if err != nil {
		return 0, err
	}
	if err := st.Set(id, blob); err != nil {
		return 0, fmt.Errorf("store session %s: %w", id, err)
	}
	return len(blob), nil
}

// Load reads a stored session and restores it into the engine: content
// through SetContent (sanitized, length-gated, recorded as an immediate
// history snapshot), then the recorded selection. A selection address
// that no longer resolves against the restored tree is dropped quietly.
func Load(st Store, e *engine.Engine, id string) (Session, error) {
	blob, err := st.Get(id)
	if err != nil {
		return Session{}, err
	}
	s, err := Decode(blob)
	if err != nil {
		return Session{}, fmt.Errorf("session %s: %w", id, err)
	}
	if s.ID == "" {
		s.ID = id
	}
	if err := e.SetContent(s.Snapshot.Content); err != nil {
		return Session{}, err
	}
	if s.Snapshot.Selection != nil {
		e.RestoreSelection(*s.Snapshot.Selection)
	}
	return s, nil
}
