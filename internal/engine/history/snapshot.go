package history

import (
	"encoding/json"
	"time"

	"github.com/dshills/inkstorm/internal/engine/path"
)

// Snapshot is one recorded document state: serialized content, the
// selection address captured alongside it (nil when no selection was
// live), and the moment it was taken.
type Snapshot struct {
	Content   string
	Selection *path.Range
	Timestamp time.Time
}

// snapshotJSON is the wire shape. Timestamps travel as Unix milliseconds
// so snapshots interchange cleanly with hosts that use epoch-millisecond
// clocks.
type snapshotJSON struct {
	Content   string      `json:"content"`
	Selection *path.Range `json:"selection"`
	Timestamp int64       `json:"timestamp"`
}

// MarshalJSON implements json.Marshaler.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshotJSON{
		Content:   s.Content,
		Selection: s.Selection,
		Timestamp: s.Timestamp.UnixMilli(),
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var wire snapshotJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	s.Content = wire.Content
	s.Selection = wire.Selection
	s.Timestamp = time.UnixMilli(wire.Timestamp)
	return nil
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Content:   s.Content,
		Selection: cloneSelection(s.Selection),
		Timestamp: s.Timestamp,
	}
}

// cloneSelection deep-copies an optional selection address.
func cloneSelection(r *path.Range) *path.Range {
	if r == nil {
		return nil
	}
	c := r.Clone()
	return &c
}
