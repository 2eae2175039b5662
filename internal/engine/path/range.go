package path

// Range is a serialized selection: two structural addresses plus offsets
// into the terminal nodes. Anchor is where the selection started, focus is
// where it ends (the caret side); for a collapsed selection they coincide.
// Offsets count runes within a text leaf and children within an element.
//
// The JSON field names are the interop shape sessions are persisted with.
type Range struct {
	AnchorPath   Path `json:"anchorPath"`
	AnchorOffset int  `json:"anchorOffset"`
	FocusPath    Path `json:"focusPath"`
	FocusOffset  int  `json:"focusOffset"`
}

// Caret returns a collapsed range at the given position.
func Caret(p Path, offset int) Range {
	return Range{
		AnchorPath:   p,
		AnchorOffset: offset,
		FocusPath:    p.Clone(),
		FocusOffset:  offset,
	}
}

// Collapsed reports whether anchor and focus are the same position.
func (r Range) Collapsed() bool {
	return r.AnchorOffset == r.FocusOffset && r.AnchorPath.Equal(r.FocusPath)
}

// Equal reports whether two ranges describe the same pair of positions.
func (r Range) Equal(other Range) bool {
	return r.AnchorOffset == other.AnchorOffset &&
		r.FocusOffset == other.FocusOffset &&
		r.AnchorPath.Equal(other.AnchorPath) &&
		r.FocusPath.Equal(other.FocusPath)
}

// Clone returns an independent copy of the range. Snapshots store clones so
// a stored selection can never alias a live one.
func (r Range) Clone() Range {
	return Range{
		AnchorPath:   r.AnchorPath.Clone(),
		AnchorOffset: r.AnchorOffset,
		FocusPath:    r.FocusPath.Clone(),
		FocusOffset:  r.FocusOffset,
	}
}
