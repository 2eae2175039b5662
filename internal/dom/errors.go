package dom

import "errors"

// Common errors returned by document mutations.
var (
	// ErrIndexRange indicates a child index outside [0, ChildCount].
	ErrIndexRange = errors.New("child index out of range")

	// ErrOffsetRange indicates a text offset outside [0, Len].
	ErrOffsetRange = errors.New("text offset out of range")

	// ErrNotChild indicates the node is not a child of the given parent.
	ErrNotChild = errors.New("node is not a child of the given parent")

	// ErrCycle indicates an insertion that would make a node its own ancestor.
	ErrCycle = errors.New("insertion would create a cycle")

	// ErrNilNode indicates a nil node argument.
	ErrNilNode = errors.New("nil node")
)
