package engine

import "errors"

// Errors returned by engine operations.
var (
	// ErrEngineClosed indicates an operation was attempted after Close.
	ErrEngineClosed = errors.New("engine is closed")

	// ErrReadOnly indicates a write was attempted on a read-only engine.
	ErrReadOnly = errors.New("engine is read-only")

	// ErrContentTooLong indicates content exceeds the configured maximum
	// length under the reject overflow policy.
	ErrContentTooLong = errors.New("content exceeds maximum length")
)
