package engine

import (
	"time"

	"github.com/dshills/inkstorm/internal/event"
)

// Default configuration values.
const (
	// DefaultObserveDebounce is the quiet period after a mutation before
	// the engine records a history snapshot. It composes with the
	// snapshot store's own debounce.
	DefaultObserveDebounce = 100 * time.Millisecond
)

// OverflowPolicy decides what happens when content exceeds the configured
// maximum length.
type OverflowPolicy string

const (
	// OverflowReject refuses the content with ErrContentTooLong.
	OverflowReject OverflowPolicy = "reject"

	// OverflowTruncate keeps a prefix of the content that fits.
	OverflowTruncate OverflowPolicy = "truncate"
)

// Valid reports whether p names a known policy.
func (p OverflowPolicy) Valid() bool {
	return p == OverflowReject || p == OverflowTruncate
}

// Option configures an Engine during creation.
type Option func(*Engine)

// WithContent sets the initial content of the engine.
func WithContent(content string) Option {
	return func(e *Engine) {
		e.initContent = content
	}
}

// WithBus attaches an existing event bus instead of a private one, so the
// host can subscribe before the engine publishes its first events.
func WithBus(bus *event.Bus) Option {
	return func(e *Engine) {
		if bus != nil {
			e.bus = bus
		}
	}
}

// WithSanitizer sets the cleaning function applied to content entering the
// document through SetContent. The engine itself makes no sanitization
// decisions; a nil sanitizer passes content through untouched.
func WithSanitizer(fn func(string) string) Option {
	return func(e *Engine) {
		e.sanitize = fn
	}
}

// WithHistoryCapacity sets the maximum number of undo entries.
func WithHistoryCapacity(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.historyCapacity = n
		}
	}
}

// WithHistoryDebounce sets the snapshot store's commit debounce.
func WithHistoryDebounce(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.historyDebounce = d
		}
	}
}

// WithObserveDebounce sets the mutation-observation debounce.
func WithObserveDebounce(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.obsDelay = d
		}
	}
}

// WithMaxLength caps the document's text length, measured in grapheme
// clusters. Zero means unlimited.
func WithMaxLength(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxLength = n
		}
	}
}

// WithOverflowPolicy selects the behavior when content exceeds the maximum
// length. Unknown policies are ignored; the default is OverflowReject.
func WithOverflowPolicy(p OverflowPolicy) Option {
	return func(e *Engine) {
		if p.Valid() {
			e.overflow = p
		}
	}
}

// WithReadOnly creates a read-only engine.
// Write operations will return ErrReadOnly.
func WithReadOnly() Option {
	return func(e *Engine) {
		e.readOnly = true
	}
}
