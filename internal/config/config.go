package config

import (
	"fmt"
	"time"
)

// Duration is a time.Duration that marshals as a human-readable string
// ("300ms", "2s") in TOML.
type Duration time.Duration

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Config is the editor configuration tree. The zero value of every field
// means "use the built-in default", so a partial file only overrides
// what it names.
type Config struct {
	Editor   Editor   `toml:"editor"`
	History  History  `toml:"history"`
	Autosave Autosave `toml:"autosave"`
	Session  Session  `toml:"session"`
	Plugins  Plugins  `toml:"plugins"`
}

// Editor holds the content gates.
type Editor struct {
	// MaxLength caps the document's text length in characters. Zero is
	// unlimited.
	MaxLength int `toml:"max_length"`

	// Overflow is what happens to over-length content: "reject" or
	// "truncate". Empty means reject.
	Overflow string `toml:"overflow"`

	// ReadOnly refuses every write operation.
	ReadOnly bool `toml:"read_only"`
}

// History tunes the undo machinery.
type History struct {
	// Capacity is the maximum number of undo entries. Zero keeps the
	// built-in default.
	Capacity int `toml:"capacity"`

	// Debounce is the quiet period before an edit burst commits one
	// undo entry.
	Debounce Duration `toml:"debounce"`

	// ObserveDebounce is the quiet period after a tree mutation before
	// the editor snapshots it.
	ObserveDebounce Duration `toml:"observe_debounce"`
}

// Autosave controls the background session saver.
type Autosave struct {
	Enabled  bool     `toml:"enabled"`
	Interval Duration `toml:"interval"`
}

// Session locates persisted sessions.
type Session struct {
	// Dir is the directory session files are written to. Empty selects
	// a per-user default at startup.
	Dir string `toml:"dir"`
}

// Plugins locates and selects Lua plugins.
type Plugins struct {
	// Dir is the directory scanned for *.lua plugin files.
	Dir string `toml:"dir"`

	// Enabled lists the plugins to load. Empty loads everything found.
	Enabled []string `toml:"enabled"`
}

// Default returns the configuration used when no file and no environment
// overrides are present.
func Default() Config {
	return Config{
		Autosave: Autosave{Interval: Duration(30 * time.Second)},
	}
}

// Validate reports the first out-of-range value.
func (c Config) Validate() error {
	if c.Editor.MaxLength < 0 {
		return fmt.Errorf("%w: editor.max_length %d", ErrInvalid, c.Editor.MaxLength)
	}
	switch c.Editor.Overflow {
	case "", "reject", "truncate":
	default:
		return fmt.Errorf("%w: editor.overflow %q", ErrInvalid, c.Editor.Overflow)
	}
	if c.History.Capacity < 0 {
		return fmt.Errorf("%w: history.capacity %d", ErrInvalid, c.History.Capacity)
	}
	if c.History.Debounce < 0 {
		return fmt.Errorf("%w: history.debounce %s", ErrInvalid, c.History.Debounce.Std())
	}
	if c.History.ObserveDebounce < 0 {
		return fmt.Errorf("%w: history.observe_debounce %s", ErrInvalid, c.History.ObserveDebounce.Std())
	}
	if c.Autosave.Enabled && c.Autosave.Interval <= 0 {
		return fmt.Errorf("%w: autosave.interval %s", ErrInvalid, c.Autosave.Interval.Std())
	}
	return nil
}
