package command

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dshills/inkstorm/internal/engine"
	"github.com/dshills/inkstorm/internal/event"
	"github.com/dshills/inkstorm/internal/sanitize"
)

// Built-in command names. Hosts bind these to toolbar buttons and
// keyboard shortcuts; plugins may register additional names.
const (
	CmdBold          = "format.bold"
	CmdItalic        = "format.italic"
	CmdUnderline     = "format.underline"
	CmdStrike        = "format.strike"
	CmdCode          = "format.code"
	CmdColor         = "format.color"
	CmdClearFormat   = "format.clear"
	CmdHeading       = "block.heading"
	CmdParagraph     = "block.paragraph"
	CmdBlockquote    = "block.quote"
	CmdOrderedList   = "list.ordered"
	CmdUnorderedList = "list.unordered"
	CmdLink          = "link.create"
	CmdUnlink        = "link.remove"
	CmdImage         = "insert.image"
	CmdRule          = "insert.rule"
	CmdInsertText    = "insert.text"
	CmdDelete        = "edit.delete"
	CmdSelectAll     = "edit.selectAll"
	CmdUndo          = "history.undo"
	CmdRedo          = "history.redo"
	CmdClearHistory  = "history.clear"
	CmdCut           = "clipboard.cut"
	CmdCopy          = "clipboard.copy"
	CmdPaste         = "clipboard.paste"
)

// Args carries the parameters a command may need. Commands read only the
// fields they document; unused fields are ignored.
type Args struct {
	// Text is inserted content, or the label for a link created at a
	// caret.
	Text string

	// URL targets link and image commands.
	URL string

	// Alt is the alternate text for inserted images.
	Alt string

	// Color is a color value for format.color; hex and rgb() forms are
	// accepted and normalized to lowercase #rrggbb.
	Color string

	// Level selects a heading level, 1 through 6.
	Level int
}

// Func is one executable command. Commands drive the engine through its
// public surface (Edit, Undo, ...) and return sentinel errors from this
// package for expected failures.
type Func func(e *engine.Engine, args Args) error

// Registry maps command names to implementations. A registry is safe for
// concurrent use; commands themselves serialize on the engine they run
// against.
type Registry struct {
	mu        sync.RWMutex
	commands  map[string]Func
	clipboard Clipboard
	sanitize  func(string) string
}

// Option configures a Registry.
type Option func(*Registry)

// WithClipboard replaces the system clipboard, for hosts without one and
// for tests.
func WithClipboard(c Clipboard) Option {
	return func(r *Registry) {
		if c != nil {
			r.clipboard = c
		}
	}
}

// WithSanitizer replaces the filter pasted content runs through.
func WithSanitizer(fn func(string) string) Option {
	return func(r *Registry) {
		if fn != nil {
			r.sanitize = fn
		}
	}
}

// NewRegistry creates an empty registry. Most hosts want Default instead.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		commands:  make(map[string]Func),
		clipboard: SystemClipboard{},
		sanitize:  sanitize.Default().Sanitize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Default creates a registry loaded with the built-in command set.
func Default(opts ...Option) *Registry {
	r := NewRegistry(opts...)
	builtins := map[string]Func{
		CmdBold:          bold,
		CmdItalic:        italic,
		CmdUnderline:     underline,
		CmdStrike:        strike,
		CmdCode:          code,
		CmdColor:         colorText,
		CmdClearFormat:   clearFormat,
		CmdHeading:       heading,
		CmdParagraph:     paragraph,
		CmdBlockquote:    blockquote,
		CmdOrderedList:   orderedList,
		CmdUnorderedList: unorderedList,
		CmdLink:          createLink,
		CmdUnlink:        unlink,
		CmdImage:         insertImage,
		CmdRule:          insertRule,
		CmdInsertText:    insertText,
		CmdDelete:        deleteSelection,
		CmdSelectAll:     selectAll,
		CmdUndo:          undo,
		CmdRedo:          redo,
		CmdClearHistory:  clearHistory,
		CmdCut:           r.cut,
		CmdCopy:          r.copyCmd,
		CmdPaste:         r.paste,
	}
	for name, fn := range builtins {
		r.commands[name] = fn
	}
	return r
}

// Register adds a command under name. Registering an existing name fails,
// so plugins cannot silently shadow built-ins.
func (r *Registry) Register(name string, fn Func) error {
	if name == "" || fn == nil {
		return fmt.Errorf("%w: empty name or nil command", ErrBadArgument)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.commands[name]; exists {
		return fmt.Errorf("%w: %s", ErrCommandExists, name)
	}
	r.commands[name] = fn
	return nil
}

// Unregister removes the command under name. Unknown names are a no-op.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.commands, name)
}

// Get returns the command registered under name.
func (r *Registry) Get(name string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.commands[name]
	return fn, ok
}

// Names returns all registered command names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs the named command against the engine and publishes a
// command.executed event on the engine's bus, success or failure.
func (r *Registry) Execute(e *engine.Engine, name string, args Args) error {
	r.mu.RLock()
	fn, ok := r.commands[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	err := fn(e, args)
	if bus := e.Bus(); bus != nil {
		evt := event.NewEvent(event.TopicCommandExecuted, event.CommandExecuted{Name: name, Err: err}, "command")
		_ = bus.Publish(evt)
	}
	return err
}
