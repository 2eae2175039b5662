// Package command maps named editing operations onto the engine.
//
// Every command is a func(*engine.Engine, Args) error registered under a
// dotted name such as "format.bold" or "clipboard.paste". The Registry
// is the lookup table; Execute resolves a name, runs the command, and
// publishes a command.executed event either way.
//
// # Built-in commands
//
// Default() returns a registry preloaded with the standard set:
//
//   - format.*: bold, italic, underline, strike, code, color, clear
//   - block.*: heading, paragraph, quote
//   - list.*: ordered, unordered
//   - link.*: create, remove
//   - insert.*: text, image, rule
//   - edit.*: delete, selectAll
//   - history.*: undo, redo, clear
//   - clipboard.*: cut, copy, paste
//
// Inline format commands toggle: if every selected character already
// carries the format it is removed, otherwise it is applied. Block
// commands act on whole blocks and accept a collapsed caret.
//
// # Arguments
//
// Args carries the optional inputs a command may need. Each command
// reads only the fields it documents and ignores the rest, so callers
// can reuse one Args value across commands.
//
//	reg := command.Default()
//	err := reg.Execute(eng, command.CmdLink, command.Args{URL: "https://example.com"})
//
// # Extension
//
// Register adds a command under a new name; registering over an
// existing name fails with ErrCommandExists so extensions cannot
// silently shadow built-ins. Unregister first to replace one.
package command
