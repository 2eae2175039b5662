package command

import "errors"

var (
	// ErrUnknownCommand is returned when no command is registered under
	// the requested name.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrCommandExists is returned when registering a name that is
	// already taken.
	ErrCommandExists = errors.New("command already registered")

	// ErrNoSelection is returned by commands that need a selection when
	// the editor has none covering any text.
	ErrNoSelection = errors.New("no selection in editor")

	// ErrBadArgument is returned when a command argument is missing or
	// malformed.
	ErrBadArgument = errors.New("bad command argument")

	// ErrNothingToUndo is returned when the undo stack is empty.
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrNothingToRedo is returned when the redo stack is empty.
	ErrNothingToRedo = errors.New("nothing to redo")
)
