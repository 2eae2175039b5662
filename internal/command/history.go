package command

import "github.com/dshills/inkstorm/internal/engine"

func undo(e *engine.Engine, _ Args) error {
	if !e.Undo() {
		return ErrNothingToUndo
	}
	return nil
}

func redo(e *engine.Engine, _ Args) error {
	if !e.Redo() {
		return ErrNothingToRedo
	}
	return nil
}

func clearHistory(e *engine.Engine, _ Args) error {
	e.ClearHistory()
	return nil
}
