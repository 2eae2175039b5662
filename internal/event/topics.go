package event

// Document event topics.
const (
	// TopicDocumentChanged is published when the document tree mutates.
	TopicDocumentChanged Topic = "document.changed"

	// TopicDocumentReplaced is published when content is replaced
	// wholesale, by the host or by a history restore.
	TopicDocumentReplaced Topic = "document.replaced"
)

// Selection event topics.
const (
	// TopicSelectionChanged is published when the live selection moves.
	TopicSelectionChanged Topic = "selection.changed"
)

// History event topics.
const (
	// TopicHistoryPushed is published when a snapshot commits to the
	// undo stack.
	TopicHistoryPushed Topic = "history.pushed"

	// TopicHistoryUndo is published after an undo replay completes.
	TopicHistoryUndo Topic = "history.undo"

	// TopicHistoryRedo is published after a redo replay completes.
	TopicHistoryRedo Topic = "history.redo"

	// TopicHistoryCleared is published when history is discarded.
	TopicHistoryCleared Topic = "history.cleared"
)

// Command event topics.
const (
	// TopicCommandExecuted is published after a named command runs,
	// whether it succeeded or not.
	TopicCommandExecuted Topic = "command.executed"
)

// Autosave event topics.
const (
	// TopicAutosaveSaved is published after a successful autosave.
	TopicAutosaveSaved Topic = "autosave.saved"

	// TopicAutosaveFailed is published when an autosave attempt fails.
	TopicAutosaveFailed Topic = "autosave.failed"
)

// Configuration event topics.
const (
	// TopicConfigReloaded is published when the config file changes on
	// disk and is reloaded.
	TopicConfigReloaded Topic = "config.reloaded"
)

// Plugin event topics.
const (
	// TopicPluginLoaded is published when a plugin finishes loading.
	TopicPluginLoaded Topic = "plugin.loaded"

	// TopicPluginError is published when a plugin hook fails.
	TopicPluginError Topic = "plugin.error"
)

// DocumentChanged reports a mutation of the document tree.
type DocumentChanged struct {
	// Version is the document version after the mutation.
	Version uint64

	// Op describes the mutation kind ("insert", "remove", ...).
	Op string
}

// DocumentReplaced reports a wholesale content replacement.
type DocumentReplaced struct {
	// Version is the document version after the replacement.
	Version uint64

	// Restore is true when the replacement came from a history replay.
	Restore bool
}

// SelectionChanged reports a selection move.
type SelectionChanged struct {
	// Active is false when the selection was cleared.
	Active bool

	// Collapsed is true for a caret.
	Collapsed bool
}

// HistoryPushed reports a committed snapshot.
type HistoryPushed struct {
	// UndoDepth is the undo stack size after the commit.
	UndoDepth int
}

// HistoryStep reports a completed undo or redo replay.
type HistoryStep struct {
	// UndoDepth is the undo stack size after the step.
	UndoDepth int

	// RedoDepth is the redo stack size after the step.
	RedoDepth int

	// SelectionRestored is false when the snapshot's selection address
	// no longer resolved and only content was applied.
	SelectionRestored bool
}

// CommandExecuted reports a completed command run.
type CommandExecuted struct {
	// Name is the command name as registered.
	Name string

	// Err is the failure, or nil when the command succeeded.
	Err error
}

// AutosaveSaved reports a persisted session.
type AutosaveSaved struct {
	// SessionID identifies the saved session.
	SessionID string

	// Bytes is the serialized session size.
	Bytes int
}

// AutosaveFailed reports a failed autosave attempt.
type AutosaveFailed struct {
	// SessionID identifies the session that failed to save.
	SessionID string

	// Err is the failure.
	Err error
}

// ConfigReloaded reports a live configuration reload.
type ConfigReloaded struct {
	// Path is the config file that changed.
	Path string
}

// PluginLoaded reports a loaded plugin.
type PluginLoaded struct {
	// Name is the plugin name.
	Name string
}

// PluginError reports a plugin hook failure.
type PluginError struct {
	// Name is the plugin name.
	Name string

	// Hook is the hook that failed.
	Hook string

	// Err is the failure.
	Err error
}
