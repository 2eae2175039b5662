package plugin

import "errors"

var (
	// ErrPluginNotFound is returned when no plugin is loaded under a name.
	ErrPluginNotFound = errors.New("plugin not found")

	// ErrPluginExists is returned when loading a name that is taken.
	ErrPluginExists = errors.New("plugin already loaded")

	// ErrPluginDisabled is returned when a disabled plugin's command runs.
	ErrPluginDisabled = errors.New("plugin disabled")

	// ErrPluginFailed is returned when enabling a plugin whose load failed.
	ErrPluginFailed = errors.New("plugin failed to load")

	// ErrHostClosed is returned by operations on a closed Host.
	ErrHostClosed = errors.New("plugin host closed")
)
