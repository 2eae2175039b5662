package config

import "errors"

var (
	// ErrInvalid reports a configuration value outside its allowed range.
	ErrInvalid = errors.New("invalid configuration")
)
