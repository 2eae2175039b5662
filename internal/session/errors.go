package session

import "errors"

var (
	// ErrNotFound is returned when no session is stored under an ID.
	ErrNotFound = errors.New("session not found")

	// ErrBadID is returned for session IDs a store cannot use as keys.
	ErrBadID = errors.New("invalid session id")

	// ErrBadSession is returned when a stored blob does not decode.
	ErrBadSession = errors.New("malformed session")

	// ErrAutosaverClosed is returned by operations on a closed Autosaver.
	ErrAutosaverClosed = errors.New("autosaver closed")
)
