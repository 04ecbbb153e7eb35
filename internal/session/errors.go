package session

import "errors"

// Sentinel errors for session validation.
var (
	// ErrNotFound is returned for tokens that were never issued or were invalidated.
	ErrNotFound = errors.New("session: not found")

	// ErrExpired is returned the first time an expired token is presented.
	// The session is removed, so later attempts report ErrNotFound.
	ErrExpired = errors.New("session: expired")
)
