package account

import "errors"

// Sentinel errors for user lookup.
var (
	// ErrUserNotFound is returned when no user has the requested email.
	ErrUserNotFound = errors.New("account: user not found")

	// ErrEmailColumnNotFound is returned when the users table has no recognisable email column.
	// This is a configuration problem, not a missing user.
	ErrEmailColumnNotFound = errors.New("account: email column not found")
)
