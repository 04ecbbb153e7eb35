package tunnel

import "errors"

// Sentinel errors for tunnel operations.
var (
	// ErrDialFailed is returned when the SSH server cannot be reached or rejects the handshake.
	ErrDialFailed = errors.New("tunnel: ssh dial failed")

	// ErrListenFailed is returned when the local forwarding listener cannot be opened.
	ErrListenFailed = errors.New("tunnel: local listen failed")

	// ErrInvalidHostKey is returned when the configured host key cannot be parsed.
	ErrInvalidHostKey = errors.New("tunnel: invalid host key")

	// ErrClosed is returned by operations on a closed tunnel.
	ErrClosed = errors.New("tunnel: closed")
)
