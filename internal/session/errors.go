package session

import "errors"

// Domain errors for the session package.
var (
	// ErrInvalidAuth is returned when the hub explicitly rejects the
	// supplied credentials. The wrapped message carries the
	// server-provided reason. Terminal for the session.
	ErrInvalidAuth = errors.New("session: authentication rejected by hub")
)
