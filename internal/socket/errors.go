package socket

import (
	"errors"
	"fmt"
)

// Domain errors for the socket package.
var (
	// ErrProtocol indicates a state or framing invariant was violated.
	// This is a programming/usage error, not a runtime condition to
	// recover from.
	ErrProtocol = errors.New("socket: protocol violation")

	// ErrAlreadyOpen is returned when Open is called on a connection
	// whose reader is already running.
	ErrAlreadyOpen = fmt.Errorf("%w: connection already opened", ErrProtocol)

	// ErrSendClosed is returned when Send is called after the
	// connection reached StateClosed.
	ErrSendClosed = fmt.Errorf("%w: send on closed connection", ErrProtocol)

	// ErrClosed is returned by PopInbox once the connection is closed
	// and the inbox has been drained.
	ErrClosed = errors.New("socket: connection closed")
)
