package transport

import "errors"

// Domain errors for the transport package.
var (
	// ErrConnectionFailed is returned when the stream to the hub cannot
	// be established or breaks mid-operation.
	ErrConnectionFailed = errors.New("transport: connection to hub failed")

	// ErrNotOpen is returned when reading or writing a stream that has
	// been closed locally.
	ErrNotOpen = errors.New("transport: stream is not open")
)
