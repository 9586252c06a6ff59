package hub

import "errors"

// Domain errors for the hub package.
var (
	// ErrRequestFailed is returned when a REST request to the hub
	// returns a non-2xx status.
	ErrRequestFailed = errors.New("hub: request failed")

	// ErrCallFailed is returned when the hub answers a WebSocket call
	// with success=false. The wrapped message carries the hub's error
	// code and text.
	ErrCallFailed = errors.New("hub: call failed")

	// ErrUnexpectedPayload is returned when a hub response does not
	// have the shape the operation requires.
	ErrUnexpectedPayload = errors.New("hub: unexpected payload shape")
)
