package socket

import "fmt"

// State is the lifecycle state of a Conn.
//
// Transitions are monotonic and one-directional:
//
//	StateUninitialized → StateOpen → StateClosed
//
// There is no transition out of StateClosed. The reader goroutine owns
// both transitions; all other code only observes.
type State int32

const (
	// StateUninitialized is the state before the reader has started.
	StateUninitialized State = iota

	// StateOpen means the handshake completed and the reader is running.
	StateOpen

	// StateClosed means the peer closed the stream or a read failed.
	// Terminal.
	StateClosed
)

// String returns the state name.
//
// A value outside the defined states is a fatal configuration error,
// never silently normalised: it panics.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		panic(fmt.Sprintf("socket: undefined connection state %d", int32(s)))
	}
}

// valid reports whether s is one of the three defined states.
func (s State) valid() bool {
	return s == StateUninitialized || s == StateOpen || s == StateClosed
}
