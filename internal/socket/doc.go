// Package socket turns the raw byte transport into a message-oriented,
// stateful channel to the Hearth hub.
//
// A Conn performs the WebSocket handshake over the frame transport,
// runs exactly one background reader goroutine, and deposits each
// decoded text frame into an unbounded FIFO inbox. Callers take
// messages off the inbox with PopInbox.
//
// # Lifecycle
//
//	uninitialized → open → closed
//
// Transitions are monotonic and are written only by the reader
// goroutine; every other goroutine just observes State(). Closed is
// terminal: there is no reconnection at this layer.
//
// # Concurrency
//
// The inbox is the single shared mutable resource between the reader
// and caller goroutines. The producer never blocks on push; consumers
// block on pop until data exists or their context is cancelled.
package socket
