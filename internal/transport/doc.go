// Package transport provides the raw byte stream to the Hearth hub.
//
// This is the lowest layer of the WebSocket stack: a plain TCP
// connection that carries opaque chunks. It knows nothing about
// WebSocket framing or JSON; the socket package layers those on top by
// handing a Conn to the WebSocket dialer.
//
// # Thread Safety
//
// A Conn supports one concurrent reader and one concurrent writer,
// matching the guarantees of the underlying net.Conn.
package transport
