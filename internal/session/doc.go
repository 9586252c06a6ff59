// Package session provides the authenticated RPC layer over a hub
// WebSocket connection.
//
// A Session authenticates once with a bearer token, then exposes a
// blocking Call primitive. Each request carries a monotonically
// increasing id; a background dispatcher correlates replies to pending
// requests by that id and routes server-pushed events to a separate
// channel, so unsolicited traffic can never be mistaken for a reply.
//
// One request is in flight at a time. The hub protocol is not
// pipelined and this layer does not pretend otherwise.
package session
