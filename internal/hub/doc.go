// Package hub provides typed access to a Hearth hub over both of its
// transports: the synchronous REST API and the persistent WebSocket
// command channel.
//
// RESTClient covers one-shot requests where no session is worth
// holding: state dumps, single entity reads, service calls. Client
// wraps an authenticated session for the command channel and adds
// result/success handling on top of the session's correlation.
//
// Record types (EntityState, StateList, HubConfig, Event) are immutable
// envelope views over hub payloads. They validate required fields at
// construction, so downstream code reads them without nil checking
// every level of the payload.
//
// Thread Safety: RESTClient and Client are safe for concurrent use.
// Record types are read-only after construction and safe to share.
package hub
