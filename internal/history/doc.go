// Package history persists observed state changes to the local SQLite
// store so the CLI can answer "what happened" without the hub.
//
// The relay writes one row per state_changed event; the history command
// reads them back per entity or across the board. Attributes are stored
// as JSON alongside the state string.
//
// Thread Safety: Repository is safe for concurrent use; the underlying
// pool serialises writes.
package history
