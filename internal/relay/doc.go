// Package relay pumps the hub's pushed event stream into local sinks
// and bridges broker commands back to the hub.
//
// One Relay subscribes to all hub events over the authenticated
// session, then fans each state_changed event out to:
//
//   - the SQLite history store (what happened, queryable offline)
//   - InfluxDB state metrics (numeric values for dashboards)
//   - retained MQTT state topics (hearth/state/{domain}/{entity})
//
// Non-state events are republished under hearth/event/{type}. In the
// other direction, JSON published to hearth/command/{domain}/{service}
// becomes a call_service on the hub.
//
// Every sink is optional; a sink failure is logged and counted but
// never stops the pipeline. The pipeline stops when the context is
// cancelled or the hub connection closes.
package relay
