package hub

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hearthlabs/hearthctl/internal/envelope"
)

// entityStateSchema describes a single entity state object as the hub
// serialises it, both over REST (/api/states) and inside state_changed
// events.
var entityStateSchema = envelope.NewSchema(
	envelope.Field{Name: "entity_id", Path: []string{"entity_id"}, Required: true},
	envelope.Field{Name: "state", Path: []string{"state"}, Required: true},
	envelope.Field{Name: "attributes", Path: []string{"attributes"}},
	envelope.Field{Name: "last_changed", Path: []string{"last_changed"}},
	envelope.Field{Name: "last_updated", Path: []string{"last_updated"}},
)

// EntityState is a read-only view over one entity's state payload.
type EntityState struct {
	*envelope.Envelope
}

// NewEntityState validates and wraps a raw state payload.
//
// Parameters:
//   - payload: decoded JSON object for a single entity
//
// Returns:
//   - *EntityState: immutable view over the payload
//   - error: envelope.MissingFieldError if a required field is absent
func NewEntityState(payload map[string]any) (*EntityState, error) {
	env, err := envelope.New(entityStateSchema, payload)
	if err != nil {
		return nil, err
	}
	return &EntityState{Envelope: env}, nil
}

// WrapEntityState adapts NewEntityState to an envelope field wrapper so
// that parent records can declare nested state objects.
func WrapEntityState(value any) (any, error) {
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: entity state is %T, want object", ErrUnexpectedPayload, value)
	}
	return NewEntityState(obj)
}

// EntityID returns the full entity identifier, e.g. "light.kitchen".
func (s *EntityState) EntityID() string {
	id, _ := s.Get("entity_id").(string)
	return id
}

// State returns the entity's current state string.
func (s *EntityState) State() string {
	st, _ := s.Get("state").(string)
	return st
}

// Domain returns the part of the entity id before the first dot, or the
// whole id when no dot is present.
func (s *EntityState) Domain() string {
	id := s.EntityID()
	if i := strings.IndexByte(id, '.'); i >= 0 {
		return id[:i]
	}
	return id
}

// Attributes returns the entity's attribute map. The map is part of the
// envelope's private copy; callers must not mutate it.
func (s *EntityState) Attributes() map[string]any {
	attrs, _ := s.Get("attributes").(map[string]any)
	return attrs
}

// LastChanged returns the hub's last_changed timestamp string, empty if
// the hub omitted it.
func (s *EntityState) LastChanged() string {
	ts, _ := s.Get("last_changed").(string)
	return ts
}

// NumericFields extracts every numeric measurement the state carries:
// the state string itself when it parses as a float, plus any attribute
// holding a JSON number or boolean. Booleans map to 1 and 0. The result
// is what the telemetry sink writes as fields.
func (s *EntityState) NumericFields() map[string]float64 {
	fields := make(map[string]float64)
	if v, err := strconv.ParseFloat(s.State(), 64); err == nil {
		fields["state"] = v
	}
	for key, raw := range s.Attributes() {
		switch v := raw.(type) {
		case float64:
			fields[key] = v
		case bool:
			if v {
				fields[key] = 1
			} else {
				fields[key] = 0
			}
		}
	}
	return fields
}

// stateListSchema describes a reply whose result is a list of entity
// states, as returned by the get_states command and GET /api/states.
var stateListSchema = envelope.NewSchema(
	envelope.Field{Name: "states", Path: []string{"result"}, Required: true, Wrap: WrapEntityState},
)

// StateList is a read-only view over a full state dump from the hub.
type StateList struct {
	*envelope.Envelope
}

// NewStateList validates and wraps a payload of the form
// {"result": [state, state, ...]}.
func NewStateList(payload map[string]any) (*StateList, error) {
	env, err := envelope.New(stateListSchema, payload)
	if err != nil {
		return nil, err
	}
	return &StateList{Envelope: env}, nil
}

// States returns the wrapped entity states in hub order.
func (l *StateList) States() []*EntityState {
	raw, ok := l.Get("states").([]any)
	if !ok {
		return nil
	}
	states := make([]*EntityState, 0, len(raw))
	for _, item := range raw {
		if st, ok := item.(*EntityState); ok {
			states = append(states, st)
		}
	}
	return states
}

// Find returns the state for entityID, or nil if the dump does not
// contain it.
func (l *StateList) Find(entityID string) *EntityState {
	for _, st := range l.States() {
		if st.EntityID() == entityID {
			return st
		}
	}
	return nil
}

// hubConfigSchema describes the hub's configuration object as returned
// by GET /api/config and the get_config command.
var hubConfigSchema = envelope.NewSchema(
	envelope.Field{Name: "location_name", Path: []string{"location_name"}, Required: true},
	envelope.Field{Name: "version", Path: []string{"version"}, Required: true},
	envelope.Field{Name: "time_zone", Path: []string{"time_zone"}},
	envelope.Field{Name: "unit_system", Path: []string{"unit_system"}},
	envelope.Field{Name: "state", Path: []string{"state"}},
)

// HubConfig is a read-only view over the hub's configuration payload.
type HubConfig struct {
	*envelope.Envelope
}

// NewHubConfig validates and wraps a raw configuration payload.
func NewHubConfig(payload map[string]any) (*HubConfig, error) {
	env, err := envelope.New(hubConfigSchema, payload)
	if err != nil {
		return nil, err
	}
	return &HubConfig{Envelope: env}, nil
}

// LocationName returns the hub installation's friendly name.
func (c *HubConfig) LocationName() string {
	name, _ := c.Get("location_name").(string)
	return name
}

// Version returns the hub's software version string.
func (c *HubConfig) Version() string {
	v, _ := c.Get("version").(string)
	return v
}

// TimeZone returns the hub's configured time zone, empty if omitted.
func (c *HubConfig) TimeZone() string {
	tz, _ := c.Get("time_zone").(string)
	return tz
}

// eventSchema describes an event frame pushed over an active
// subscription. Only state_changed events carry the nested old and new
// states, so those fields are optional.
var eventSchema = envelope.NewSchema(
	envelope.Field{Name: "event_type", Path: []string{"event", "event_type"}, Required: true},
	envelope.Field{Name: "entity_id", Path: []string{"event", "data", "entity_id"}},
	envelope.Field{Name: "new_state", Path: []string{"event", "data", "new_state"}, Wrap: wrapOptionalState},
	envelope.Field{Name: "old_state", Path: []string{"event", "data", "old_state"}, Wrap: wrapOptionalState},
	envelope.Field{Name: "time_fired", Path: []string{"event", "time_fired"}},
)

// wrapOptionalState tolerates null states: a state_changed event for a
// freshly created entity carries old_state: null.
func wrapOptionalState(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	return WrapEntityState(value)
}

// Event is a read-only view over one event frame from the hub.
type Event struct {
	*envelope.Envelope
}

// NewEvent validates and wraps a raw event message.
func NewEvent(payload map[string]any) (*Event, error) {
	env, err := envelope.New(eventSchema, payload)
	if err != nil {
		return nil, err
	}
	return &Event{Envelope: env}, nil
}

// EventType returns the event's type, e.g. "state_changed".
func (e *Event) EventType() string {
	t, _ := e.Get("event_type").(string)
	return t
}

// EntityID returns the entity the event concerns, empty for events that
// are not entity scoped.
func (e *Event) EntityID() string {
	id, _ := e.Get("entity_id").(string)
	return id
}

// NewState returns the entity's state after the event, nil when the
// event carries none.
func (e *Event) NewState() *EntityState {
	st, _ := e.Get("new_state").(*EntityState)
	return st
}

// OldState returns the entity's state before the event, nil when the
// event carries none.
func (e *Event) OldState() *EntityState {
	st, _ := e.Get("old_state").(*EntityState)
	return st
}
