package hub

import (
	"errors"
	"testing"

	"github.com/hearthlabs/hearthctl/internal/envelope"
)

func sampleState() map[string]any {
	return map[string]any{
		"entity_id": "sensor.hall_temp",
		"state":     "21.5",
		"attributes": map[string]any{
			"unit_of_measurement": "°C",
			"battery":             float64(87),
			"charging":            true,
		},
		"last_changed": "2026-08-29T10:00:00+00:00",
	}
}

func TestEntityStateAccessors(t *testing.T) {
	st, err := NewEntityState(sampleState())
	if err != nil {
		t.Fatalf("NewEntityState() error = %v", err)
	}

	if got := st.EntityID(); got != "sensor.hall_temp" {
		t.Errorf("EntityID() = %q, want %q", got, "sensor.hall_temp")
	}
	if got := st.Domain(); got != "sensor" {
		t.Errorf("Domain() = %q, want %q", got, "sensor")
	}
	if got := st.State(); got != "21.5" {
		t.Errorf("State() = %q, want %q", got, "21.5")
	}
	if got := st.LastChanged(); got != "2026-08-29T10:00:00+00:00" {
		t.Errorf("LastChanged() = %q", got)
	}
}

func TestEntityStateMissingRequired(t *testing.T) {
	payload := sampleState()
	delete(payload, "state")

	_, err := NewEntityState(payload)

	var missing *envelope.MissingFieldError
	if !errors.As(err, &missing) {
		t.Fatalf("NewEntityState() error = %v, want MissingFieldError", err)
	}
	if missing.Key != "state" {
		t.Errorf("missing key = %q, want %q", missing.Key, "state")
	}
}

func TestEntityStateNumericFields(t *testing.T) {
	st, err := NewEntityState(sampleState())
	if err != nil {
		t.Fatalf("NewEntityState() error = %v", err)
	}

	fields := st.NumericFields()

	want := map[string]float64{
		"state":    21.5,
		"battery":  87,
		"charging": 1,
	}
	if len(fields) != len(want) {
		t.Fatalf("NumericFields() = %v, want %v", fields, want)
	}
	for key, val := range want {
		if fields[key] != val {
			t.Errorf("NumericFields()[%q] = %v, want %v", key, fields[key], val)
		}
	}
}

func TestEntityStateNonNumericStateSkipped(t *testing.T) {
	payload := sampleState()
	payload["state"] = "on"
	payload["attributes"] = map[string]any{"friendly_name": "Hall"}

	st, err := NewEntityState(payload)
	if err != nil {
		t.Fatalf("NewEntityState() error = %v", err)
	}
	if fields := st.NumericFields(); len(fields) != 0 {
		t.Errorf("NumericFields() = %v, want empty", fields)
	}
}

func TestStateListWrapsElements(t *testing.T) {
	second := sampleState()
	second["entity_id"] = "light.kitchen"
	second["state"] = "on"
	payload := map[string]any{
		"result": []any{sampleState(), second},
	}

	list, err := NewStateList(payload)
	if err != nil {
		t.Fatalf("NewStateList() error = %v", err)
	}

	states := list.States()
	if len(states) != 2 {
		t.Fatalf("States() returned %d entries, want 2", len(states))
	}
	if states[1].EntityID() != "light.kitchen" {
		t.Errorf("states[1].EntityID() = %q", states[1].EntityID())
	}

	if found := list.Find("light.kitchen"); found == nil || found.State() != "on" {
		t.Errorf("Find(light.kitchen) = %v", found)
	}
	if found := list.Find("light.garage"); found != nil {
		t.Errorf("Find(light.garage) = %v, want nil", found)
	}
}

func TestStateListRejectsBadElement(t *testing.T) {
	payload := map[string]any{
		"result": []any{map[string]any{"entity_id": "sensor.broken"}},
	}

	if _, err := NewStateList(payload); err == nil {
		t.Fatal("NewStateList() error = nil, want missing field error")
	}
}

func TestHubConfig(t *testing.T) {
	cfg, err := NewHubConfig(map[string]any{
		"location_name": "Home",
		"version":       "2026.8.1",
		"time_zone":     "Europe/London",
	})
	if err != nil {
		t.Fatalf("NewHubConfig() error = %v", err)
	}

	if cfg.LocationName() != "Home" {
		t.Errorf("LocationName() = %q", cfg.LocationName())
	}
	if cfg.Version() != "2026.8.1" {
		t.Errorf("Version() = %q", cfg.Version())
	}
	if cfg.TimeZone() != "Europe/London" {
		t.Errorf("TimeZone() = %q", cfg.TimeZone())
	}
}

func TestEventStateChanged(t *testing.T) {
	payload := map[string]any{
		"id":   float64(3),
		"type": "event",
		"event": map[string]any{
			"event_type": "state_changed",
			"time_fired": "2026-08-29T10:01:00+00:00",
			"data": map[string]any{
				"entity_id": "sensor.hall_temp",
				"old_state": nil,
				"new_state": sampleState(),
			},
		},
	}

	ev, err := NewEvent(payload)
	if err != nil {
		t.Fatalf("NewEvent() error = %v", err)
	}

	if ev.EventType() != "state_changed" {
		t.Errorf("EventType() = %q", ev.EventType())
	}
	if ev.EntityID() != "sensor.hall_temp" {
		t.Errorf("EntityID() = %q", ev.EntityID())
	}
	if ev.OldState() != nil {
		t.Errorf("OldState() = %v, want nil", ev.OldState())
	}
	newState := ev.NewState()
	if newState == nil || newState.State() != "21.5" {
		t.Errorf("NewState() = %v", newState)
	}
}

func TestEventMissingType(t *testing.T) {
	payload := map[string]any{
		"type":  "event",
		"event": map[string]any{"data": map[string]any{}},
	}

	_, err := NewEvent(payload)

	var missing *envelope.MissingFieldError
	if !errors.As(err, &missing) {
		t.Fatalf("NewEvent() error = %v, want MissingFieldError", err)
	}
	if missing.Key != "event_type" {
		t.Errorf("missing key = %q, want %q", missing.Key, "event_type")
	}
}
