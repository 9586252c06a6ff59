package relay

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hearthlabs/hearthctl/internal/infrastructure/mqtt"
	"github.com/hearthlabs/hearthctl/internal/socket"
)

// fakeHub feeds frames through a channel and records service calls.
type fakeHub struct {
	events chan socket.Message

	mu    sync.Mutex
	calls []serviceCall
}

type serviceCall struct {
	domain  string
	service string
	data    map[string]any
}

func newFakeHub() *fakeHub {
	return &fakeHub{events: make(chan socket.Message, 16)}
}

func (h *fakeHub) SubscribeEvents(ctx context.Context, eventType string) (int64, error) {
	return 1, nil
}

func (h *fakeHub) CallService(ctx context.Context, domain, service string, data map[string]any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, serviceCall{domain: domain, service: service, data: data})
	return nil
}

func (h *fakeHub) Events() <-chan socket.Message {
	return h.events
}

func (h *fakeHub) callCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.calls)
}

// fakeHistory records Record calls and can be told to fail.
type fakeHistory struct {
	mu      sync.Mutex
	records []string
	fail    bool
}

func (s *fakeHistory) Record(ctx context.Context, entityID, state, oldState string, attributes map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("disk full")
	}
	s.records = append(s.records, entityID+"="+state)
	return nil
}

func (s *fakeHistory) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	return 0, nil
}

func (s *fakeHistory) recorded() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.records...)
}

// fakeMetrics counts writes.
type fakeMetrics struct {
	mu     sync.Mutex
	points map[string]float64
	events []string
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{points: make(map[string]float64)}
}

func (m *fakeMetrics) WriteStateMetric(entityID, domain, field string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.points[entityID+"/"+field] = value
}

func (m *fakeMetrics) WriteEventCount(eventType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, eventType)
}

// fakeBroker captures published messages.
type fakeBroker struct {
	mu       sync.Mutex
	messages map[string][]byte
	retained map[string]bool
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{
		messages: make(map[string][]byte),
		retained: make(map[string]bool),
	}
}

func (b *fakeBroker) Publish(topic string, payload []byte, qos byte, retained bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages[topic] = payload
	b.retained[topic] = retained
	return nil
}

func (b *fakeBroker) PublishRetained(topic string, payload []byte) error {
	return b.Publish(topic, payload, 1, true)
}

func (b *fakeBroker) Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error {
	return nil
}

func (b *fakeBroker) message(topic string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	payload, ok := b.messages[topic]
	return payload, ok
}

func stateChangedFrame(entityID, state, oldState string) socket.Message {
	var old any
	if oldState != "" {
		old = map[string]any{"entity_id": entityID, "state": oldState}
	}
	return socket.Message{
		"id":   float64(1),
		"type": "event",
		"event": map[string]any{
			"event_type": "state_changed",
			"data": map[string]any{
				"entity_id": entityID,
				"old_state": old,
				"new_state": map[string]any{
					"entity_id": entityID,
					"state":     state,
					"attributes": map[string]any{
						"battery": float64(90),
					},
				},
			},
		},
	}
}

// runRelay starts Run in a goroutine and returns a stop function that
// cancels and waits for it.
func runRelay(t *testing.T, r *Relay) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	return func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Run() error = %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("Run() did not stop on cancel")
		}
	}
}

// waitFor polls until cond is true or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestStateChangeFansOut(t *testing.T) {
	hubClient := newFakeHub()
	history := &fakeHistory{}
	metrics := newFakeMetrics()
	broker := newFakeBroker()

	r, err := New(Options{
		Hub: hubClient, History: history, Metrics: metrics, Broker: broker,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	stop := runRelay(t, r)
	defer stop()

	hubClient.events <- stateChangedFrame("sensor.hall_temp", "21.5", "21.0")

	waitFor(t, func() bool { return r.Stats().States == 1 })

	if got := history.recorded(); len(got) != 1 || got[0] != "sensor.hall_temp=21.5" {
		t.Errorf("history records = %v", got)
	}

	metrics.mu.Lock()
	stateVal := metrics.points["sensor.hall_temp/state"]
	batteryVal := metrics.points["sensor.hall_temp/battery"]
	metrics.mu.Unlock()
	if stateVal != 21.5 {
		t.Errorf("state metric = %v, want 21.5", stateVal)
	}
	if batteryVal != 90 {
		t.Errorf("battery metric = %v, want 90", batteryVal)
	}

	payload, ok := broker.message("hearth/state/sensor/hall_temp")
	if !ok {
		t.Fatal("no retained state message published")
	}
	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("decoding published payload: %v", err)
	}
	if decoded["state"] != "21.5" {
		t.Errorf("published state = %v", decoded["state"])
	}
	broker.mu.Lock()
	retained := broker.retained["hearth/state/sensor/hall_temp"]
	broker.mu.Unlock()
	if !retained {
		t.Error("state message not retained")
	}
}

func TestNonStateEventRepublished(t *testing.T) {
	hubClient := newFakeHub()
	metrics := newFakeMetrics()
	broker := newFakeBroker()

	r, err := New(Options{Hub: hubClient, Metrics: metrics, Broker: broker})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	stop := runRelay(t, r)
	defer stop()

	hubClient.events <- socket.Message{
		"id":   float64(1),
		"type": "event",
		"event": map[string]any{
			"event_type": "automation_triggered",
			"data":       map[string]any{"name": "sunrise"},
		},
	}

	waitFor(t, func() bool { return r.Stats().Events == 1 })
	waitFor(t, func() bool {
		_, ok := broker.message("hearth/event/automation_triggered")
		return ok
	})

	metrics.mu.Lock()
	counted := len(metrics.events) == 1 && metrics.events[0] == "automation_triggered"
	metrics.mu.Unlock()
	if !counted {
		t.Error("event count not written")
	}
}

func TestSinkFailureDoesNotStopPipeline(t *testing.T) {
	hubClient := newFakeHub()
	history := &fakeHistory{fail: true}

	r, err := New(Options{Hub: hubClient, History: history})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	stop := runRelay(t, r)
	defer stop()

	hubClient.events <- stateChangedFrame("light.kitchen", "on", "off")
	hubClient.events <- stateChangedFrame("light.kitchen", "off", "on")

	waitFor(t, func() bool { return r.Stats().States == 2 })

	if fails := r.Stats().SinkFails; fails != 2 {
		t.Errorf("SinkFails = %d, want 2", fails)
	}
}

func TestRunStopsWhenHubCloses(t *testing.T) {
	hubClient := newFakeHub()

	r, err := New(Options{Hub: hubClient})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background()) }()

	close(hubClient.events)

	select {
	case err := <-done:
		if !errors.Is(err, socket.ErrClosed) {
			t.Errorf("Run() error = %v, want socket.ErrClosed", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after hub close")
	}
}

func TestHandleCommand(t *testing.T) {
	hubClient := newFakeHub()
	r, err := New(Options{Hub: hubClient})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	payload := []byte(`{"entity_id":"light.kitchen","brightness":128}`)
	if err := r.handleCommand("hearth/command/light/turn_on", payload); err != nil {
		t.Fatalf("handleCommand() error = %v", err)
	}

	hubClient.mu.Lock()
	defer hubClient.mu.Unlock()
	if len(hubClient.calls) != 1 {
		t.Fatalf("hub received %d calls, want 1", len(hubClient.calls))
	}
	call := hubClient.calls[0]
	if call.domain != "light" || call.service != "turn_on" {
		t.Errorf("call = %s.%s", call.domain, call.service)
	}
	if call.data["entity_id"] != "light.kitchen" {
		t.Errorf("call data = %v", call.data)
	}
	if r.Stats().Commands != 1 {
		t.Errorf("Commands = %d, want 1", r.Stats().Commands)
	}
}

func TestHandleCommandEmptyPayload(t *testing.T) {
	hubClient := newFakeHub()
	r, _ := New(Options{Hub: hubClient})

	if err := r.handleCommand("hearth/command/homeassistant/restart", nil); err != nil {
		t.Fatalf("handleCommand() error = %v", err)
	}
	if hubClient.callCount() != 1 {
		t.Errorf("hub received %d calls, want 1", hubClient.callCount())
	}
}

func TestHandleCommandMalformedTopic(t *testing.T) {
	hubClient := newFakeHub()
	r, _ := New(Options{Hub: hubClient})

	for _, topic := range []string{
		"hearth/command/light",
		"hearth/state/light/turn_on",
		"other/command/light/turn_on",
		"hearth/command//turn_on",
	} {
		err := r.handleCommand(topic, nil)
		if err == nil || !strings.Contains(err.Error(), "malformed command topic") {
			t.Errorf("handleCommand(%q) error = %v, want malformed topic error", topic, err)
		}
	}
	if hubClient.callCount() != 0 {
		t.Errorf("hub received %d calls, want 0", hubClient.callCount())
	}
}

func TestNewRequiresHub(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatal("New() without hub client did not error")
	}
}

func TestSplitEntityID(t *testing.T) {
	tests := []struct {
		in     string
		domain string
		name   string
	}{
		{"light.kitchen", "light", "kitchen"},
		{"sensor.hall_temp", "sensor", "hall_temp"},
		{"nodot", "unknown", "nodot"},
	}
	for _, tt := range tests {
		domain, name := splitEntityID(tt.in)
		if domain != tt.domain || name != tt.name {
			t.Errorf("splitEntityID(%q) = %q, %q", tt.in, domain, name)
		}
	}
}
