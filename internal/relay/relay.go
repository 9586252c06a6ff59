package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hearthlabs/hearthctl/internal/hub"
	"github.com/hearthlabs/hearthctl/internal/infrastructure/mqtt"
	"github.com/hearthlabs/hearthctl/internal/socket"
)

// commandTimeout bounds one MQTT-initiated service call.
const commandTimeout = 10 * time.Second

// pruneInterval is how often the relay prunes old history rows.
const pruneInterval = time.Hour

// HubClient is the slice of hub.Client the relay needs. Narrowed to an
// interface so tests can feed events without a live hub.
type HubClient interface {
	SubscribeEvents(ctx context.Context, eventType string) (int64, error)
	CallService(ctx context.Context, domain, service string, data map[string]any) error
	Events() <-chan socket.Message
}

// HistorySink records state changes locally.
type HistorySink interface {
	Record(ctx context.Context, entityID, state, oldState string, attributes map[string]any) error
	Prune(ctx context.Context, olderThan time.Time) (int64, error)
}

// MetricsSink records numeric telemetry.
type MetricsSink interface {
	WriteStateMetric(entityID, domain, field string, value float64)
	WriteEventCount(eventType string)
}

// Broker is the slice of mqtt.Client the relay needs.
type Broker interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	PublishRetained(topic string, payload []byte) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Logger matches the logging wrapper. Optional.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Options configures a Relay. Hub is required; each sink is optional
// and simply skipped when nil.
type Options struct {
	Hub     HubClient
	History HistorySink
	Metrics MetricsSink
	Broker  Broker
	Logger  Logger

	// Retention is how long history rows are kept. Zero disables
	// pruning.
	Retention time.Duration
}

// Stats is a snapshot of relay counters.
type Stats struct {
	Events    uint64 // event frames processed
	States    uint64 // state_changed events fanned out
	Commands  uint64 // MQTT commands forwarded to the hub
	SinkFails uint64 // sink errors (logged, not fatal)
}

// Relay pumps hub events into the configured sinks and forwards broker
// commands back to the hub. Sink failures are logged and counted but
// never stop the pipeline; the hub connection closing does.
type Relay struct {
	opts Options

	events    atomic.Uint64
	states    atomic.Uint64
	commands  atomic.Uint64
	sinkFails atomic.Uint64
}

// New builds a relay from options.
func New(opts Options) (*Relay, error) {
	if opts.Hub == nil {
		return nil, fmt.Errorf("relay: hub client is required")
	}
	return &Relay{opts: opts}, nil
}

// Run subscribes and pumps events until ctx is cancelled or the hub
// connection closes.
//
// Returns:
//   - error: nil on ctx cancellation; socket.ErrClosed (wrapped) when
//     the hub connection drops; subscription errors otherwise
func (r *Relay) Run(ctx context.Context) error {
	if r.opts.Broker != nil {
		topic := mqtt.Topics{}.AllCommands()
		if err := r.opts.Broker.Subscribe(topic, 1, r.handleCommand); err != nil {
			return fmt.Errorf("subscribing to command topic: %w", err)
		}
	}

	if _, err := r.opts.Hub.SubscribeEvents(ctx, ""); err != nil {
		return fmt.Errorf("subscribing to hub events: %w", err)
	}
	r.logInfo("relay running")

	var pruneC <-chan time.Time
	if r.opts.History != nil && r.opts.Retention > 0 {
		ticker := time.NewTicker(pruneInterval)
		defer ticker.Stop()
		pruneC = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-pruneC:
			r.prune(ctx)
		case frame, ok := <-r.opts.Hub.Events():
			if !ok {
				return fmt.Errorf("relay: %w", socket.ErrClosed)
			}
			r.handleFrame(ctx, frame)
		}
	}
}

// Stats returns a snapshot of the relay's counters.
func (r *Relay) Stats() Stats {
	return Stats{
		Events:    r.events.Load(),
		States:    r.states.Load(),
		Commands:  r.commands.Load(),
		SinkFails: r.sinkFails.Load(),
	}
}

// handleFrame decodes one pushed frame and fans it out.
func (r *Relay) handleFrame(ctx context.Context, frame socket.Message) {
	if frame.Type() != "event" {
		return
	}

	event, err := hub.NewEvent(frame)
	if err != nil {
		r.sinkFails.Add(1)
		r.logWarn("dropping malformed event frame", "error", err)
		return
	}
	r.events.Add(1)

	if r.opts.Metrics != nil {
		r.opts.Metrics.WriteEventCount(event.EventType())
	}

	if event.EventType() == "state_changed" && event.NewState() != nil {
		r.fanOutState(ctx, event)
		return
	}

	if r.opts.Broker != nil && event.EventType() != "state_changed" {
		r.publishEvent(event)
	}
}

// fanOutState delivers one state change to every configured sink.
func (r *Relay) fanOutState(ctx context.Context, event *hub.Event) {
	newState := event.NewState()
	r.states.Add(1)

	if r.opts.History != nil {
		var oldState string
		if old := event.OldState(); old != nil {
			oldState = old.State()
		}
		err := r.opts.History.Record(ctx, newState.EntityID(), newState.State(),
			oldState, newState.Attributes())
		if err != nil {
			r.sinkFails.Add(1)
			r.logWarn("history record failed", "entity_id", newState.EntityID(), "error", err)
		}
	}

	if r.opts.Metrics != nil {
		for field, value := range newState.NumericFields() {
			r.opts.Metrics.WriteStateMetric(newState.EntityID(), newState.Domain(), field, value)
		}
	}

	if r.opts.Broker != nil {
		r.publishState(newState)
	}
}

// publishState republishes one entity state as a retained broker
// message.
func (r *Relay) publishState(state *hub.EntityState) {
	domain, name := splitEntityID(state.EntityID())
	topic := mqtt.Topics{}.State(domain, name)

	payload, err := json.Marshal(map[string]any{
		"entity_id":  state.EntityID(),
		"state":      state.State(),
		"attributes": state.Attributes(),
		"changed_at": state.LastChanged(),
	})
	if err != nil {
		r.sinkFails.Add(1)
		r.logWarn("encoding state payload failed", "entity_id", state.EntityID(), "error", err)
		return
	}

	if err := r.opts.Broker.PublishRetained(topic, payload); err != nil {
		r.sinkFails.Add(1)
		r.logWarn("state publish failed", "topic", topic, "error", err)
	}
}

// publishEvent republishes a non-state event, unretained.
func (r *Relay) publishEvent(event *hub.Event) {
	topic := mqtt.Topics{}.Event(event.EventType())
	payload, err := json.Marshal(event.Payload())
	if err != nil {
		r.sinkFails.Add(1)
		r.logWarn("encoding event payload failed", "event_type", event.EventType(), "error", err)
		return
	}
	if err := r.opts.Broker.Publish(topic, payload, 1, false); err != nil {
		r.sinkFails.Add(1)
		r.logWarn("event publish failed", "topic", topic, "error", err)
	}
}

// handleCommand forwards one broker command to the hub as a service
// call. The topic carries the address: hearth/command/{domain}/{service},
// and the payload is the service data object (may be empty).
func (r *Relay) handleCommand(topic string, payload []byte) error {
	domain, service, err := parseCommandTopic(topic)
	if err != nil {
		return err
	}

	var data map[string]any
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &data); err != nil {
			return fmt.Errorf("decoding command payload on %s: %w", topic, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if err := r.opts.Hub.CallService(ctx, domain, service, data); err != nil {
		return fmt.Errorf("forwarding %s.%s to hub: %w", domain, service, err)
	}
	r.commands.Add(1)
	r.logDebug("forwarded command", "domain", domain, "service", service)
	return nil
}

// prune drops history rows older than the retention window.
func (r *Relay) prune(ctx context.Context) {
	cutoff := time.Now().Add(-r.opts.Retention)
	deleted, err := r.opts.History.Prune(ctx, cutoff)
	if err != nil {
		r.sinkFails.Add(1)
		r.logWarn("history prune failed", "error", err)
		return
	}
	if deleted > 0 {
		r.logInfo("pruned history", "rows", deleted)
	}
}

// parseCommandTopic extracts domain and service from a command topic.
func parseCommandTopic(topic string) (domain, service string, err error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != mqtt.TopicPrefix || parts[1] != "command" ||
		parts[2] == "" || parts[3] == "" {
		return "", "", fmt.Errorf("relay: malformed command topic %q", topic)
	}
	return parts[2], parts[3], nil
}

// splitEntityID splits "light.kitchen" into ("light", "kitchen"). An
// id without a dot maps to domain "unknown".
func splitEntityID(entityID string) (domain, name string) {
	if i := strings.IndexByte(entityID, '.'); i >= 0 {
		return entityID[:i], entityID[i+1:]
	}
	return "unknown", entityID
}

func (r *Relay) logDebug(msg string, args ...any) {
	if r.opts.Logger != nil {
		r.opts.Logger.Debug(msg, args...)
	}
}

func (r *Relay) logInfo(msg string, args ...any) {
	if r.opts.Logger != nil {
		r.opts.Logger.Info(msg, args...)
	}
}

func (r *Relay) logWarn(msg string, args ...any) {
	if r.opts.Logger != nil {
		r.opts.Logger.Warn(msg, args...)
	}
}
