package hub

import (
	"context"
	"fmt"

	"github.com/hearthlabs/hearthctl/internal/session"
	"github.com/hearthlabs/hearthctl/internal/socket"
)

// Client exposes the hub's command set over an authenticated WebSocket
// session. It is a thin typed layer: correlation, ordering and the
// event stream live in the session underneath.
type Client struct {
	sess *session.Session
}

// Connect opens, authenticates and wraps a session in one step.
func Connect(ctx context.Context, opts session.Options) (*Client, error) {
	sess, err := session.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	return NewClient(sess), nil
}

// NewClient wraps an already authenticated session.
func NewClient(sess *session.Session) *Client {
	return &Client{sess: sess}
}

// Session returns the underlying session.
func (c *Client) Session() *session.Session {
	return c.sess
}

// States fetches the full state dump over the socket.
func (c *Client) States(ctx context.Context) (*StateList, error) {
	reply, err := c.call(ctx, "get_states", nil)
	if err != nil {
		return nil, err
	}
	return NewStateList(reply)
}

// Config fetches the hub's configuration over the socket.
func (c *Client) Config(ctx context.Context) (*HubConfig, error) {
	reply, err := c.call(ctx, "get_config", nil)
	if err != nil {
		return nil, err
	}
	result, ok := reply["result"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: get_config result is not an object", ErrUnexpectedPayload)
	}
	return NewHubConfig(result)
}

// Services fetches the hub's service catalog, keyed by domain.
func (c *Client) Services(ctx context.Context) (map[string]any, error) {
	reply, err := c.call(ctx, "get_services", nil)
	if err != nil {
		return nil, err
	}
	catalog, ok := reply["result"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: get_services result is not an object", ErrUnexpectedPayload)
	}
	return catalog, nil
}

// CallService invokes a service on the hub.
//
// Parameters:
//   - ctx: bounds the round trip
//   - domain, service: service address, e.g. "light", "turn_on"
//   - data: service payload; may carry "entity_id" to target entities
//
// Returns:
//   - error: ErrCallFailed if the hub rejects the call
func (c *Client) CallService(ctx context.Context, domain, service string, data map[string]any) error {
	params := map[string]any{
		"domain":  domain,
		"service": service,
	}
	if len(data) > 0 {
		params["service_data"] = data
	}
	_, err := c.call(ctx, "call_service", params)
	return err
}

// SubscribeEvents asks the hub to push events over this session.
// eventType narrows the subscription; empty subscribes to everything.
// The returned id identifies the subscription in pushed event frames.
func (c *Client) SubscribeEvents(ctx context.Context, eventType string) (int64, error) {
	var params map[string]any
	if eventType != "" {
		params = map[string]any{"event_type": eventType}
	}
	reply, err := c.call(ctx, "subscribe_events", params)
	if err != nil {
		return 0, err
	}
	id, _ := reply.ID()
	return id, nil
}

// Raw sends an arbitrary command and returns the hub's raw reply after
// the success check.
func (c *Client) Raw(ctx context.Context, msgType string, params map[string]any) (socket.Message, error) {
	return c.call(ctx, msgType, params)
}

// Events returns the session's pushed-event stream. Decode frames with
// NewEvent as needed.
func (c *Client) Events() <-chan socket.Message {
	return c.sess.Events()
}

// Close tears down the underlying session.
func (c *Client) Close() error {
	return c.sess.Close()
}

// call performs one round trip and converts a success=false reply into
// ErrCallFailed carrying the hub's error code and message.
func (c *Client) call(ctx context.Context, msgType string, params map[string]any) (socket.Message, error) {
	reply, err := c.sess.Call(ctx, msgType, params)
	if err != nil {
		return nil, err
	}
	if success, ok := reply["success"].(bool); ok && !success {
		code, text := callError(reply)
		return nil, fmt.Errorf("%w: %s: %s (%s)", ErrCallFailed, msgType, text, code)
	}
	return reply, nil
}

// callError pulls the error code and message out of a failed reply.
func callError(reply socket.Message) (code, text string) {
	code, text = "unknown", "no detail"
	detail, ok := reply["error"].(map[string]any)
	if !ok {
		return code, text
	}
	if c, ok := detail["code"].(string); ok {
		code = c
	}
	if m, ok := detail["message"].(string); ok {
		text = m
	}
	return code, text
}
