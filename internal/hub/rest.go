package hub

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hearthlabs/hearthctl/internal/transport"
)

// RESTOptions configures a synchronous REST client.
type RESTOptions struct {
	// Endpoint is the hub address (host:port, bare host, or URL).
	Endpoint string

	// Token is the long-lived access token sent as a bearer credential.
	Token string

	// TLS selects https instead of http.
	TLS bool

	// Timeout bounds each request end to end. Zero means 30 seconds.
	Timeout time.Duration
}

// RESTClient talks to the hub's synchronous HTTP API. It is safe for
// concurrent use.
type RESTClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewRESTClient builds a REST client for the given hub.
//
// Parameters:
//   - opts: endpoint, credentials and timeout
//
// Returns:
//   - *RESTClient: ready-to-use client
//   - error: transport.ErrConnectionFailed if the endpoint does not parse
func NewRESTClient(opts RESTOptions) (*RESTClient, error) {
	addr, err := transport.ParseEndpoint(opts.Endpoint)
	if err != nil {
		return nil, err
	}
	scheme := "http"
	if opts.TLS {
		scheme = "https"
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &RESTClient{
		baseURL: scheme + "://" + addr,
		token:   opts.Token,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// Ping verifies the API is reachable and the token is accepted.
func (c *RESTClient) Ping(ctx context.Context) error {
	var reply map[string]any
	return c.do(ctx, http.MethodGet, "/api/", nil, &reply)
}

// States fetches the full state dump.
func (c *RESTClient) States(ctx context.Context) (*StateList, error) {
	var states []any
	if err := c.do(ctx, http.MethodGet, "/api/states", nil, &states); err != nil {
		return nil, err
	}
	return NewStateList(map[string]any{"result": states})
}

// State fetches a single entity's state.
func (c *RESTClient) State(ctx context.Context, entityID string) (*EntityState, error) {
	var payload map[string]any
	if err := c.do(ctx, http.MethodGet, "/api/states/"+entityID, nil, &payload); err != nil {
		return nil, err
	}
	return NewEntityState(payload)
}

// Config fetches the hub's configuration.
func (c *RESTClient) Config(ctx context.Context) (*HubConfig, error) {
	var payload map[string]any
	if err := c.do(ctx, http.MethodGet, "/api/config", nil, &payload); err != nil {
		return nil, err
	}
	return NewHubConfig(payload)
}

// CallService invokes a service over REST. data may be nil. The hub
// responds with the states the call changed.
func (c *RESTClient) CallService(ctx context.Context, domain, service string, data map[string]any) (*StateList, error) {
	if data == nil {
		data = map[string]any{}
	}
	var changed []any
	path := "/api/services/" + domain + "/" + service
	if err := c.do(ctx, http.MethodPost, path, data, &changed); err != nil {
		return nil, err
	}
	return NewStateList(map[string]any{"result": changed})
}

// do performs one authenticated request and decodes the JSON reply into
// out. A non-2xx status becomes ErrRequestFailed carrying the status
// and response body.
func (c *RESTClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", transport.ErrConnectionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s %s: status %d: %s",
			ErrRequestFailed, method, path, resp.StatusCode, bytes.TrimSpace(detail))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %w", ErrUnexpectedPayload, err)
	}
	return nil
}
