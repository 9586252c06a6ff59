package transport

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync/atomic"
	"time"
)

// defaultPort is the port assumed when the hub endpoint omits one.
const defaultPort = "8123"

// Conn is a raw bidirectional byte stream to the hub.
//
// It carries opaque chunks: Read may return partial protocol frames,
// and reassembly is the responsibility of the layer above. There is no
// buffering beyond what the underlying socket provides.
//
// Conn implements net.Conn so it can be handed directly to a
// WebSocket dialer's NetDialContext.
type Conn struct {
	net.Conn
	open atomic.Bool
}

// Dial opens a raw TCP stream to the given endpoint.
//
// Parameters:
//   - ctx: Context for cancellation and connect deadline
//   - endpoint: Hub address as host:port (port defaults to 8123)
//
// Returns:
//   - *Conn: Open stream ready for use
//   - error: ErrConnectionFailed if the remote is unreachable or
//     refuses the connection
func Dial(ctx context.Context, endpoint string) (*Conn, error) {
	addr, err := ParseEndpoint(endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	var dialer net.Dialer
	nc, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", ErrConnectionFailed, addr, err)
	}

	c := &Conn{Conn: nc}
	c.open.Store(true)
	return c, nil
}

// ParseEndpoint normalises a hub endpoint to host:port form.
//
// Accepted forms:
//   - "host:port"
//   - "host" (port defaults to 8123)
//   - "http://host:port" / "https://host:port" (scheme and path stripped,
//     since the hub advertises its HTTP address)
//
// Returns:
//   - string: host:port address suitable for net.Dial
//   - error: If the endpoint is empty or unparseable
func ParseEndpoint(endpoint string) (string, error) {
	if endpoint == "" {
		return "", fmt.Errorf("empty endpoint")
	}

	// Strip an http(s) scheme if the caller pasted the hub's base URL.
	if strings.Contains(endpoint, "://") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return "", fmt.Errorf("invalid endpoint URL: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return "", fmt.Errorf("unsupported scheme %q (use http or https)", u.Scheme)
		}
		endpoint = u.Host
		if endpoint == "" {
			return "", fmt.Errorf("endpoint URL has no host")
		}
	}

	if _, _, err := net.SplitHostPort(endpoint); err != nil {
		// No port; apply the default.
		endpoint = net.JoinHostPort(endpoint, defaultPort)
		if _, _, err := net.SplitHostPort(endpoint); err != nil {
			return "", fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
		}
	}

	return endpoint, nil
}

// Write sends a chunk of bytes on the stream.
//
// Returns:
//   - error: ErrNotOpen if the stream has been closed, otherwise any
//     socket-level write error wrapped in ErrConnectionFailed
func (c *Conn) Write(p []byte) (int, error) {
	if !c.open.Load() {
		return 0, ErrNotOpen
	}
	n, err := c.Conn.Write(p)
	if err != nil {
		return n, fmt.Errorf("%w: write: %w", ErrConnectionFailed, err)
	}
	return n, nil
}

// Read blocks until at least one chunk of data is available and fills p.
//
// The returned bytes may be a partial protocol frame; framing is the
// caller's job.
//
// Returns:
//   - int: Number of bytes read
//   - error: ErrNotOpen if the stream has been closed locally, io.EOF
//     when the remote closes, otherwise the socket-level read error
func (c *Conn) Read(p []byte) (int, error) {
	if !c.open.Load() {
		return 0, ErrNotOpen
	}
	return c.Conn.Read(p)
}

// Close shuts the stream down. Safe to call more than once.
func (c *Conn) Close() error {
	if !c.open.CompareAndSwap(true, false) {
		return nil
	}
	return c.Conn.Close()
}

// IsOpen reports whether the stream is still open locally.
func (c *Conn) IsOpen() bool {
	return c.open.Load()
}

// SetDeadline applies a read and write deadline to the stream.
func (c *Conn) SetDeadline(t time.Time) error {
	return c.Conn.SetDeadline(t)
}
