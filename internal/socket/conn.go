package socket

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hearthlabs/hearthctl/internal/transport"
)

const (
	// apiPath is the fixed WebSocket path on the hub.
	apiPath = "/api/websocket"

	// defaultHandshakeTimeout bounds the WebSocket opening handshake.
	defaultHandshakeTimeout = 10 * time.Second
)

// Logger interface for optional logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Options configures a Conn.
type Options struct {
	// Endpoint is the hub address, host:port (port defaults to 8123).
	Endpoint string

	// TLS dials wss instead of ws.
	TLS bool

	// HandshakeTimeout bounds the WebSocket opening handshake.
	// Default: 10 seconds.
	HandshakeTimeout time.Duration
}

// Stats holds operational counters for a Conn.
type Stats struct {
	FramesRx uint64
	FramesTx uint64
	State    State
	Queued   int
}

// Conn is a message-oriented, stateful channel to the hub.
//
// It wraps the raw frame transport with the WebSocket handshake and
// framing layer, decodes incoming text frames into Messages, and
// deposits them into an unbounded FIFO inbox in arrival order.
//
// Lifecycle is monotonic: uninitialized → open → closed. Exactly one
// background reader goroutine exists per Conn; it owns both state
// transitions. Starting a second reader is a programming error.
//
// Thread Safety:
//   - Send, PopInbox, State, and Stats are safe for concurrent use.
type Conn struct {
	opts Options

	ws  *websocket.Conn
	raw *transport.Conn

	state  atomic.Int32
	opened atomic.Bool
	ready  chan struct{}

	inbox *inbox

	// Serialises writes; gorilla/websocket permits one concurrent writer.
	writeMu sync.Mutex

	wg sync.WaitGroup

	logger   Logger
	loggerMu sync.RWMutex

	framesRx atomic.Uint64
	framesTx atomic.Uint64
}

// New creates an unopened Conn for the given options.
func New(opts Options) *Conn {
	if opts.HandshakeTimeout == 0 {
		opts.HandshakeTimeout = defaultHandshakeTimeout
	}
	return &Conn{
		opts:  opts,
		inbox: newInbox(),
		ready: make(chan struct{}),
	}
}

// Open constructs the frame transport, performs the WebSocket
// handshake, and starts the single background reader goroutine.
//
// Open returns once the reader is running and the connection has
// reached StateOpen.
//
// Parameters:
//   - ctx: Context for cancellation and connect deadline
//
// Returns:
//   - error: ErrAlreadyOpen if a reader is already running on this
//     Conn; transport.ErrConnectionFailed if the hub is unreachable or
//     the handshake fails
func (c *Conn) Open(ctx context.Context) error {
	if !c.opened.CompareAndSwap(false, true) {
		return ErrAlreadyOpen
	}

	addr, err := transport.ParseEndpoint(c.opts.Endpoint)
	if err != nil {
		c.opened.Store(false)
		return fmt.Errorf("%w: %w", transport.ErrConnectionFailed, err)
	}

	scheme := "ws"
	if c.opts.TLS {
		scheme = "wss"
	}
	u := url.URL{Scheme: scheme, Host: addr, Path: apiPath}

	dialer := websocket.Dialer{
		HandshakeTimeout: c.opts.HandshakeTimeout,
		// Route the socket through the frame transport so the byte
		// stream and the framing layer stay separable.
		NetDialContext: func(ctx context.Context, _ string, _ string) (net.Conn, error) {
			conn, err := transport.Dial(ctx, c.opts.Endpoint)
			if err != nil {
				return nil, err
			}
			c.raw = conn
			return conn, nil
		},
	}

	ws, resp, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		c.opened.Store(false)
		if resp != nil {
			return fmt.Errorf("%w: handshake rejected with status %d: %w",
				transport.ErrConnectionFailed, resp.StatusCode, err)
		}
		return fmt.Errorf("%w: handshake: %w", transport.ErrConnectionFailed, err)
	}
	c.ws = ws

	c.wg.Add(1)
	go c.readLoop()

	// Wait for the reader to take ownership and transition to open.
	<-c.ready
	return nil
}

// readLoop is the single background reader. It owns the transitions
// into StateOpen and StateClosed and runs until the stream ends.
func (c *Conn) readLoop() {
	defer c.wg.Done()

	c.setState(StateOpen)
	close(c.ready)

	for {
		msgType, data, err := c.ws.ReadMessage()
		if err != nil {
			c.setState(StateClosed)
			c.inbox.close()
			c.logDebug("connection closed", "error", err)
			return
		}

		if msgType != websocket.TextMessage {
			continue
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logWarn("dropping undecodable frame", "error", err)
			continue
		}

		c.framesRx.Add(1)
		c.inbox.push(msg)
	}
}

// Send encodes the message as a text frame and hands it to the
// transport's write path.
//
// Returns:
//   - error: ErrSendClosed once the connection is closed; ErrProtocol
//     if the connection was never opened; otherwise any write error
//     wrapped in transport.ErrConnectionFailed
func (c *Conn) Send(msg Message) error {
	switch c.State() {
	case StateClosed:
		return ErrSendClosed
	case StateUninitialized:
		return fmt.Errorf("%w: send before open", ErrProtocol)
	case StateOpen:
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%w: encoding message: %w", ErrProtocol, err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("%w: write: %w", transport.ErrConnectionFailed, err)
	}

	c.framesTx.Add(1)
	return nil
}

// PopInbox blocks until at least one message is available, then removes
// and returns the oldest (FIFO).
//
// Messages are delivered in the exact order the reader received them;
// no reordering or priority.
//
// Parameters:
//   - ctx: Context for cancellation; a caller that never wants to give
//     up may pass context.Background()
//
// Returns:
//   - Message: The oldest queued message
//   - error: ctx.Err() on cancellation, ErrClosed once the connection
//     is closed and the inbox drained
func (c *Conn) PopInbox(ctx context.Context) (Message, error) {
	return c.inbox.pop(ctx)
}

// State returns the current lifecycle state.
//
// Idempotent and side-effect-free. Panics on a stored value outside the
// defined states; that is a fatal configuration error, not a condition
// to normalise.
func (c *Conn) State() State {
	s := State(c.state.Load())
	if !s.valid() {
		panic(fmt.Sprintf("socket: undefined connection state %d", int32(s)))
	}
	return s
}

// setState records a transition. Only the reader goroutine calls this.
func (c *Conn) setState(s State) {
	if !s.valid() {
		panic(fmt.Sprintf("socket: undefined connection state %d", int32(s)))
	}
	c.state.Store(int32(s))
}

// Close shuts the connection down and waits for the reader to exit.
//
// The reader observes the closed stream and performs the transition to
// StateClosed itself. Safe to call more than once.
func (c *Conn) Close() error {
	if c.ws == nil {
		return nil
	}

	// Best-effort close frame so well-behaved peers see a clean shutdown.
	c.writeMu.Lock()
	c.ws.WriteMessage(websocket.CloseMessage, //nolint:errcheck // Best-effort close frame
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()

	err := c.ws.Close()
	c.wg.Wait()
	return err
}

// SetLogger sets the logger for this connection.
func (c *Conn) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

// Stats returns current operational counters.
func (c *Conn) Stats() Stats {
	return Stats{
		FramesRx: c.framesRx.Load(),
		FramesTx: c.framesTx.Load(),
		State:    c.State(),
		Queued:   c.inbox.len(),
	}
}

func (c *Conn) logDebug(msg string, keysAndValues ...any) {
	c.loggerMu.RLock()
	logger := c.logger
	c.loggerMu.RUnlock()

	if logger != nil {
		logger.Debug(msg, keysAndValues...)
	}
}

func (c *Conn) logWarn(msg string, keysAndValues ...any) {
	c.loggerMu.RLock()
	logger := c.logger
	c.loggerMu.RUnlock()

	if logger != nil {
		logger.Warn(msg, keysAndValues...)
	}
}
