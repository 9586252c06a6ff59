package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hearthlabs/hearthctl/internal/socket"
)

// Auth handshake message types.
const (
	typeAuth         = "auth"
	typeAuthRequired = "auth_required"
	typeAuthInvalid  = "auth_invalid"
)

// eventQueueSize bounds the buffer for server-pushed events. Overflowing
// events are dropped, never allowed to block reply dispatch.
const eventQueueSize = 256

// Logger interface for optional logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
}

// Options configures Connect.
type Options struct {
	// Endpoint is the hub address, host:port.
	Endpoint string

	// Token is the bearer token for the auth handshake.
	Token string

	// TLS dials wss instead of ws.
	TLS bool

	// HandshakeTimeout bounds the WebSocket opening handshake.
	HandshakeTimeout time.Duration
}

// Session is an authenticated request/response channel to the hub.
//
// It owns its Conn exclusively and provides a blocking Call primitive
// with monotonically increasing request identifiers. Replies are
// correlated by id, not by arrival order: a background dispatcher pops
// the inbox and fulfils the pending request whose id matches, so a
// server-pushed event arriving between a request and its reply can
// never be misdelivered as the reply. Unsolicited messages go to the
// Events channel.
//
// Thread Safety:
//   - All methods are safe for concurrent use. Calls are serialised:
//     one in-flight request at a time, matching the hub's non-pipelined
//     usage contract.
type Session struct {
	conn *socket.Conn

	// counter never decreases; each outbound request gets a distinct id.
	counter atomic.Int64

	// callMu serialises calls: the protocol is used non-pipelined.
	callMu sync.Mutex

	// pending maps an outstanding request id to its single-slot reply
	// channel, fulfilled by the dispatcher.
	pending   map[int64]chan socket.Message
	pendingMu sync.Mutex

	// dispatchOnce starts the dispatcher on first use, after auth has
	// consumed its handshake frames directly.
	dispatchOnce sync.Once
	done         chan struct{}

	events  chan socket.Message
	dropped atomic.Uint64

	logger   Logger
	loggerMu sync.RWMutex
}

// Connect opens a connection to the hub and authenticates.
//
// Parameters:
//   - ctx: Context for cancellation and connect deadline
//   - opts: Endpoint and credentials
//
// Returns:
//   - *Session: Authenticated session ready for Call
//   - error: Connection or handshake failures from the socket layer
//     unchanged; ErrInvalidAuth if the hub rejects the token
func Connect(ctx context.Context, opts Options) (*Session, error) {
	conn := socket.New(socket.Options{
		Endpoint:         opts.Endpoint,
		TLS:              opts.TLS,
		HandshakeTimeout: opts.HandshakeTimeout,
	})

	if err := conn.Open(ctx); err != nil {
		return nil, err
	}

	s := New(conn)
	if err := s.Authenticate(ctx, opts.Token); err != nil {
		conn.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, err
	}

	return s, nil
}

// New wraps an already-open connection in a Session.
//
// The session takes exclusive ownership of the connection; no other
// code may pop its inbox afterwards. Authenticate must complete before
// the first Call.
func New(conn *socket.Conn) *Session {
	return &Session{
		conn:    conn,
		pending: make(map[int64]chan socket.Message),
		done:    make(chan struct{}),
		events:  make(chan socket.Message, eventQueueSize),
	}
}

// Authenticate performs the auth handshake.
//
// It sends {"type":"auth","access_token":token}. The hub may send an
// auth_required challenge frame before the outcome frame, so if the
// immediate reply's type is auth_required one more inbox message is
// consumed before deciding.
//
// Parameters:
//   - ctx: Context for cancellation
//   - token: Bearer token
//
// Returns:
//   - error: ErrInvalidAuth (wrapping the server's message text) if
//     the hub rejects the credentials; nil on success
func (s *Session) Authenticate(ctx context.Context, token string) error {
	if err := s.conn.Send(socket.Message{
		"type":         typeAuth,
		"access_token": token,
	}); err != nil {
		return err
	}

	reply, err := s.conn.PopInbox(ctx)
	if err != nil {
		return err
	}

	// The challenge frame precedes the outcome frame; skip it.
	if reply.Type() == typeAuthRequired {
		reply, err = s.conn.PopInbox(ctx)
		if err != nil {
			return err
		}
	}

	if reply.Type() == typeAuthInvalid {
		return fmt.Errorf("%w: %s", ErrInvalidAuth, reply.Text())
	}

	return nil
}

// Call sends a tagged request and blocks for its reply.
//
// The request is {"type": msgType, "id": <next counter>, ...params}.
// The reply is the inbound message whose id matches the request's id;
// any message with a different id or no id at all goes to Events.
//
// Parameters:
//   - ctx: Context for cancellation; without a deadline a lost reply
//     blocks forever
//   - msgType: Request type (e.g. "get_states", "call_service")
//   - params: Additional top-level request fields; "type" and "id" are
//     reserved and ignored if present
//
// Returns:
//   - socket.Message: The correlated reply
//   - error: Connection or protocol errors from the socket layer
//     unchanged; ctx.Err() on cancellation
func (s *Session) Call(ctx context.Context, msgType string, params map[string]any) (socket.Message, error) {
	s.ensureDispatcher()

	s.callMu.Lock()
	defer s.callMu.Unlock()

	id := s.counter.Add(1)

	msg := socket.Message{
		"type": msgType,
		"id":   id,
	}
	for k, v := range params {
		if k == "type" || k == "id" {
			continue
		}
		msg[k] = v
	}

	reply := make(chan socket.Message, 1)
	s.pendingMu.Lock()
	s.pending[id] = reply
	s.pendingMu.Unlock()

	defer func() {
		s.pendingMu.Lock()
		delete(s.pending, id)
		s.pendingMu.Unlock()
	}()

	if err := s.conn.Send(msg); err != nil {
		return nil, err
	}

	select {
	case m := <-reply:
		return m, nil
	case <-s.done:
		return nil, socket.ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Events returns the channel of server-pushed messages (subscription
// events and any other unsolicited traffic). The channel closes when
// the connection closes.
//
// The channel is buffered; when the buffer is full, further events are
// dropped so that a slow consumer can never block reply dispatch.
func (s *Session) Events() <-chan socket.Message {
	s.ensureDispatcher()
	return s.events
}

// DroppedEvents returns the number of events dropped due to a full
// event buffer.
func (s *Session) DroppedEvents() uint64 {
	return s.dropped.Load()
}

// RequestCount returns the number of requests issued so far.
func (s *Session) RequestCount() int64 {
	return s.counter.Load()
}

// Conn exposes the underlying connection for state inspection.
func (s *Session) Conn() *socket.Conn {
	return s.conn
}

// Close shuts the session's connection down.
func (s *Session) Close() error {
	return s.conn.Close()
}

// SetLogger sets the logger for this session.
func (s *Session) SetLogger(logger Logger) {
	s.loggerMu.Lock()
	s.logger = logger
	s.loggerMu.Unlock()
}

// ensureDispatcher starts the background dispatcher exactly once.
//
// The dispatcher must not run during Authenticate, which consumes the
// handshake frames directly off the inbox; it is therefore started
// lazily by the first Call or Events use.
func (s *Session) ensureDispatcher() {
	s.dispatchOnce.Do(func() {
		go s.dispatch()
	})
}

// dispatch pops the inbox until the connection closes, fulfilling
// pending requests by id and diverting everything else to Events.
func (s *Session) dispatch() {
	defer func() {
		close(s.done)
		close(s.events)
	}()

	for {
		msg, err := s.conn.PopInbox(context.Background())
		if err != nil {
			// ErrClosed: connection ended; pending callers are released
			// via the done channel.
			return
		}

		if id, ok := msg.ID(); ok {
			s.pendingMu.Lock()
			reply, waiting := s.pending[id]
			s.pendingMu.Unlock()

			if waiting {
				// Single-slot channel; a duplicate reply for the same id
				// would fall through to the event path.
				select {
				case reply <- msg:
					continue
				default:
				}
			}
		}

		s.deliverEvent(msg)
	}
}

// deliverEvent hands an unsolicited message to the events channel,
// dropping on overflow.
func (s *Session) deliverEvent(msg socket.Message) {
	select {
	case s.events <- msg:
	default:
		s.dropped.Add(1)
		s.loggerMu.RLock()
		logger := s.logger
		s.loggerMu.RUnlock()
		if logger != nil {
			logger.Warn("event buffer full, dropping message", "type", msg.Type())
		}
	}
}
