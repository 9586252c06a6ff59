package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hearthlabs/hearthctl/internal/socket"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(_ *http.Request) bool { return true },
}

// newTestHub starts a fake hub whose WebSocket endpoint runs serve for
// each connection. It returns the host:port endpoint.
func newTestHub(t *testing.T, serve func(*websocket.Conn)) string {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/websocket" {
			http.NotFound(w, r)
			return
		}
		ws, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		serve(ws)
	}))
	t.Cleanup(srv.Close)

	return strings.TrimPrefix(srv.URL, "http://")
}

// authOK performs the hub side of a successful two-step handshake:
// challenge first, then the outcome after the client's auth message.
func authOK(ws *websocket.Conn) bool {
	if err := ws.WriteJSON(map[string]any{"type": "auth_required", "ha_version": "2025.1"}); err != nil {
		return false
	}
	var auth map[string]any
	if err := ws.ReadJSON(&auth); err != nil {
		return false
	}
	return ws.WriteJSON(map[string]any{"type": "auth_ok"}) == nil
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestAuthenticateDirectInvalid(t *testing.T) {
	endpoint := newTestHub(t, func(ws *websocket.Conn) {
		var auth map[string]any
		if err := ws.ReadJSON(&auth); err != nil {
			return
		}
		ws.WriteJSON(map[string]any{ //nolint:errcheck // Test server
			"type":    "auth_invalid",
			"message": "Invalid access token",
		})
		ws.ReadMessage() //nolint:errcheck // Hold until client close
	})

	_, err := Connect(testCtx(t), Options{Endpoint: endpoint, Token: "bad"})
	if !errors.Is(err, ErrInvalidAuth) {
		t.Fatalf("Connect() error = %v, want ErrInvalidAuth", err)
	}
	if !strings.Contains(err.Error(), "Invalid access token") {
		t.Errorf("Connect() error = %q, want server message included", err)
	}
}

func TestAuthenticateChallengeThenInvalid(t *testing.T) {
	endpoint := newTestHub(t, func(ws *websocket.Conn) {
		ws.WriteJSON(map[string]any{"type": "auth_required"}) //nolint:errcheck // Test server
		var auth map[string]any
		if err := ws.ReadJSON(&auth); err != nil {
			return
		}
		ws.WriteJSON(map[string]any{ //nolint:errcheck // Test server
			"type":    "auth_invalid",
			"message": "token expired",
		})
		ws.ReadMessage() //nolint:errcheck // Hold until client close
	})

	_, err := Connect(testCtx(t), Options{Endpoint: endpoint, Token: "stale"})
	if !errors.Is(err, ErrInvalidAuth) {
		t.Fatalf("Connect() error = %v, want ErrInvalidAuth", err)
	}
	if !strings.Contains(err.Error(), "token expired") {
		t.Errorf("Connect() error = %q, want server message included", err)
	}
}

func TestAuthenticateChallengeThenOK(t *testing.T) {
	gotToken := make(chan string, 1)
	endpoint := newTestHub(t, func(ws *websocket.Conn) {
		ws.WriteJSON(map[string]any{"type": "auth_required"}) //nolint:errcheck // Test server
		var auth map[string]any
		if err := ws.ReadJSON(&auth); err != nil {
			return
		}
		token, _ := auth["access_token"].(string) //nolint:errcheck // Test assertion
		gotToken <- token
		ws.WriteJSON(map[string]any{"type": "auth_ok"}) //nolint:errcheck // Test server
		ws.ReadMessage()                                //nolint:errcheck // Hold until client close
	})

	s, err := Connect(testCtx(t), Options{Endpoint: endpoint, Token: "secret"})
	if err != nil {
		t.Fatalf("Connect() unexpected error: %v", err)
	}
	defer s.Close()

	if token := <-gotToken; token != "secret" {
		t.Errorf("hub received access_token %q, want secret", token)
	}
	if s.RequestCount() != 0 {
		t.Errorf("RequestCount() = %d after auth, want 0", s.RequestCount())
	}
}

// serveCalls answers each request in arrival order, echoing the id.
func serveCalls(ws *websocket.Conn) {
	if !authOK(ws) {
		return
	}
	for {
		var req map[string]any
		if err := ws.ReadJSON(&req); err != nil {
			return
		}
		resp := map[string]any{
			"type":    "result",
			"id":      req["id"],
			"success": true,
			"result":  map[string]any{"echo": req["type"]},
		}
		if err := ws.WriteJSON(resp); err != nil {
			return
		}
	}
}

func TestCallAssignsMonotonicIDs(t *testing.T) {
	endpoint := newTestHub(t, serveCalls)

	s, err := Connect(testCtx(t), Options{Endpoint: endpoint, Token: "tok"})
	if err != nil {
		t.Fatalf("Connect() unexpected error: %v", err)
	}
	defer s.Close()

	ctx := testCtx(t)
	for want := int64(1); want <= 5; want++ {
		reply, err := s.Call(ctx, "get_states", nil)
		if err != nil {
			t.Fatalf("Call() %d unexpected error: %v", want, err)
		}
		id, ok := reply.ID()
		if !ok || id != want {
			t.Errorf("reply id = %v/%v, want %d/true", id, ok, want)
		}
	}
	if s.RequestCount() != 5 {
		t.Errorf("RequestCount() = %d, want 5", s.RequestCount())
	}
}

func TestCallRepliesInRequestOrder(t *testing.T) {
	endpoint := newTestHub(t, serveCalls)

	s, err := Connect(testCtx(t), Options{Endpoint: endpoint, Token: "tok"})
	if err != nil {
		t.Fatalf("Connect() unexpected error: %v", err)
	}
	defer s.Close()

	ctx := testCtx(t)
	types := []string{"get_states", "get_config", "get_services"}
	for _, typ := range types {
		reply, err := s.Call(ctx, typ, nil)
		if err != nil {
			t.Fatalf("Call(%q) unexpected error: %v", typ, err)
		}
		result, _ := reply["result"].(map[string]any) //nolint:errcheck // Test assertion
		if result["echo"] != typ {
			t.Errorf("Call(%q) echoed %v", typ, result["echo"])
		}
	}
}

func TestCallDivertsInterleavedEvents(t *testing.T) {
	endpoint := newTestHub(t, func(ws *websocket.Conn) {
		if !authOK(ws) {
			return
		}
		var req map[string]any
		if err := ws.ReadJSON(&req); err != nil {
			return
		}
		// An unsolicited event slips in between the request and its
		// reply; the correlator must not return it from Call.
		ws.WriteJSON(map[string]any{ //nolint:errcheck // Test server
			"type":  "event",
			"event": map[string]any{"event_type": "state_changed"},
		})
		ws.WriteJSON(map[string]any{ //nolint:errcheck // Test server
			"type": "result", "id": req["id"], "success": true,
		})
		ws.ReadMessage() //nolint:errcheck // Hold until client close
	})

	s, err := Connect(testCtx(t), Options{Endpoint: endpoint, Token: "tok"})
	if err != nil {
		t.Fatalf("Connect() unexpected error: %v", err)
	}
	defer s.Close()

	ctx := testCtx(t)
	reply, err := s.Call(ctx, "get_states", nil)
	if err != nil {
		t.Fatalf("Call() unexpected error: %v", err)
	}
	if reply.Type() != "result" {
		t.Errorf("Call() returned type %q, want result", reply.Type())
	}

	select {
	case evt := <-s.Events():
		if evt.Type() != "event" {
			t.Errorf("diverted message type = %q, want event", evt.Type())
		}
	case <-ctx.Done():
		t.Fatal("diverted event never arrived on Events()")
	}
}

func TestCallPassesParams(t *testing.T) {
	gotReq := make(chan map[string]any, 1)
	endpoint := newTestHub(t, func(ws *websocket.Conn) {
		if !authOK(ws) {
			return
		}
		var req map[string]any
		if err := ws.ReadJSON(&req); err != nil {
			return
		}
		gotReq <- req
		ws.WriteJSON(map[string]any{"type": "result", "id": req["id"]}) //nolint:errcheck // Test server
		ws.ReadMessage()                                                //nolint:errcheck // Hold until client close
	})

	s, err := Connect(testCtx(t), Options{Endpoint: endpoint, Token: "tok"})
	if err != nil {
		t.Fatalf("Connect() unexpected error: %v", err)
	}
	defer s.Close()

	ctx := testCtx(t)
	_, err = s.Call(ctx, "call_service", map[string]any{
		"domain":  "light",
		"service": "turn_on",
		"id":      999, // reserved, must be ignored
	})
	if err != nil {
		t.Fatalf("Call() unexpected error: %v", err)
	}

	req := <-gotReq
	if req["domain"] != "light" || req["service"] != "turn_on" {
		t.Errorf("request params not passed through: %v", req)
	}
	if id, _ := req["id"].(float64); id != 1 { //nolint:errcheck // Test assertion
		t.Errorf("request id = %v, want 1 (caller-supplied id must be ignored)", req["id"])
	}
}

func TestCallCancelled(t *testing.T) {
	endpoint := newTestHub(t, func(ws *websocket.Conn) {
		if !authOK(ws) {
			return
		}
		// Swallow the request and never answer.
		ws.ReadMessage() //nolint:errcheck // Hold until client close
		ws.ReadMessage() //nolint:errcheck // Hold until client close
	})

	s, err := Connect(testCtx(t), Options{Endpoint: endpoint, Token: "tok"})
	if err != nil {
		t.Fatalf("Connect() unexpected error: %v", err)
	}
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err = s.Call(ctx, "get_states", nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Call() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestCallAfterPeerClose(t *testing.T) {
	endpoint := newTestHub(t, func(ws *websocket.Conn) {
		if !authOK(ws) {
			return
		}
		// Close straight after auth.
	})

	s, err := Connect(testCtx(t), Options{Endpoint: endpoint, Token: "tok"})
	if err != nil {
		t.Fatalf("Connect() unexpected error: %v", err)
	}
	defer s.Close()

	// Wait for the connection to notice the close.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && s.Conn().State() != socket.StateClosed {
		time.Sleep(5 * time.Millisecond)
	}

	_, err = s.Call(testCtx(t), "get_states", nil)
	if err == nil {
		t.Fatal("Call() on closed session expected error, got nil")
	}
}

func TestConnectUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := Connect(ctx, Options{Endpoint: "127.0.0.1:1", Token: "tok"})
	if err == nil {
		t.Fatal("Connect() to unreachable hub expected error, got nil")
	}
}
