package socket

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestInboxFIFO(t *testing.T) {
	q := newInbox()

	for i := 0; i < 5; i++ {
		q.push(Message{"type": "result", "seq": i})
	}

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		msg, err := q.pop(ctx)
		if err != nil {
			t.Fatalf("pop() unexpected error: %v", err)
		}
		if got := msg["seq"]; got != i {
			t.Errorf("pop() seq = %v, want %d", got, i)
		}
	}
}

func TestInboxPopBlocksUntilPush(t *testing.T) {
	q := newInbox()

	go func() {
		time.Sleep(50 * time.Millisecond)
		q.push(Message{"type": "event"})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	msg, err := q.pop(ctx)
	if err != nil {
		t.Fatalf("pop() unexpected error: %v", err)
	}
	if msg.Type() != "event" {
		t.Errorf("pop() type = %q, want event", msg.Type())
	}
	if time.Since(start) < 40*time.Millisecond {
		t.Error("pop() returned before the push")
	}
}

func TestInboxPopCancelled(t *testing.T) {
	q := newInbox()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := q.pop(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("pop() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestInboxClosedAfterDrain(t *testing.T) {
	q := newInbox()
	q.push(Message{"type": "result"})
	q.close()

	ctx := context.Background()

	// Queued message survives the close.
	msg, err := q.pop(ctx)
	if err != nil {
		t.Fatalf("pop() unexpected error: %v", err)
	}
	if msg.Type() != "result" {
		t.Errorf("pop() type = %q, want result", msg.Type())
	}

	// Drained and closed.
	if _, err := q.pop(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("pop() error = %v, want ErrClosed", err)
	}

	// Pushes after close are dropped.
	q.push(Message{"type": "late"})
	if q.len() != 0 {
		t.Errorf("len() = %d after push-on-closed, want 0", q.len())
	}
}

func TestInboxConcurrentPushPopOrder(t *testing.T) {
	q := newInbox()
	const n = 1000

	// Single producer, single consumer: order must be exact.
	go func() {
		for i := 0; i < n; i++ {
			q.push(Message{"type": "result", "id": fmt.Sprintf("%d", i)})
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for i := 0; i < n; i++ {
		msg, err := q.pop(ctx)
		if err != nil {
			t.Fatalf("pop() %d unexpected error: %v", i, err)
		}
		want := fmt.Sprintf("%d", i)
		if got := msg["id"]; got != want {
			t.Fatalf("pop() %d id = %v, want %v", i, got, want)
		}
	}
}
