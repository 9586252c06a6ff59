package socket

import (
	"context"
	"sync"
)

// inbox is the unbounded FIFO queue bridging the reader goroutine and
// caller goroutines.
//
// The producer (reader) never blocks on push; consumers block on pop
// until a message exists or their context is cancelled. Messages are
// delivered in exactly the order they were pushed.
type inbox struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []Message
	closed bool
}

func newInbox() *inbox {
	q := &inbox{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push appends a message. Never blocks. Pushes after close are dropped.
func (q *inbox) push(msg Message) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.items = append(q.items, msg)
	q.cond.Signal()
}

// pop blocks until a message is available, then removes and returns the
// oldest one. Messages already queued when the inbox closes are still
// delivered; only a drained, closed inbox returns ErrClosed.
func (q *inbox) pop(ctx context.Context) (Message, error) {
	// Wake all waiters when the context ends so their Wait loops can
	// observe the cancellation.
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		q.cond.Broadcast()
		q.mu.Unlock()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 {
		if q.closed {
			return nil, ErrClosed
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		q.cond.Wait()
	}

	msg := q.items[0]
	q.items = q.items[1:]
	return msg, nil
}

// close marks the inbox closed and wakes all waiters. Idempotent.
func (q *inbox) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.cond.Broadcast()
}

// len returns the number of queued messages.
func (q *inbox) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
