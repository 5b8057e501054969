package sync

import (
	gosync "sync"

	"github.com/geobrowser/geogenesis-sub006/internal/events"
)

// eventQueue is a thread-safe FIFO queue feeding the engine's run loop.
//
// The queue is unbounded: event-stream handlers enqueue synchronously during
// Emit and must never block the mutation path. A buffered signal channel of
// size one coalesces wakeups and lets the run loop wait with context
// awareness.
type eventQueue struct {
	mu     gosync.Mutex
	events []events.Event
	closed bool
	signal chan struct{}
}

func newEventQueue() *eventQueue {
	return &eventQueue{
		events: make([]events.Event, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds an event to the back of the queue. Returns false if the
// queue is closed.
func (q *eventQueue) Enqueue(ev events.Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.events = append(q.events, ev)

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue pops the front event without blocking.
func (q *eventQueue) TryDequeue() (events.Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return events.Event{}, false
	}

	ev := q.events[0]
	// Zero the slot so the backing array does not retain event payloads.
	q.events[0] = events.Event{}
	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}
	return ev, true
}

// Wait returns the signal channel. It is closed when the queue closes.
func (q *eventQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Close marks the queue closed and wakes all waiters. Enqueue becomes a
// no-op; queued events can still be drained.
func (q *eventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}

// Closed reports whether Close has been called.
func (q *eventQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
