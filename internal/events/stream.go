package events

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// Handler receives events synchronously during Emit.
type Handler func(Event)

// Stream is a typed synchronous multicast bus with an append-only log.
//
// Emit invokes every handler registered for the event's kind in registration
// order, then appends the event to the log. There is no buffering or
// backpressure. Each handler runs inside a recover boundary so one panicking
// subscriber cannot break delivery to the others.
//
// Construct with NewStream and pass by reference; there is no global
// instance.
type Stream struct {
	mu       sync.Mutex
	nextSub  int64
	handlers map[Kind][]subscriber
	log      []Event
	clock    atomic.Int64
	logger   *slog.Logger
}

type subscriber struct {
	id int64
	fn Handler
}

// StreamOption configures a Stream.
type StreamOption func(*Stream)

// WithLogger sets the logger used to report recovered handler panics.
func WithLogger(logger *slog.Logger) StreamOption {
	return func(s *Stream) {
		s.logger = logger
	}
}

// NewStream creates an empty stream.
func NewStream(opts ...StreamOption) *Stream {
	s := &Stream{
		handlers: make(map[Kind][]subscriber),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// On registers a handler for one event kind and returns its unsubscribe
// function. Unsubscribing twice is a no-op.
func (s *Stream) On(kind Kind, fn Handler) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSub++
	id := s.nextSub
	s.handlers[kind] = append(s.handlers[kind], subscriber{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		subs := s.handlers[kind]
		for i, sub := range subs {
			if sub.id == id {
				s.handlers[kind] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Emit stamps the event with the next sequence number, delivers it to all
// handlers registered for its kind in registration order, and appends it to
// the log. Delivery is synchronous; Emit returns after the last handler.
func (s *Stream) Emit(ev Event) {
	ev.Seq = s.clock.Add(1)

	s.mu.Lock()
	subs := make([]subscriber, len(s.handlers[ev.Kind]))
	copy(subs, s.handlers[ev.Kind])
	s.mu.Unlock()

	for _, sub := range subs {
		s.dispatch(sub, ev)
	}

	s.mu.Lock()
	s.log = append(s.log, ev)
	s.mu.Unlock()
}

// dispatch isolates a single handler invocation. A panic is recovered and
// logged so remaining subscribers still receive the event.
func (s *Stream) dispatch(sub subscriber, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("event handler panicked",
				"kind", string(ev.Kind),
				"seq", ev.Seq,
				"panic", r,
			)
		}
	}()
	sub.fn(ev)
}

// Log returns a copy of the emitted event log in emission order.
func (s *Stream) Log() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Event, len(s.log))
	copy(out, s.log)
	return out
}

// Seq returns the sequence number of the most recently emitted event.
func (s *Stream) Seq() int64 {
	return s.clock.Load()
}
