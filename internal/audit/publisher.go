package audit

import (
	"context"
	"log/slog"
	"sync"
)

// Sink receives finished events. Implementations must be safe for
// concurrent use.
type Sink interface {
	Write(ctx context.Context, event Event) error
}

// Publisher is the interface services emit through. A nil-safe no-op
// implementation is available via Nop().
type Publisher interface {
	Emit(ctx context.Context, event Event)
}

type nopPublisher struct{}

func (nopPublisher) Emit(context.Context, Event) {}

// Nop returns a publisher that discards every event.
func Nop() Publisher {
	return nopPublisher{}
}

// AsyncPublisher buffers events and writes them to the sink from a single
// background goroutine, so emission never blocks a request. A full buffer
// drops the event rather than stall the caller.
type AsyncPublisher struct {
	sink   Sink
	logger *slog.Logger
	events chan Event
	done   chan struct{}
	once   sync.Once
}

func NewAsyncPublisher(sink Sink, logger *slog.Logger, buffer int) *AsyncPublisher {
	if buffer <= 0 {
		buffer = 256
	}
	p := &AsyncPublisher{
		sink:   sink,
		logger: logger,
		events: make(chan Event, buffer),
		done:   make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *AsyncPublisher) Emit(ctx context.Context, event Event) {
	select {
	case p.events <- event:
	default:
		p.logger.WarnContext(ctx, "audit buffer full, dropping event",
			"action", event.Action,
			"user_id", event.UserID,
		)
	}
}

func (p *AsyncPublisher) run() {
	defer close(p.done)
	for event := range p.events {
		if err := p.sink.Write(context.Background(), event); err != nil {
			p.logger.Error("failed to write audit event",
				"action", event.Action,
				"error", err,
			)
		}
	}
}

// Close drains buffered events and stops the background writer.
func (p *AsyncPublisher) Close() {
	p.once.Do(func() {
		close(p.events)
		<-p.done
	})
}

// MemorySink keeps events in memory for tests and local runs.
type MemorySink struct {
	mu     sync.RWMutex
	events []Event
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Write(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns a snapshot of everything written so far.
func (s *MemorySink) Events() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// ByAction filters the snapshot to one action name.
func (s *MemorySink) ByAction(action string) []Event {
	var out []Event
	for _, e := range s.Events() {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}
