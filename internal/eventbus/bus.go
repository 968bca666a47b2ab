// Package eventbus provides an in-process pub/sub event bus for domain events.
// Publish delivers synchronously to every subscriber registered at the time
// of the call.
package eventbus

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/matthewbaird/leadpilot/internal/event"
)

// Handler processes a domain event. Implementations must be safe for
// concurrent calls from different goroutines.
type Handler interface {
	HandleEvent(ctx context.Context, evt event.DomainEvent) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, evt event.DomainEvent) error

func (f HandlerFunc) HandleEvent(ctx context.Context, evt event.DomainEvent) error {
	return f(ctx, evt)
}

// Bus is a simple in-process event bus. Subscribers may be added and removed
// at any time, including from inside a handler.
type Bus struct {
	mu          sync.RWMutex
	nextID      uint64
	subscribers []namedHandler
	logger      *zap.Logger
}

type namedHandler struct {
	id      uint64
	name    string
	handler Handler
}

// New creates a new Bus. A nil logger is replaced with a no-op logger.
func New(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{logger: logger}
}

// Subscribe registers a named handler and returns a function that removes it.
// Calling the returned function more than once is harmless.
func (b *Bus) Subscribe(name string, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subscribers = append(b.subscribers, namedHandler{id: id, name: name, handler: h})

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := make([]namedHandler, 0, len(b.subscribers))
	for _, s := range b.subscribers {
		if s.id != id {
			subs = append(subs, s)
		}
	}
	b.subscribers = subs
}

// Len reports the number of current subscribers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Publish dispatches evt to a snapshot of the current subscribers, in
// subscription order. Handler errors are logged and do not stop delivery.
func (b *Bus) Publish(ctx context.Context, evt event.DomainEvent) {
	b.mu.RLock()
	subs := b.subscribers
	b.mu.RUnlock()

	for _, s := range subs {
		if err := s.handler.HandleEvent(ctx, evt); err != nil {
			b.logger.Warn("eventbus handler error",
				zap.String("subscriber", s.name),
				zap.String("event_type", evt.EventType),
				zap.String("event_id", evt.ID),
				zap.Error(err))
		}
	}
}
