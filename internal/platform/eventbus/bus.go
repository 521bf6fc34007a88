// Package eventbus defines the message bus port the outbox publisher delivers
// to, plus an in-process implementation used in single-node deployments and
// tests. Delivery is at-least-once; subscribers must be idempotent and key
// their own deduplication by event id.
package eventbus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ledgera/ledgera_backend/internal/core/domain"
)

// Handler consumes a delivered event. Returning an error makes the publisher
// leave the outbox row unpublished for a later redelivery sweep.
type Handler func(ctx context.Context, event domain.OutboxEvent) error

// Bus is the delivery target for outbox events.
type Bus interface {
	// Publish delivers a single event. PartitionKey carries the per-tenant
	// ordering key for bus backends that support partitioned topics.
	Publish(ctx context.Context, event domain.OutboxEvent) error
}

// InProcessBus fans events out synchronously to subscribed handlers.
type InProcessBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *slog.Logger
}

// NewInProcessBus creates an empty in-process bus.
func NewInProcessBus(logger *slog.Logger) *InProcessBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &InProcessBus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

// Subscribe registers a handler for the given event types.
func (b *InProcessBus) Subscribe(handler Handler, eventTypes ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range eventTypes {
		b.handlers[t] = append(b.handlers[t], handler)
	}
}

// Publish dispatches the event to every handler subscribed to its type.
// The first handler error aborts delivery so the outbox row is retried.
func (b *InProcessBus) Publish(ctx context.Context, event domain.OutboxEvent) error {
	b.mu.RLock()
	handlers := b.handlers[event.EventType]
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := b.dispatch(ctx, h, event); err != nil {
			return err
		}
	}
	return nil
}

func (b *InProcessBus) dispatch(ctx context.Context, h Handler, event domain.OutboxEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				slog.String("event_type", event.EventType),
				slog.String("event_id", event.EventID),
				slog.Any("panic", r),
			)
		}
	}()
	return h(ctx, event)
}

var _ Bus = (*InProcessBus)(nil)
