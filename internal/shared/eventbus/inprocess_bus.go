package eventbus

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// Handler processes an event delivered by the in-process bus.
type Handler func(ctx context.Context, env *Envelope) error

// InProcessBus is an in-memory event bus for local mode (no broker).
// Events are delivered synchronously to registered handlers.
type InProcessBus struct {
	mu       sync.Mutex
	handlers map[string][]Handler
	logger   *slog.Logger
}

// NewInProcessBus creates a new in-process event bus.
func NewInProcessBus(logger *slog.Logger) *InProcessBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &InProcessBus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

// Subscribe registers a handler for a routing key.
func (b *InProcessBus) Subscribe(routingKey string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[routingKey] = append(b.handlers[routingKey], h)
}

// Publish dispatches the event synchronously to every handler registered for
// its routing key. Handler failures are logged, not propagated; in local mode
// a broken subscriber must not fail the mutation that produced the event.
func (b *InProcessBus) Publish(ctx context.Context, routingKey string, payload []byte) error {
	env := &Envelope{}
	if err := json.Unmarshal(payload, env); err != nil {
		b.logger.Error("failed to unmarshal event payload",
			"routing_key", routingKey,
			"error", err,
		)
		return nil
	}
	if env.RoutingKey == "" {
		env.RoutingKey = routingKey
	}

	b.mu.Lock()
	handlers := append([]Handler(nil), b.handlers[routingKey]...)
	b.mu.Unlock()

	start := time.Now()
	for _, h := range handlers {
		if err := h(ctx, env); err != nil {
			b.logger.Error("event handler failed",
				"routing_key", routingKey,
				"event_id", env.EventID,
				"duration_ms", time.Since(start).Milliseconds(),
				"error", err,
			)
		}
	}
	return nil
}

// Close implements Publisher. The in-process bus holds no connection.
func (b *InProcessBus) Close() error {
	return nil
}
