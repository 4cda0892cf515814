// Package event provides the in-process event bus that fans job
// lifecycle notifications out to registered subscribers.
package event

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/xraph/foreman/id"
)

// Handler consumes a single lifecycle event. Returning an error never
// affects the publisher or sibling handlers; the error is logged and
// dropped. Delivery is at-most-once and best-effort.
type Handler func(ctx context.Context, evt Event) error

// Subscription is the handle returned by Subscribe. Handler functions
// are not comparable in Go, so the handle is the token used to
// unsubscribe.
type Subscription struct {
	id      id.SubscriptionID
	handler Handler
}

// ID returns the unique subscription identifier.
func (s *Subscription) ID() id.SubscriptionID { return s.id }

// Bus delivers lifecycle notifications to zero or more subscribers
// without coupling publishers to subscriber failures. It is safe for
// concurrent use.
type Bus struct {
	mu     sync.RWMutex
	subs   []*Subscription
	logger *slog.Logger
}

// NewBus creates an event bus. A nil logger falls back to slog.Default.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{logger: logger}
}

// Subscribe registers a handler and returns its subscription handle.
// Handlers are invoked in insertion order, but completion order across
// handlers is unspecified.
func (b *Bus) Subscribe(h Handler) *Subscription {
	sub := &Subscription{id: id.NewSubscriptionID(), handler: h}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	count := len(b.subs)
	b.mu.Unlock()

	b.logger.Debug("event handler subscribed",
		slog.String("subscription_id", sub.id.String()),
		slog.Int("handler_count", count),
	)
	return sub
}

// Unsubscribe removes a subscription. Unsubscribing a handle that is
// not registered is a no-op.
func (b *Bus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	b.mu.Lock()
	before := len(b.subs)
	b.subs = slices.DeleteFunc(b.subs, func(s *Subscription) bool {
		return s.id == sub.id
	})
	count := len(b.subs)
	b.mu.Unlock()

	if count != before {
		b.logger.Debug("event handler unsubscribed",
			slog.String("subscription_id", sub.id.String()),
			slog.Int("handler_count", count),
		)
	}
}

// SubscriberCount returns the number of registered handlers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Publish constructs an event and delivers it to all current
// subscribers concurrently, returning once every handler has finished.
// When no subscribers are registered the call returns immediately
// without constructing the event. Handler errors and panics are caught
// and logged; they never propagate to the publisher and never block
// sibling handlers.
func (b *Bus) Publish(ctx context.Context, typ Type, jobID id.JobID, fields map[string]any) {
	b.mu.RLock()
	subs := slices.Clone(b.subs)
	b.mu.RUnlock()

	if len(subs) == 0 {
		return
	}

	evt := Event{
		ID:        id.NewEventID(),
		Type:      typ,
		JobID:     jobID,
		Timestamp: time.Now().UTC(),
		Fields:    maps.Clone(fields),
	}

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.deliver(ctx, sub, evt)
		}()
	}
	wg.Wait()
}

// deliver invokes one handler with its own copy of the event,
// isolating errors and panics.
func (b *Bus) deliver(ctx context.Context, sub *Subscription, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				slog.String("event_type", string(evt.Type)),
				slog.String("job_id", evt.JobID.String()),
				slog.String("subscription_id", sub.id.String()),
				slog.Any("panic", r),
			)
		}
	}()

	if err := sub.handler(ctx, evt.clone()); err != nil {
		b.logger.Warn("event handler error",
			slog.String("event_type", string(evt.Type)),
			slog.String("job_id", evt.JobID.String()),
			slog.String("subscription_id", sub.id.String()),
			slog.String("error", err.Error()),
		)
	}
}
