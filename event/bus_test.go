package event_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/xraph/foreman/event"
	"github.com/xraph/foreman/id"
)

func TestBus_FanOut(t *testing.T) {
	bus := event.NewBus(slog.Default())
	jobID := id.NewJobID()

	var mu sync.Mutex
	var first, second []event.Event

	bus.Subscribe(func(_ context.Context, evt event.Event) error {
		mu.Lock()
		first = append(first, evt)
		mu.Unlock()
		return nil
	})
	bus.Subscribe(func(_ context.Context, evt event.Event) error {
		mu.Lock()
		second = append(second, evt)
		mu.Unlock()
		return nil
	})

	bus.Publish(context.Background(), event.TypeJobCreated, jobID, nil)
	bus.Publish(context.Background(), event.TypeJobQueued, jobID, map[string]any{"queue_size": 1})

	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("expected 2 events per subscriber, got %d and %d", len(first), len(second))
	}
	for _, evt := range append(first, second...) {
		if evt.JobID != jobID {
			t.Errorf("JobID = %s, want %s", evt.JobID, jobID)
		}
		if evt.Timestamp.IsZero() {
			t.Error("expected a non-zero timestamp")
		}
	}
	if first[1].Fields["queue_size"] != 1 {
		t.Errorf("Fields = %v, want queue_size=1", first[1].Fields)
	}
}

func TestBus_EmptyIsNoOp(t *testing.T) {
	bus := event.NewBus(slog.Default())
	// Must not block or panic with zero subscribers.
	bus.Publish(context.Background(), event.TypeJobCreated, id.NewJobID(), nil)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := event.NewBus(slog.Default())

	var calls atomic.Int64
	sub := bus.Subscribe(func(_ context.Context, _ event.Event) error {
		calls.Add(1)
		return nil
	})

	bus.Publish(context.Background(), event.TypeJobCreated, id.NewJobID(), nil)
	bus.Unsubscribe(sub)
	bus.Publish(context.Background(), event.TypeJobQueued, id.NewJobID(), nil)

	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1 (no delivery after unsubscribe)", got)
	}
	if bus.SubscriberCount() != 0 {
		t.Errorf("SubscriberCount = %d, want 0", bus.SubscriberCount())
	}

	// Double unsubscribe is a no-op.
	bus.Unsubscribe(sub)
}

func TestBus_HandlerErrorIsolated(t *testing.T) {
	bus := event.NewBus(slog.Default())

	var delivered atomic.Int64
	bus.Subscribe(func(_ context.Context, _ event.Event) error {
		return errors.New("subscriber exploded")
	})
	bus.Subscribe(func(_ context.Context, _ event.Event) error {
		delivered.Add(1)
		return nil
	})

	bus.Publish(context.Background(), event.TypeJobFailed, id.NewJobID(), nil)

	if got := delivered.Load(); got != 1 {
		t.Errorf("healthy subscriber received %d events, want 1", got)
	}
}

func TestBus_HandlerPanicIsolated(t *testing.T) {
	bus := event.NewBus(slog.Default())

	var delivered atomic.Int64
	bus.Subscribe(func(_ context.Context, _ event.Event) error {
		panic("subscriber panicked")
	})
	bus.Subscribe(func(_ context.Context, _ event.Event) error {
		delivered.Add(1)
		return nil
	})

	bus.Publish(context.Background(), event.TypeJobCompleted, id.NewJobID(), nil)

	if got := delivered.Load(); got != 1 {
		t.Errorf("healthy subscriber received %d events, want 1", got)
	}
}

func TestBus_FieldsSnapshotPerSubscriber(t *testing.T) {
	bus := event.NewBus(slog.Default())
	done := make(chan event.Event, 1)

	bus.Subscribe(func(_ context.Context, evt event.Event) error {
		evt.Fields["mutated"] = true // must not leak to other subscribers
		return nil
	})
	bus.Subscribe(func(_ context.Context, evt event.Event) error {
		done <- evt
		return nil
	})

	bus.Publish(context.Background(), event.TypeJobCompleted, id.NewJobID(), map[string]any{"result": "ok"})

	evt := <-done
	if _, leaked := evt.Fields["mutated"]; leaked {
		t.Error("a subscriber's mutation leaked into a sibling's event copy")
	}
	if evt.Fields["result"] != "ok" {
		t.Errorf("Fields = %v, want result=ok", evt.Fields)
	}
}
