package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestDispatcher_IsolatesFailingHandlers(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	d := NewInMemoryDispatcher(zap.New(core))

	var delivered atomic.Int64
	d.Subscribe(EventMessageDeleted, func(context.Context, Event) error {
		panic("boom")
	})
	d.Subscribe(EventMessageDeleted, func(context.Context, Event) error {
		return errors.New("db down")
	})
	d.Subscribe(EventMessageDeleted, func(context.Context, Event) error {
		delivered.Add(1)
		return nil
	})

	if err := d.Publish(context.Background(), Event{ID: "e1", Type: EventMessageDeleted}); err != nil {
		t.Fatalf("Publish returned %v", err)
	}
	if delivered.Load() != 1 {
		t.Errorf("expected the healthy handler to run, got %d", delivered.Load())
	}
	if logs.FilterMessage("event handler failed").Len() != 2 {
		t.Errorf("expected two logged failures, got %d", logs.Len())
	}
}

func TestDispatcher_PublishAsync(t *testing.T) {
	d := NewInMemoryDispatcher(nil)

	var seen atomic.Int64
	d.Subscribe(EventMessageDeleted, func(ctx context.Context, _ Event) error {
		if ctx.Err() != nil {
			t.Error("async delivery should not inherit cancellation")
		}
		seen.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	for i := 0; i < 5; i++ {
		d.PublishAsync(ctx, Event{Type: EventMessageDeleted})
	}
	cancel()
	d.Wait()

	if seen.Load() != 5 {
		t.Errorf("expected 5 deliveries, got %d", seen.Load())
	}
}

func TestDispatcher_IgnoresOtherTypes(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	called := false
	d.Subscribe(EventMessageDeleted, func(context.Context, Event) error {
		called = true
		return nil
	})
	_ = d.Publish(context.Background(), Event{Type: "something_else"})
	if called {
		t.Error("handler invoked for unrelated event type")
	}
}
