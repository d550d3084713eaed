package eventbus

import (
	"context"
	"errors"
	"testing"
)

func TestBusPublishBroadcast(t *testing.T) {
	bus := NewBus()
	calledA := false
	calledB := false

	bus.Subscribe(CollabEventAgentMessage, func(ctx context.Context, event CollabEvent) error {
		calledA = true
		return nil
	})
	bus.Subscribe(CollabEventAgentMessage, func(ctx context.Context, event CollabEvent) error {
		calledB = true
		return nil
	})

	if err := bus.Publish(context.Background(), CollabEvent{Type: CollabEventAgentMessage}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !calledA || !calledB {
		t.Fatalf("expected handlers to be called")
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus()
	called := false
	unsubscribe := bus.Subscribe(CollabEventAgentMessage, func(ctx context.Context, event CollabEvent) error {
		called = true
		return nil
	})
	unsubscribe()

	if err := bus.Publish(context.Background(), CollabEvent{Type: CollabEventAgentMessage}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Fatalf("expected handler to be unsubscribed")
	}
}

func TestBusSubscribeAll(t *testing.T) {
	bus := NewBus()
	var seen []CollabEventType
	unsubscribe := bus.SubscribeAll(func(ctx context.Context, event CollabEvent) error {
		seen = append(seen, event.Type)
		return nil
	})
	defer unsubscribe()

	bus.Publish(context.Background(), CollabEvent{Type: CollabEventPhaseChange})
	bus.Publish(context.Background(), CollabEvent{Type: CollabEventThinkingComplete})

	if len(seen) != 2 {
		t.Fatalf("expected 2 events, got %d", len(seen))
	}
	if seen[0] != CollabEventPhaseChange || seen[1] != CollabEventThinkingComplete {
		t.Fatalf("unexpected event order: %v", seen)
	}
}

func TestBusPublishJoinErrors(t *testing.T) {
	bus := NewBus()
	bus.Subscribe(CollabEventAgentMessage, func(ctx context.Context, event CollabEvent) error {
		return errors.New("err-a")
	})
	bus.Subscribe(CollabEventAgentMessage, func(ctx context.Context, event CollabEvent) error {
		return errors.New("err-b")
	})

	if err := bus.Publish(context.Background(), CollabEvent{Type: CollabEventAgentMessage}); err == nil {
		t.Fatalf("expected error")
	}
}
