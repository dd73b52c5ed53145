package events

import (
	"context"
	"errors"
	"testing"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()

	var got []string
	d.Subscribe(EventTicketEscalated, func(_ context.Context, e Event) error {
		got = append(got, e.TicketID)
		return nil
	})
	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		t.Errorf("created handler must not receive %s", e.Type)
		return nil
	})

	if err := d.Publish(context.Background(), Event{Type: EventTicketEscalated, TicketID: "t1"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(got) != 1 || got[0] != "t1" {
		t.Fatalf("expected single delivery for t1, got %v", got)
	}
}

func TestDispatcherHandlerErrorDoesNotStopOthers(t *testing.T) {
	d := NewInMemoryDispatcher()

	second := false
	d.Subscribe(EventTicketStatusUpdated, func(context.Context, Event) error {
		return errors.New("boom")
	})
	d.Subscribe(EventTicketStatusUpdated, func(context.Context, Event) error {
		second = true
		return nil
	})

	if err := d.Publish(context.Background(), Event{Type: EventTicketStatusUpdated}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if !second {
		t.Fatal("second handler must run despite first handler error")
	}
}
