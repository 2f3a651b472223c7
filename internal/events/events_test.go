package events

import (
	"testing"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus()

	var received *Event
	var callCount int

	bus.Subscribe(EventBookingCreated, func(event *Event) error {
		received = event
		callCount++
		return nil
	})

	payload := BookingEventPayload{
		BookingID:    42,
		UserID:       7,
		ResourceName: "Meeting Room A",
		Date:         "2025-02-01",
		StartTime:    "09:00",
		EndTime:      "10:00",
		Status:       "pending",
	}
	if err := bus.PublishJSON(EventBookingCreated, payload); err != nil {
		t.Fatalf("PublishJSON failed: %v", err)
	}

	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
	if received.Type != EventBookingCreated {
		t.Errorf("expected type %s, got %s", EventBookingCreated, received.Type)
	}

	decoded, err := DecodePayload(received)
	if err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if decoded.BookingID != 42 || decoded.ResourceName != "Meeting Room A" {
		t.Errorf("payload round trip mismatch: %+v", decoded)
	}
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	bus := NewEventBus()
	var count1, count2 int

	bus.Subscribe("event", func(_ *Event) error { count1++; return nil })
	bus.Subscribe("event", func(_ *Event) error { count2++; return nil })

	bus.Publish(&Event{Type: "event"})

	if count1 != 1 || count2 != 1 {
		t.Errorf("expected both handlers to be called once, got %d and %d", count1, count2)
	}
}

func TestEventBusNoSubscribers(t *testing.T) {
	bus := NewEventBus()
	// Publishing with no subscribers must not panic.
	bus.Publish(&Event{Type: "ghost"})

	if err := bus.PublishJSON("ghost", struct{}{}); err != nil {
		t.Fatalf("PublishJSON failed: %v", err)
	}
}

func TestEventBusTypeIsolation(t *testing.T) {
	bus := NewEventBus()
	var decidedCalls int

	bus.Subscribe(EventBookingDecided, func(_ *Event) error { decidedCalls++; return nil })
	bus.Publish(&Event{Type: EventBookingCancelled})

	if decidedCalls != 0 {
		t.Errorf("handler for another event type was called %d times", decidedCalls)
	}
}
