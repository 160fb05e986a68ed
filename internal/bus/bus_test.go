package bus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("session.", 10)
	defer unsub()

	b.Publish(Event{Kind: "session.state_changed", Timestamp: time.Now(), Payload: "connected"})

	select {
	case evt := <-ch:
		if evt.Kind != "session.state_changed" {
			t.Errorf("got kind %q, want session.state_changed", evt.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestNamespaceFiltering(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("sticker.", 10)
	defer unsub()

	b.Publish(Event{Kind: "session.qr_issued"})
	b.Publish(Event{Kind: "sticker.imported"})

	select {
	case evt := <-ch:
		if evt.Kind != "sticker.imported" {
			t.Errorf("got kind %q, want sticker.imported", evt.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	// The session event must not have been delivered.
	select {
	case evt := <-ch:
		t.Errorf("unexpected event: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("wa.", 10)
	unsub()

	b.Publish(Event{Kind: "wa.message"})

	select {
	case evt := <-ch:
		t.Errorf("received event after unsubscribe: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDropOnFullBuffer(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("wa.", 1)
	defer unsub()

	b.Publish(Event{Kind: "wa.message", Payload: "first"})
	// Buffer is full, this one is dropped.
	b.Publish(Event{Kind: "wa.message", Payload: "second"})

	evt := <-ch
	if evt.Payload != "first" {
		t.Errorf("got payload %v, want first", evt.Payload)
	}
}
