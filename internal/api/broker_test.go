package api

import (
	"testing"
	"time"
)

func TestBrokerPublishSubscribe(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe(topicEvents)

	evt := Event{Type: "hazard.reported", Data: map[string]any{"id": "h1"}}
	b.Publish(topicEvents, evt)

	select {
	case got := <-ch:
		if got.Type != evt.Type {
			t.Fatalf("got type %s, want %s", got.Type, evt.Type)
		}
		if got.Data["id"].(string) != "h1" {
			t.Fatalf("bad payload: %+v", got.Data)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for event")
	}

	b.Unsubscribe(topicEvents, ch)
	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("channel should be closed after unsubscribe")
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBrokerDropsWhenSubscriberFull(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe(topicEvents)
	for i := 0; i < 20; i++ {
		b.Publish(topicEvents, Event{Type: "route.computed"})
	}
	if got := len(ch); got != cap(ch) {
		t.Fatalf("buffered = %d, want %d", got, cap(ch))
	}
	b.Unsubscribe(topicEvents, ch)
}
