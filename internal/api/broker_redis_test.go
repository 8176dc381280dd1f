package api

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestRedisBrokerPublishSubscribe(t *testing.T) {
	mr := miniredis.RunT(t)
	b, err := NewRedisBroker("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("NewRedisBroker: %v", err)
	}
	ch := b.Subscribe(topicEvents)

	b.Publish(topicEvents, Event{Type: "hazard.reported", Data: map[string]any{"id": "h1"}})

	select {
	case got := <-ch:
		if got.Type != "hazard.reported" {
			t.Fatalf("got type %s", got.Type)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
	}

	// Unsubscribe must tear down the PubSub so the reader goroutine exits
	// and the channel closes.
	b.Unsubscribe(topicEvents, ch)
	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("channel should be closed after unsubscribe")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel did not close after unsubscribe")
	}

	b.mu.Lock()
	n := len(b.subs)
	b.mu.Unlock()
	if n != 0 {
		t.Fatalf("subscription map not emptied: %d", n)
	}
}

func TestRedisBrokerUnsubscribeUnknownChannel(t *testing.T) {
	mr := miniredis.RunT(t)
	b, err := NewRedisBroker("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("NewRedisBroker: %v", err)
	}
	// Must not panic or block for a channel it never handed out.
	b.Unsubscribe(topicEvents, make(chan Event))
}
