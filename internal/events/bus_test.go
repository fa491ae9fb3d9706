package events

import (
	"sync"
	"testing"
	"time"
)

func TestPublishDeliversToMatchingSubscriber(t *testing.T) {
	bus := NewEventBus()
	received := make(chan Event, 1)
	bus.Subscribe(EventTradeOpened, func(e Event) { received <- e })

	bus.PublishTradeOpened("BTCUSDT", "1h", "buy", 45000)

	select {
	case e := <-received:
		if e.Type != EventTradeOpened {
			t.Errorf("event type = %v, want %v", e.Type, EventTradeOpened)
		}
		if e.Data["ticker"] != "BTCUSDT" {
			t.Errorf("event data ticker = %v, want BTCUSDT", e.Data["ticker"])
		}
		if e.Timestamp.IsZero() {
			t.Error("Publish() left Timestamp zero, want it stamped")
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber was never called")
	}
}

func TestPublishDoesNotDeliverToOtherEventTypes(t *testing.T) {
	bus := NewEventBus()
	received := make(chan Event, 1)
	bus.Subscribe(EventTradeClosed, func(e Event) { received <- e })

	bus.PublishTradeOpened("BTCUSDT", "1h", "buy", 45000)

	select {
	case <-received:
		t.Fatal("subscriber for a different event type was called")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSubscribeAllReceivesEverything(t *testing.T) {
	bus := NewEventBus()
	var mu sync.Mutex
	var seen []EventType
	done := make(chan struct{})

	bus.SubscribeAll(func(e Event) {
		mu.Lock()
		seen = append(seen, e.Type)
		if len(seen) == 2 {
			close(done)
		}
		mu.Unlock()
	})

	bus.PublishTradeOpened("BTCUSDT", "1h", "buy", 45000)
	bus.PublishSystemStatus("running")

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("SubscribeAll subscriber did not receive both published events")
	}
}

func TestPublishErrorIncludesErrorMessage(t *testing.T) {
	bus := NewEventBus()
	received := make(chan Event, 1)
	bus.Subscribe(EventError, func(e Event) { received <- e })

	bus.PublishError("fillsync", "account sync failed", errBoom)

	select {
	case e := <-received:
		if e.Data["error"] != errBoom.Error() {
			t.Errorf("event data error = %v, want %v", e.Data["error"], errBoom.Error())
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber was never called")
	}
}

var errBoom = &testError{"boom"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }
