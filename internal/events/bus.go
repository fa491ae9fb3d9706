package events

import (
	"sync"
	"time"
)

// EventType represents different types of events published across the
// three engines.
type EventType string

const (
	EventTradeOpened      EventType = "TRADE_OPENED"
	EventTradeUpdated     EventType = "TRADE_UPDATED"
	EventTradeClosed      EventType = "TRADE_CLOSED"
	EventVerdictPublished EventType = "VERDICT_PUBLISHED"
	EventSystemStatus     EventType = "SYSTEM_STATUS_UPDATE"
	EventSyncStatus       EventType = "SYNC_STATUS_UPDATE"
	EventError            EventType = "ERROR"
)

// Event represents a system event.
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Subscriber is a function that handles events.
type Subscriber func(Event)

// EventBus manages event publishing and subscriptions.
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]Subscriber
	allSubs     []Subscriber
}

// NewEventBus creates a new event bus.
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[EventType][]Subscriber),
		allSubs:     make([]Subscriber, 0),
	}
}

// Subscribe registers a subscriber for a specific event type.
func (eb *EventBus) Subscribe(eventType EventType, subscriber Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.subscribers[eventType] = append(eb.subscribers[eventType], subscriber)
}

// SubscribeAll registers a subscriber for all events.
func (eb *EventBus) SubscribeAll(subscriber Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.allSubs = append(eb.allSubs, subscriber)
}

// Publish sends an event to all subscribers, each in its own goroutine
// so a slow subscriber never blocks the publisher.
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if subs, ok := eb.subscribers[event.Type]; ok {
		for _, sub := range subs {
			go sub(event)
		}
	}
	for _, sub := range eb.allSubs {
		go sub(event)
	}
}

// PublishTradeOpened publishes a trade opened event.
func (eb *EventBus) PublishTradeOpened(ticker, timeframe string, action string, entryPrice float64) {
	eb.Publish(Event{
		Type: EventTradeOpened,
		Data: map[string]interface{}{
			"ticker": ticker, "timeframe": timeframe, "action": action, "entry_price": entryPrice,
		},
	})
}

// PublishTradeUpdated publishes a trade update event.
func (eb *EventBus) PublishTradeUpdated(tradeID int64, status string) {
	eb.Publish(Event{
		Type: EventTradeUpdated,
		Data: map[string]interface{}{"trade_id": tradeID, "status": status},
	})
}

// PublishTradeClosed publishes a trade closed event.
func (eb *EventBus) PublishTradeClosed(tradeID int64, closePrice, realizedPnL float64, reason string) {
	eb.Publish(Event{
		Type: EventTradeClosed,
		Data: map[string]interface{}{
			"trade_id": tradeID, "close_price": closePrice, "realized_pnl": realizedPnL, "reason": reason,
		},
	})
}

// PublishVerdict publishes a new sentiment verdict.
func (eb *EventBus) PublishVerdict(regime, permission string, confidence float64) {
	eb.Publish(Event{
		Type: EventVerdictPublished,
		Data: map[string]interface{}{
			"market_regime": regime, "trade_permission": permission, "overall_confidence": confidence,
		},
	})
}

// PublishSystemStatus publishes a sentiment engine system status transition.
func (eb *EventBus) PublishSystemStatus(status string) {
	eb.Publish(Event{Type: EventSystemStatus, Data: map[string]interface{}{"status": status}})
}

// PublishSyncStatus publishes a fill-sync status transition for an account.
func (eb *EventBus) PublishSyncStatus(accountType, wallet, status string) {
	eb.Publish(Event{
		Type: EventSyncStatus,
		Data: map[string]interface{}{"account_type": accountType, "wallet": wallet, "status": status},
	})
}

// PublishError publishes an error event.
func (eb *EventBus) PublishError(source, message string, err error) {
	data := map[string]interface{}{"source": source, "message": message}
	if err != nil {
		data["error"] = err.Error()
	}
	eb.Publish(Event{Type: EventError, Data: data})
}
