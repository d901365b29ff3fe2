// Package events provides the typed pub/sub bus the host surfaces
// consume: the simulation service publishes what happened, SSE and
// websocket streams fan it out to clients.
package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EventType identifies a class of simulation event.
type EventType string

const (
	DayClosed        EventType = "sim.day_closed"
	EventFired       EventType = "sim.event_fired"
	TradeExecuted    EventType = "sim.trade_executed"
	CorporateAction  EventType = "sim.corporate_action"
	SnapshotSaved    EventType = "sim.snapshot_saved"
	ArticlePublished EventType = "sim.article_published"
)

// Event is one published occurrence with its typed payload.
type Event struct {
	Type      EventType `json:"type"`
	Module    string    `json:"module"`
	Timestamp time.Time `json:"timestamp"`
	Data      EventData `json:"data"`
}

// Handler receives published events. Handlers must not block; slow
// consumers should buffer on their side and drop.
type Handler func(event *Event)

// Bus is an in-process fan-out of events to subscribed handlers.
// Publishing never blocks on a subscriber.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	log      zerolog.Logger
}

// NewBus creates an empty bus.
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
		log:      log.With().Str("component", "events").Logger(),
	}
}

// Subscribe registers a handler for one event type.
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Publish delivers an event to every handler subscribed to its type.
// Delivery is synchronous; handlers are expected to hand off quickly.
func (b *Bus) Publish(eventType EventType, module string, data EventData) {
	event := &Event{
		Type:      eventType,
		Module:    module,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	b.mu.RLock()
	handlers := b.handlers[eventType]
	b.mu.RUnlock()

	b.log.Debug().
		Str("event_type", string(eventType)).
		Str("module", module).
		Int("subscribers", len(handlers)).
		Msg("Event published")

	for _, h := range handlers {
		h(event)
	}
}

// SubscriberCount reports how many handlers listen to a type.
func (b *Bus) SubscriberCount(eventType EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType])
}
