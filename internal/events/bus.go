// Package events provides an in-process publish/subscribe bus for search lifecycle events.
package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EventType identifies a kind of event
type EventType string

const (
	SearchStarted   EventType = "SEARCH_STARTED"
	SearchProgress  EventType = "SEARCH_PROGRESS"
	SearchCompleted EventType = "SEARCH_COMPLETED"
	SearchFailed    EventType = "SEARCH_FAILED"
	HistoryImported EventType = "HISTORY_IMPORTED"
)

// AllTypes lists every event type the bus carries
var AllTypes = []EventType{
	SearchStarted,
	SearchProgress,
	SearchCompleted,
	SearchFailed,
	HistoryImported,
}

// Event is a published event
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      EventData `json:"data"`
}

// Handler receives events. Handlers run on the emitting goroutine and must not block.
type Handler func(event *Event)

// Bus dispatches events to subscribers
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[EventType]map[int]Handler
	log      zerolog.Logger
}

// NewBus creates an event bus
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		handlers: make(map[EventType]map[int]Handler),
		log:      log.With().Str("component", "event_bus").Logger(),
	}
}

// Subscribe registers handler for eventType and returns a subscription id
func (b *Bus) Subscribe(eventType EventType, handler Handler) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	if b.handlers[eventType] == nil {
		b.handlers[eventType] = make(map[int]Handler)
	}
	b.handlers[eventType][b.nextID] = handler
	return b.nextID
}

// Unsubscribe removes the subscription with the given id from every event type
func (b *Bus) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, hs := range b.handlers {
		delete(hs, id)
	}
}

// Emit publishes data to all subscribers of its event type
func (b *Bus) Emit(data EventData) {
	if b == nil || data == nil {
		return
	}

	event := &Event{
		Type:      data.EventType(),
		Timestamp: time.Now(),
		Data:      data,
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers[event.Type]))
	for _, h := range b.handlers[event.Type] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}

	b.log.Debug().
		Str("event_type", string(event.Type)).
		Int("subscribers", len(handlers)).
		Msg("Event emitted")
}

// SubscriberCount returns the number of handlers registered for eventType
func (b *Bus) SubscriberCount(eventType EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType])
}
