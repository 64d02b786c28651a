package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event represents a domain event
type Event struct {
	ID            string          `json:"id"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	EventType     string          `json:"event_type"`
	Data          json.RawMessage `json:"data"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
}

// Publisher forwards events to a broker
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// EventLog keeps domain events in memory and publishes each one
type EventLog struct {
	mu        sync.RWMutex
	events    map[string][]Event // aggregateID -> events
	order     []Event
	publisher Publisher
}

// NewEventLog creates an event log. publisher may be nil.
func NewEventLog(publisher Publisher) *EventLog {
	return &EventLog{
		events:    make(map[string][]Event),
		publisher: publisher,
	}
}

// Append stores an event and publishes it. The event is kept even when
// publishing fails; the publish error is returned alongside it.
func (el *EventLog) Append(ctx context.Context, aggregateID, aggregateType, eventType string, data any) (*Event, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	el.mu.Lock()
	version := len(el.events[aggregateID]) + 1
	event := Event{
		ID:            uuid.New().String(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          jsonData,
		Timestamp:     time.Now(),
		Version:       version,
	}
	el.events[aggregateID] = append(el.events[aggregateID], event)
	el.order = append(el.order, event)
	el.mu.Unlock()

	if el.publisher != nil {
		if err := el.publisher.Publish(ctx, aggregateID, event); err != nil {
			return &event, err
		}
	}

	return &event, nil
}

// GetEvents returns all events for an aggregate
func (el *EventLog) GetEvents(aggregateID string) []Event {
	el.mu.RLock()
	defer el.mu.RUnlock()

	events := make([]Event, len(el.events[aggregateID]))
	copy(events, el.events[aggregateID])
	return events
}

// GetAllEvents returns all events in append order
func (el *EventLog) GetAllEvents() []Event {
	el.mu.RLock()
	defer el.mu.RUnlock()

	all := make([]Event, len(el.order))
	copy(all, el.order)
	return all
}
