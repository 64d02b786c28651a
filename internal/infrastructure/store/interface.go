package store

import "context"

// DocumentStore persists whole documents under a fixed key.
// Load reports false when nothing has been saved under key yet.
type DocumentStore interface {
	Load(ctx context.Context, key string, dst any) (bool, error)
	Save(ctx context.Context, key string, src any) error
}

// EventLogInterface defines the interface for domain event logs
type EventLogInterface interface {
	Append(ctx context.Context, aggregateID, aggregateType, eventType string, data any) (*Event, error)
	GetEvents(aggregateID string) []Event
	GetAllEvents() []Event
}
