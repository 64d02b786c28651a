package store

// PendingEvent is an event raised by a mutation but not yet appended to the
// event log.
type PendingEvent struct {
	AggregateID   string
	AggregateType string
	EventType     string
	Data          any
}

// Outbox collects events raised while a service holds its write lock so
// they can be published after the lock is released. It is not safe for
// concurrent use; the owning service's lock guards it.
type Outbox struct {
	pending []PendingEvent
}

func (o *Outbox) Add(aggregateID, aggregateType, eventType string, data any) {
	o.pending = append(o.pending, PendingEvent{
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          data,
	})
}

// Drain returns the collected events in the order they were added and
// empties the outbox.
func (o *Outbox) Drain() []PendingEvent {
	pending := o.pending
	o.pending = nil
	return pending
}
