package kafka

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/example/shop-pos/internal/infrastructure/store"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

const readRetryDelay = time.Second

// EventHandler processes one decoded event log entry.
type EventHandler func(ctx context.Context, event store.Event) error

type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
		MaxWait:  500 * time.Millisecond,
	})
	return &Consumer{reader: reader}
}

// Consume reads until ctx is cancelled. Messages that fail to decode or
// that the handler rejects are logged and skipped.
func (c *Consumer) Consume(ctx context.Context, handler EventHandler) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("[Consumer] Error reading message: %v", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(readRetryDelay):
			}
			continue
		}

		event, err := decodeEvent(msg)
		if err != nil {
			log.Printf("[Consumer] Skipping offset %d: %v", msg.Offset, err)
			continue
		}

		if err := handler(ctx, event); err != nil {
			log.Printf("[Consumer] Error handling %s for %s: %v", event.EventType, event.AggregateID, err)
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

func decodeEvent(msg kafka.Message) (store.Event, error) {
	var event store.Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return store.Event{}, errors.Wrap(err, "unmarshal event")
	}
	if event.EventType == "" {
		for _, h := range msg.Headers {
			if h.Key == HeaderEventType {
				event.EventType = string(h.Value)
			}
		}
	}
	if event.EventType == "" {
		return store.Event{}, errors.New("event has no type")
	}
	return event, nil
}
