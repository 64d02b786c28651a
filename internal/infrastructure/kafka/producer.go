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

// HeaderEventType carries the domain event type so consumers can skip
// events they do not handle without decoding the body.
const HeaderEventType = "event_type"

// Producer publishes event log entries to one topic. It satisfies
// store.Publisher. Writes are asynchronous: Publish returns once the
// message is queued and delivery failures are logged.
type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
		Async:                  true,
		Completion:             logFailedDelivery,
	}
	return &Producer{writer: writer}
}

// Publish writes event keyed by aggregate id, so events of one product or
// customer stay ordered within a partition.
func (p *Producer) Publish(ctx context.Context, key string, event any) error {
	msg, err := encodeMessage(key, event)
	if err != nil {
		return err
	}
	return errors.Wrapf(p.writer.WriteMessages(ctx, msg), "publish %s", key)
}

func logFailedDelivery(messages []kafka.Message, err error) {
	if err != nil {
		log.Printf("[Kafka] Failed to deliver %d events: %v", len(messages), err)
	}
}

// Close flushes queued messages.
func (p *Producer) Close() error {
	return p.writer.Close()
}

func encodeMessage(key string, event any) (kafka.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, errors.Wrap(err, "marshal event")
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}
	switch e := event.(type) {
	case store.Event:
		msg.Headers = []kafka.Header{{Key: HeaderEventType, Value: []byte(e.EventType)}}
	case *store.Event:
		msg.Headers = []kafka.Header{{Key: HeaderEventType, Value: []byte(e.EventType)}}
	}
	return msg, nil
}
