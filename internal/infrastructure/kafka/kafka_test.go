package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/example/shop-pos/internal/infrastructure/store"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeMessage_StoreEvent(t *testing.T) {
	event := store.Event{
		ID:            "e-1",
		AggregateID:   "p-1",
		AggregateType: "Product",
		EventType:     "StockSold",
		Data:          json.RawMessage(`{"stock_after":2}`),
		Timestamp:     time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Version:       3,
	}

	msg, err := encodeMessage("p-1", event)

	require.NoError(t, err)
	assert.Equal(t, []byte("p-1"), msg.Key)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, HeaderEventType, msg.Headers[0].Key)
	assert.Equal(t, "StockSold", string(msg.Headers[0].Value))

	decoded, err := decodeEvent(msg)
	require.NoError(t, err)
	assert.Equal(t, event.ID, decoded.ID)
	assert.Equal(t, event.EventType, decoded.EventType)
	assert.Equal(t, 3, decoded.Version)
	assert.JSONEq(t, `{"stock_after":2}`, string(decoded.Data))
}

func TestEncodeMessage_PlainValue(t *testing.T) {
	msg, err := encodeMessage("k", map[string]int{"a": 1})

	require.NoError(t, err)
	assert.Empty(t, msg.Headers)
	assert.JSONEq(t, `{"a":1}`, string(msg.Value))
}

func TestEncodeMessage_MarshalError(t *testing.T) {
	_, err := encodeMessage("k", make(chan int))
	assert.Error(t, err)
}

func TestDecodeEvent_TypeFromHeader(t *testing.T) {
	msg := kafka.Message{
		Value:   []byte(`{"id":"e-1","aggregate_id":"s-1"}`),
		Headers: []kafka.Header{{Key: HeaderEventType, Value: []byte("SaleRecorded")}},
	}

	event, err := decodeEvent(msg)

	require.NoError(t, err)
	assert.Equal(t, "SaleRecorded", event.EventType)
}

func TestDecodeEvent_Invalid(t *testing.T) {
	_, err := decodeEvent(kafka.Message{Value: []byte("not json")})
	assert.Error(t, err)

	_, err = decodeEvent(kafka.Message{Value: []byte(`{"id":"e-1"}`)})
	assert.Error(t, err)
}

func TestNewProducer_QueuesWritesAsynchronously(t *testing.T) {
	p := NewProducer([]string{"localhost:9092"}, "shop-events")
	defer p.Close()

	assert.True(t, p.writer.Async)
	assert.NotNil(t, p.writer.Completion)
	assert.Equal(t, "shop-events", p.writer.Topic)
}
