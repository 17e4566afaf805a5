package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func newTestProducer(w *fakeWriter) *Producer {
	return &Producer{
		writer:  w,
		brokers: []string{"localhost:9092"},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestNewEvent_Fields(t *testing.T) {
	type shipped struct {
		OrderID string `json:"order_id"`
		Total   int64  `json:"total"`
	}

	event, err := NewEvent("order.shipped", "ord-123", "order", "orderengine", shipped{OrderID: "ord-123", Total: 4200})
	require.NoError(t, err)

	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "order.shipped", event.EventType)
	assert.Equal(t, "ord-123", event.AggregateID)
	assert.Equal(t, 1, event.Version)
	assert.WithinDuration(t, time.Now().UTC(), event.Timestamp, 2*time.Second)

	var got shipped
	require.NoError(t, event.UnmarshalData(&got))
	assert.Equal(t, int64(4200), got.Total)
}

func TestNewEvent_InvalidData(t *testing.T) {
	_, err := NewEvent("x", "agg-1", "test", "svc", make(chan int))
	require.Error(t, err)
}

func TestEvent_WithCorrelationID(t *testing.T) {
	event := &Event{EventID: "e-1"}
	result := event.WithCorrelationID("corr-1")
	assert.Same(t, event, result)
	assert.Equal(t, "corr-1", event.CorrelationID)
}

func TestDecodeEvent(t *testing.T) {
	event, err := NewEvent("order.created", "ord-1", "order", "orderengine", map[string]int{"n": 1})
	require.NoError(t, err)
	raw, err := json.Marshal(event)
	require.NoError(t, err)

	got, err := DecodeEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, event.EventID, got.EventID)

	_, err = DecodeEvent([]byte(`{broken`))
	require.Error(t, err)

	_, err = DecodeEvent([]byte(`{"version":2}`))
	require.Error(t, err)
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "storefront.order.shipped", Topic("order", "shipped"))
	assert.Equal(t, "storefront.inventory.stock_decremented", Topic("inventory", "stock_decremented"))
}

func TestDefaultProducerConfig(t *testing.T) {
	cfg := DefaultProducerConfig([]string{"b1:9092"})
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 10*time.Millisecond, cfg.BatchTimeout)
	assert.False(t, cfg.Async)
}

func TestProducer_Publish_KeysByAggregate(t *testing.T) {
	w := &fakeWriter{}
	p := newTestProducer(w)
	topic := Topic("order", "created")

	event, err := NewEvent("order.created", "ord-1", "order", "orderengine", map[string]int{"lines": 2})
	require.NoError(t, err)
	event.WithCorrelationID("corr-9")

	before := testutil.ToFloat64(eventsPublished.WithLabelValues(topic, outcomeOK))
	require.NoError(t, p.Publish(context.Background(), topic, event))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, topic, msg.Topic)
	assert.Equal(t, "ord-1", string(msg.Key))

	carrier := NewHeaderCarrier(&msg)
	assert.Equal(t, "order.created", carrier.Get("event_type"))
	assert.Equal(t, "orderengine", carrier.Get("source"))
	assert.Equal(t, "corr-9", carrier.Get("correlation_id"))

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, event.EventID, decoded.EventID)

	assert.Equal(t, before+1, testutil.ToFloat64(eventsPublished.WithLabelValues(topic, outcomeOK)))
}

func TestProducer_Publish_WriterError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	p := newTestProducer(w)
	topic := Topic("order", "deleted")

	event, err := NewEvent("order.deleted", "ord-2", "order", "orderengine", nil)
	require.NoError(t, err)

	before := testutil.ToFloat64(eventsPublished.WithLabelValues(topic, outcomeError))
	err = p.Publish(context.Background(), topic, event)
	require.Error(t, err)
	assert.Contains(t, err.Error(), topic)
	assert.Equal(t, before+1, testutil.ToFloat64(eventsPublished.WithLabelValues(topic, outcomeError)))
}

func TestProducer_Publish_InjectsTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled,
	}))

	w := &fakeWriter{}
	event, err := NewEvent("order.shipped", "ord-3", "order", "orderengine", nil)
	require.NoError(t, err)
	require.NoError(t, newTestProducer(w).Publish(ctx, Topic("order", "shipped"), event))

	got := NewHeaderCarrier(&w.msgs[0]).Get("traceparent")
	assert.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", got)
}

func TestProducer_Close(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, newTestProducer(w).Close())
	assert.True(t, w.closed)
}

func TestPingBrokers_NoBrokers(t *testing.T) {
	err := PingBrokers(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no brokers configured")
}

func TestKafkaHeaderCarrier(t *testing.T) {
	msg := kafka.Message{Headers: []kafka.Header{{Key: "existing", Value: []byte("v1")}}}
	c := NewHeaderCarrier(&msg)

	assert.Equal(t, "v1", c.Get("existing"))
	assert.Empty(t, c.Get("missing"))

	c.Set("existing", "v2")
	c.Set("new", "x")
	assert.Equal(t, "v2", c.Get("existing"))
	assert.ElementsMatch(t, []string{"existing", "new"}, c.Keys())
	assert.Len(t, msg.Headers, 2)
}
