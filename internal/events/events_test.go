package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (m *mockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msgs...)
	return nil
}

func (m *mockWriter) Close() error {
	m.closed = true
	return nil
}

type failingPublisher struct {
	calls int
}

func (f *failingPublisher) PublishOrderCreated(context.Context, *domain.Order) error {
	f.calls++
	return errors.New("broker down")
}

func (f *failingPublisher) Close() error { return nil }

func testOrder() *domain.Order {
	return &domain.Order{
		ID:          "64b0000000000000000000aa",
		Items:       []domain.LineItem{{ProductID: "64b000000000000000000001", Quantity: 2}},
		TotalAmount: 25.5,
		Status:      domain.OrderStatusPending,
		CreatedAt:   time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestKafkaPublisher_PublishOrderCreated(t *testing.T) {
	w := &mockWriter{}
	p := &KafkaPublisher{writer: w}

	err := p.PublishOrderCreated(context.Background(), testOrder())
	require.NoError(t, err)
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, "64b0000000000000000000aa", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, EventTypeOrderCreated, string(msg.Headers[0].Value))

	var payload OrderCreated
	require.NoError(t, json.Unmarshal(msg.Value, &payload))
	assert.Equal(t, domain.OrderID("64b0000000000000000000aa"), payload.OrderID)
	assert.Equal(t, 25.5, payload.TotalAmount)
	assert.Len(t, payload.Items, 1)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	p := &KafkaPublisher{writer: &mockWriter{err: errors.New("no brokers")}}

	err := p.PublishOrderCreated(context.Background(), testOrder())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write order event")
}

func TestBreakerPublisher_OpensAfterConsecutiveFailures(t *testing.T) {
	next := &failingPublisher{}
	p := NewBreakerPublisher(next, slog.New(slog.NewTextHandler(io.Discard, nil)))

	for i := 0; i < 5; i++ {
		assert.Error(t, p.PublishOrderCreated(context.Background(), testOrder()))
	}
	assert.Equal(t, gobreaker.StateOpen, p.State())

	err := p.PublishOrderCreated(context.Background(), testOrder())
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 5, next.calls)
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.PublishOrderCreated(context.Background(), testOrder()))
	assert.NoError(t, p.Close())
}
