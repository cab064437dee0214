package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
)

func setupKafka(t *testing.T) (string, func()) {
	if testing.Short() {
		t.Skip("skipping Kafka container test in short mode")
	}
	ctx := context.Background()

	kafkaContainer, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err)

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers, "broker address should not be empty")

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	}

	return brokers[0], cleanup
}

func TestKafkaPublisher_Integration(t *testing.T) {
	broker, cleanup := setupKafka(t)
	defer cleanup()

	conn, err := kafkaGo.Dial("tcp", broker)
	require.NoError(t, err)
	err = conn.CreateTopics(kafkaGo.TopicConfig{Topic: OrderCreatedTopic, NumPartitions: 1, ReplicationFactor: 1})
	if err != nil {
		t.Logf("topic creation error (may already exist): %v", err)
	}
	conn.Close()

	p := NewKafkaPublisher(broker)
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, p.PublishOrderCreated(ctx, testOrder()))

	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     OrderCreatedTopic,
		Partition: 0,
	})
	defer reader.Close()

	msg, err := reader.ReadMessage(ctx)
	require.NoError(t, err)

	var payload OrderCreated
	require.NoError(t, json.Unmarshal(msg.Value, &payload))
	assert.Equal(t, testOrder().ID, payload.OrderID)
}
