//go:build integration

package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"visaflow/internal/platform/config"
	platformkafka "visaflow/internal/platform/kafka"
	"visaflow/pkg/platform/audit"
	"visaflow/pkg/testutil/containers"
)

func TestStoreProducesToBroker(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	broker := containers.GetManager().GetKafka(t)
	const topic = "visaflow.audit.test"

	producer, err := platformkafka.New(config.KafkaConfig{Brokers: broker.Brokers, AuditTopic: topic, Partitions: 1})
	require.NoError(t, err)
	defer producer.Close()
	require.NoError(t, platformkafka.EnsureTopic(ctx, producer, topic, 1))

	store := New(producer, topic)
	event := audit.Event{
		Category:    audit.CategoryCompliance,
		Timestamp:   time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		InterviewID: "iv-kafka",
		Action:      string(audit.EventInterviewStarted),
	}
	require.NoError(t, store.Append(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollRecords(ctx, 1)
	require.Empty(t, fetches.Errors())
	records := fetches.Records()
	require.Len(t, records, 1)

	require.Equal(t, "iv-kafka", string(records[0].Key))
	var got audit.Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	require.Equal(t, event.Action, got.Action)
	require.Equal(t, event.InterviewID, got.InterviewID)
}
