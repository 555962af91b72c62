package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "visaflow/pkg/platform/audit"
	"visaflow/pkg/platform/audit/store/memory"
	"visaflow/pkg/platform/circuit"
)

type fakeProducer struct {
	err     error
	records []*kgo.Record
}

func (p *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	results := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		if p.err == nil {
			p.records = append(p.records, r)
		}
		results = append(results, kgo.ProduceResult{Record: r, Err: p.err})
	}
	return results
}

func TestAppendPublishesKeyedRecord(t *testing.T) {
	producer := &fakeProducer{}
	metrics := NewMetrics(prometheus.NewRegistry())
	store := New(producer, "visaflow.audit", WithMetrics(metrics))

	err := store.Append(context.Background(), audit.Event{
		InterviewID: "iv-1",
		Action:      string(audit.EventStepCompleted),
		Category:    audit.CategoryOperations,
		StepID:      "identity",
	})
	require.NoError(t, err)

	require.Len(t, producer.records, 1)
	record := producer.records[0]
	assert.Equal(t, "visaflow.audit", record.Topic)
	assert.Equal(t, "iv-1", string(record.Key))

	var decoded audit.Event
	require.NoError(t, json.Unmarshal(record.Value, &decoded))
	assert.Equal(t, "identity", decoded.StepID)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Published))
}

func TestBrokerFailuresDivertToFallback(t *testing.T) {
	producer := &fakeProducer{err: errors.New("broker down")}
	fallback := memory.NewInMemoryStore()
	metrics := NewMetrics(prometheus.NewRegistry())
	store := New(producer, "visaflow.audit",
		WithFallback(fallback),
		WithMetrics(metrics),
		WithBreaker(circuit.New("test", circuit.WithFailureThreshold(2))),
	)

	for range 3 {
		require.NoError(t, store.Append(context.Background(), audit.Event{InterviewID: "iv-2", Action: "step_back"}))
	}

	events, err := fallback.ListByInterview(context.Background(), "iv-2")
	require.NoError(t, err)
	assert.Len(t, events, 3)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Failures))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Diverted))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.BreakerState))
}

func TestFailureWithoutFallbackIsReturned(t *testing.T) {
	store := New(&fakeProducer{err: errors.New("broker down")}, "t")
	err := store.Append(context.Background(), audit.Event{InterviewID: "iv", Action: "step_back"})
	assert.ErrorContains(t, err, "broker down")
}
