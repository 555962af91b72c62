// Package kafka ships audit events to a Kafka topic keyed by interview id,
// so every interview's trail stays ordered within one partition. When the
// broker keeps failing a circuit breaker diverts events to a fallback store.
package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/goccy/go-json"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "visaflow/pkg/platform/audit"
	"visaflow/pkg/platform/circuit"
)

// Producer is the subset of *kgo.Client used by the store.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

type Store struct {
	producer Producer
	topic    string
	fallback audit.Store
	breaker  *circuit.Breaker
	metrics  *Metrics
	logger   *slog.Logger
}

type Option func(*Store)

// WithFallback stores events elsewhere while the broker is unavailable.
func WithFallback(store audit.Store) Option {
	return func(s *Store) {
		s.fallback = store
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(s *Store) {
		if b != nil {
			s.breaker = b
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func New(producer Producer, topic string, opts ...Option) *Store {
	s := &Store{
		producer: producer,
		topic:    topic,
		breaker:  circuit.New("audit-kafka"),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	if !s.breaker.Allow() {
		s.metrics.incDiverted()
		return s.toFallback(ctx, event, fmt.Errorf("audit broker circuit open"))
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.InterviewID),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "category", Value: []byte(event.Category)},
			{Key: "action", Value: []byte(event.Action)},
		},
	}

	if err := s.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		s.metrics.incFailures()
		if _, change := s.breaker.RecordFailure(); change.Opened {
			s.metrics.setBreakerOpen(true)
			s.logger.WarnContext(ctx, "audit broker circuit opened", "topic", s.topic, "error", err)
		}
		return s.toFallback(ctx, event, fmt.Errorf("produce audit event: %w", err))
	}

	if _, change := s.breaker.RecordSuccess(); change.Closed {
		s.metrics.setBreakerOpen(false)
		s.logger.InfoContext(ctx, "audit broker circuit closed", "topic", s.topic)
	}
	s.metrics.incPublished()
	return nil
}

func (s *Store) toFallback(ctx context.Context, event audit.Event, cause error) error {
	if s.fallback == nil {
		return cause
	}
	return s.fallback.Append(ctx, event)
}
