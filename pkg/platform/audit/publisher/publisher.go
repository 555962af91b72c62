// Package publisher is the entry point domain services use to emit audit
// events. In async mode events are queued on a bounded channel and drained
// by a worker so that emitting never blocks a request.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	audit "visaflow/pkg/platform/audit"
	"visaflow/pkg/platform/audit/worker"
)

var ErrBufferFull = errors.New("audit buffer full")

type Publisher struct {
	store  audit.Store
	logger *slog.Logger
	clock  func() time.Time

	bufferSize int
	inbox      chan audit.Event
	done       chan struct{}
	closeOnce  sync.Once
}

type Option func(*Publisher)

// WithAsyncBuffer switches the publisher to async mode with a queue of n
// events.
func WithAsyncBuffer(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.bufferSize = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func WithClock(clock func() time.Time) Option {
	return func(p *Publisher) {
		if clock != nil {
			p.clock = clock
		}
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: slog.Default(), clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.bufferSize > 0 {
		p.inbox = make(chan audit.Event, p.bufferSize)
		p.done = make(chan struct{})
		w := worker.NewWorker(store, p.inbox, p.logger)
		go func() {
			defer close(p.done)
			_ = w.Run(context.Background())
		}()
	}
	return p
}

// Emit records event. The timestamp defaults to now and the category is
// always derived from the action.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = p.clock()
	}
	event.Category = audit.AuditEvent(event.Action).Category()

	if p.inbox == nil {
		return p.store.Append(ctx, event)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case p.inbox <- event:
		return nil
	default:
		p.logger.WarnContext(ctx, "audit buffer full, dropping event",
			"action", event.Action,
			"interview_id", event.InterviewID,
		)
		return ErrBufferFull
	}
}

// List returns the trail of one interview when the store can be read back.
func (p *Publisher) List(ctx context.Context, interviewID string) ([]audit.Event, error) {
	lister, ok := p.store.(audit.Lister)
	if !ok {
		return nil, errors.New("audit store is write-only")
	}
	return lister.ListByInterview(ctx, interviewID)
}

// Close stops accepting events and waits for queued ones to be stored.
func (p *Publisher) Close() {
	if p.inbox == nil {
		return
	}
	p.closeOnce.Do(func() {
		close(p.inbox)
		<-p.done
	})
}
