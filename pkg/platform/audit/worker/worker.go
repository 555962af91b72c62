package worker

import (
	"context"
	"log/slog"

	audit "visaflow/pkg/platform/audit"
)

// Worker drains audit events from a channel into a store. A failed append is
// logged and the worker keeps going; audit must never stall interviews.
type Worker struct {
	store  audit.Store
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func NewWorker(store audit.Store, inbox <-chan audit.Event, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run returns when ctx is cancelled or the inbox is closed. On cancellation it
// flushes whatever is already buffered.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain(context.WithoutCancel(ctx))
			return ctx.Err()
		case event, ok := <-w.inbox:
			if !ok {
				return nil
			}
			w.append(ctx, event)
		}
	}
}

func (w *Worker) drain(ctx context.Context) {
	for {
		select {
		case event, ok := <-w.inbox:
			if !ok {
				return
			}
			w.append(ctx, event)
		default:
			return
		}
	}
}

func (w *Worker) append(ctx context.Context, event audit.Event) {
	if err := w.store.Append(ctx, event); err != nil {
		w.logger.WarnContext(ctx, "failed to persist audit event",
			"action", event.Action,
			"interview_id", event.InterviewID,
			"error", err,
		)
	}
}
