package service

import (
	"context"
	"time"

	"visaflow/internal/applicant"
	"visaflow/internal/coherence"
	"visaflow/internal/flow"
	"visaflow/internal/interview/models"
	"visaflow/internal/requirements"
	"visaflow/pkg/fieldset"
	"visaflow/pkg/platform/audit"
	"visaflow/pkg/requestcontext"
)

// recorder buffers audit events raised while an operation runs. They are
// published only once the session has been saved.
type recorder struct {
	events []audit.Event
}

func (r *recorder) add(ev audit.Event) {
	r.events = append(r.events, ev)
}

var actionEvents = map[flow.Action]audit.AuditEvent{
	flow.ActionStarted:   audit.EventStepStarted,
	flow.ActionCompleted: audit.EventStepCompleted,
	flow.ActionSkipped:   audit.EventStepSkipped,
	flow.ActionBack:      audit.EventStepBack,
	flow.ActionNavigated: audit.EventStepNavigated,
	flow.ActionReset:     audit.EventInterviewReset,
}

func (s *Service) newMachine(ctx context.Context) (*flow.Machine, *recorder) {
	now := requestcontext.Now(ctx)
	engine := requirements.NewEngine(
		requirements.WithCatalog(s.requirements),
		requirements.WithLogger(s.logger),
	)
	rec := &recorder{}
	m := flow.NewMachine(engine,
		flow.WithCatalog(s.steps),
		flow.WithClock(func() time.Time { return now }),
	)
	m.Subscribe(flow.ObserverFuncs{
		OnStepChanged: func(c flow.StepChange) {
			action, ok := actionEvents[c.Action]
			if !ok {
				return
			}
			step := c.From
			if step == "" {
				step = c.To
			}
			s.metrics.IncStepTransition(step, string(c.Action))
			rec.add(audit.Event{
				Action:     string(action),
				StepID:     c.To,
				FromStepID: c.From,
				Timestamp:  c.At,
			})
		},
	})
	return m, rec
}

func (s *Service) load(ctx context.Context, id string) (*models.Session, error) {
	session, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, translateStoreError(err)
	}
	return session, nil
}

// restore loads a session and rebuilds its machine. Events raised by the
// import itself are dropped.
func (s *Service) restore(ctx context.Context, id string) (*models.Session, *flow.Machine, *recorder, error) {
	session, err := s.load(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	m, rec := s.newMachine(ctx)
	if err := m.Import(session.State); err != nil {
		s.logger.ErrorContext(ctx, "stored interview state is invalid",
			"interview_id", id,
			"error", err,
		)
		return nil, nil, nil, err
	}
	rec.events = nil
	return session, m, rec, nil
}

// read runs fn against a restored session without saving anything.
func (s *Service) read(ctx context.Context, op, id string, fn func(*models.Session, *flow.Machine) error) error {
	ctx, span := s.startSpan(ctx, op, id)
	defer span.End()
	defer s.metrics.ObserveOperation(op, time.Now())

	unlock := s.locks.Lock(id)
	defer unlock()

	session, m, _, err := s.restore(ctx, id)
	if err != nil {
		return fail(span, err)
	}
	if err := fn(session, m); err != nil {
		return fail(span, err)
	}
	return nil
}

// mutate runs fn against a restored session and saves the result. When fn
// fails nothing is written, so the stored interview is unchanged.
func (s *Service) mutate(ctx context.Context, op, id string, fn func(context.Context, *models.Session, *flow.Machine, *recorder) error) (*flow.Snapshot, error) {
	ctx, span := s.startSpan(ctx, op, id)
	defer span.End()
	defer s.metrics.ObserveOperation(op, time.Now())

	unlock := s.locks.Lock(id)
	defer unlock()

	session, m, rec, err := s.restore(ctx, id)
	if err != nil {
		return nil, fail(span, err)
	}
	if err := fn(ctx, session, m, rec); err != nil {
		return nil, fail(span, err)
	}
	if err := s.persist(ctx, session, m); err != nil {
		return nil, fail(span, err)
	}
	s.publish(ctx, id, rec)

	snap := m.Snapshot()
	span.AddEvent("interview.saved")
	return &snap, nil
}

func (s *Service) persist(ctx context.Context, session *models.Session, m *flow.Machine) error {
	now := requestcontext.Now(ctx)
	session.State = m.Export()
	session.UpdatedAt = now
	session.ExpiresAt = now.Add(s.sessionTTL)
	if err := s.store.Save(ctx, session); err != nil {
		return translateStoreError(err)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, id string, rec *recorder) {
	if s.auditor == nil || rec == nil {
		return
	}
	for _, ev := range rec.events {
		ev.InterviewID = id
		ev.RequestID = requestcontext.RequestID(ctx)
		ev.ClientIP = requestcontext.ClientIP(ctx)
		if ev.Timestamp.IsZero() {
			ev.Timestamp = requestcontext.Now(ctx)
		}
		if err := s.auditor.Emit(ctx, ev); err != nil {
			s.logger.WarnContext(ctx, "failed to emit audit event",
				"interview_id", id,
				"action", ev.Action,
				"error", err,
			)
		}
	}
}

// deriveMinor keeps isMinor in line with a known date of birth.
func (s *Service) deriveMinor(m *flow.Machine, now time.Time) {
	dob, ok := m.Context().Date(applicant.KeyDateOfBirth)
	if !ok {
		return
	}
	setMinor(m, dob, now, s.limits.AdultAge)
}

func setMinor(m *flow.Machine, dob, now time.Time, adultAge int) {
	minor := coherence.AgeOn(dob, now) < adultAge
	if current, ok := m.Context().Get(applicant.KeyIsMinor); ok {
		if b, isBool := current.(bool); isBool && b == minor {
			return
		}
	}
	m.SetContext(map[string]any{applicant.KeyIsMinor: minor})
}

// collectsDateOfBirth reports whether the current step contributes the
// applicant's date of birth.
func collectsDateOfBirth(m *flow.Machine, data map[string]any) (time.Time, bool) {
	step, ok := m.CurrentStep()
	if !ok {
		return time.Time{}, false
	}
	for _, key := range step.Collects {
		if key == applicant.KeyDateOfBirth {
			return fieldset.Date(data, applicant.KeyDateOfBirth)
		}
	}
	return time.Time{}, false
}
