package service

import (
	"context"
	"strings"

	"visaflow/internal/flow"
	"visaflow/internal/interview/models"
	dErrors "visaflow/pkg/domain-errors"
	"visaflow/pkg/platform/audit"
	"visaflow/pkg/requestcontext"
)

// SetContext merges declared applicant facts into the interview context.
func (s *Service) SetContext(ctx context.Context, id string, partial map[string]any) (*flow.Snapshot, error) {
	if len(partial) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "context update is empty")
	}
	for key := range partial {
		if strings.TrimSpace(key) == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "context keys must not be blank")
		}
	}
	return s.mutate(ctx, "set_context", id, func(ctx context.Context, _ *models.Session, m *flow.Machine, rec *recorder) error {
		m.SetContext(partial)
		s.deriveMinor(m, requestcontext.Now(ctx))
		rec.add(audit.Event{Action: string(audit.EventContextUpdated)})
		return nil
	})
}

// CompleteStep submits data for the current step and advances.
func (s *Service) CompleteStep(ctx context.Context, id string, data map[string]any) (*flow.Snapshot, error) {
	return s.mutate(ctx, "complete_step", id, func(ctx context.Context, _ *models.Session, m *flow.Machine, _ *recorder) error {
		if dob, ok := collectsDateOfBirth(m, data); ok {
			setMinor(m, dob, requestcontext.Now(ctx), s.limits.AdultAge)
		}
		_, err := m.CompleteCurrentStep(data)
		return err
	})
}

func (s *Service) SkipStep(ctx context.Context, id, reason string) (*flow.Snapshot, error) {
	return s.mutate(ctx, "skip_step", id, func(_ context.Context, _ *models.Session, m *flow.Machine, _ *recorder) error {
		_, err := m.SkipCurrentStep(reason)
		return err
	})
}

func (s *Service) GoBack(ctx context.Context, id string) (*flow.Snapshot, error) {
	return s.mutate(ctx, "go_back", id, func(_ context.Context, _ *models.Session, m *flow.Machine, _ *recorder) error {
		_, err := m.GoBack()
		return err
	})
}

func (s *Service) NavigateTo(ctx context.Context, id, stepID string) (*flow.Snapshot, error) {
	if strings.TrimSpace(stepID) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "step id is required")
	}
	return s.mutate(ctx, "navigate", id, func(_ context.Context, _ *models.Session, m *flow.Machine, _ *recorder) error {
		_, err := m.NavigateTo(stepID)
		return err
	})
}

// Reset clears collected data, extracted documents and the last report, and
// restarts the interview from its first step.
func (s *Service) Reset(ctx context.Context, id string) (*flow.Snapshot, error) {
	return s.mutate(ctx, "reset", id, func(_ context.Context, session *models.Session, m *flow.Machine, _ *recorder) error {
		m.Reset()
		session.Documents = nil
		session.Report = nil
		return nil
	})
}

// Requirements evaluates the document requirements, fee and processing time
// for the interview's current context.
func (s *Service) Requirements(ctx context.Context, id string) (*models.RequirementsView, error) {
	var view models.RequirementsView
	err := s.read(ctx, "requirements", id, func(_ *models.Session, m *flow.Machine) error {
		engine := m.Engine()
		view = models.RequirementsView{
			Workflow:       engine.Workflow(),
			Documents:      engine.Requirements(),
			Required:       engine.RequiredDocuments(),
			Conditional:    engine.ConditionalDocuments(),
			Optional:       engine.OptionalDocuments(),
			Fee:            engine.CalculateFee(m.Context()),
			ProcessingTime: engine.ProcessingTime(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}
