package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"visaflow/internal/applicant"
	"visaflow/internal/coherence"
	"visaflow/internal/extraction"
	"visaflow/internal/flow"
	"visaflow/internal/interview/models"
	"visaflow/internal/requirements"
	dErrors "visaflow/pkg/domain-errors"
	"visaflow/pkg/fieldset"
	"visaflow/pkg/platform/audit"
	"visaflow/pkg/requestcontext"
)

// prefill maps extracted fields onto context keys the applicant has not
// declared yet.
var prefill = map[requirements.Code]map[string]string{
	requirements.DocPassport: {
		"fullName":       applicant.KeyFullName,
		"dateOfBirth":    applicant.KeyDateOfBirth,
		"nationality":    applicant.KeyNationality,
		"passportNumber": applicant.KeyPassportNumber,
		"expiryDate":     applicant.KeyPassportExpiry,
	},
	requirements.DocTicket: {
		"arrivalDate":   applicant.KeyArrivalDate,
		"departureDate": applicant.KeyDepartureDate,
	},
}

// AttachDocuments extracts every upload in parallel and keeps the latest
// successful result per category. Individual failures are reported per
// document; the call fails only when no upload could be read.
func (s *Service) AttachDocuments(ctx context.Context, id string, uploads []extraction.Upload) (*models.AttachResult, error) {
	if len(uploads) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one document is required")
	}
	if len(uploads) > maxUploads {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("at most %d documents per request", maxUploads))
	}

	var outcomes []models.DocumentOutcome
	snap, err := s.mutate(ctx, "attach_documents", id, func(ctx context.Context, session *models.Session, m *flow.Machine, rec *recorder) error {
		results, errs := s.extractAll(ctx, uploads)

		outcomes = make([]models.DocumentOutcome, len(uploads))
		var firstErr error
		succeeded := 0
		for i, u := range uploads {
			outcomes[i].Category = u.Category
			if errs[i] != nil {
				kind := extraction.GetCategory(errs[i])
				outcomes[i].Error = errs[i].Error()
				outcomes[i].ErrorKind = string(kind)
				if firstErr == nil {
					firstErr = errs[i]
				}
				rec.add(audit.Event{
					Action: string(audit.EventExtractionFailed),
					Reason: string(u.Category) + ": " + string(kind),
				})
				continue
			}
			res := results[i]
			outcomes[i].ProviderID = res.ProviderID
			outcomes[i].Confidence = res.Confidence
			outcomes[i].Fields = res.Fields
			if session.Documents == nil {
				session.Documents = make(map[requirements.Code]extraction.Result)
			}
			session.Documents[u.Category] = *res
			s.prefillContext(m, u.Category, res.Fields)
			succeeded++
		}
		if succeeded == 0 {
			return extraction.ToDomainError(firstErr)
		}

		s.deriveMinor(m, requestcontext.Now(ctx))
		// a new document invalidates the last report
		session.Report = nil
		rec.add(audit.Event{
			Action: string(audit.EventDocumentsAttached),
			Reason: fmt.Sprintf("%d of %d documents read", succeeded, len(uploads)),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &models.AttachResult{Documents: outcomes, Snapshot: *snap}, nil
}

func (s *Service) extractAll(ctx context.Context, uploads []extraction.Upload) ([]*extraction.Result, []error) {
	results := make([]*extraction.Result, len(uploads))
	errs := make([]error, len(uploads))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(extractWorkers)
	for i, u := range uploads {
		g.Go(func() error {
			start := time.Now()
			res, err := s.extractor.Extract(gctx, u)
			s.metrics.ObserveExtraction(string(u.Category), time.Since(start))
			if err != nil {
				s.metrics.IncExtractionFailure(string(u.Category), string(extraction.GetCategory(err)))
				s.logger.WarnContext(ctx, "document extraction failed",
					"category", string(u.Category),
					"file_name", u.FileName,
					"error", err,
				)
				errs[i] = err
				return nil
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()
	return results, errs
}

func (s *Service) prefillContext(m *flow.Machine, code requirements.Code, fields map[string]any) {
	mapping, ok := prefill[code]
	if !ok {
		return
	}
	current := m.Context()
	partial := map[string]any{}
	for field, key := range mapping {
		if current.Has(key) {
			continue
		}
		if v, ok := fieldset.Value(fields, field); ok && !fieldset.IsEmpty(v) {
			partial[key] = fieldset.Unwrap(v)
		}
	}
	if len(partial) > 0 {
		m.SetContext(partial)
	}
}

// Evaluate runs the coherence checks over everything the interview knows and
// stores the report.
func (s *Service) Evaluate(ctx context.Context, id string) (*coherence.Report, error) {
	var report coherence.Report
	_, err := s.mutate(ctx, "evaluate", id, func(ctx context.Context, session *models.Session, m *flow.Machine, rec *recorder) error {
		now := requestcontext.Now(ctx)
		validator := coherence.NewValidator(
			coherence.WithCatalog(s.requirements),
			coherence.WithLimits(s.limits),
			coherence.WithClock(func() time.Time { return now }),
		)
		report = validator.Validate(s.documents(session, m))

		reportID, err := newReportID()
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate report id")
		}
		report.ID = reportID
		session.Report = &report

		for _, r := range report.Results {
			s.metrics.ObserveCoherenceResult(r.Code, string(r.Outcome))
		}
		s.metrics.ObserveCoherenceScore(report.Score)

		decision := "valid"
		if !report.Valid {
			decision = "invalid"
		}
		rec.add(audit.Event{
			Action:   string(audit.EventCoherenceEvaluated),
			Decision: decision,
			Reason:   fmt.Sprintf("%s score=%.2f failures=%d", report.ID, report.Score, report.FailCount),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// documents assembles the coherence input. The passport starts from the
// declared identity and is overlaid by extraction; other documents start
// from their completed step data and are overlaid the same way.
func (s *Service) documents(session *models.Session, m *flow.Machine) coherence.Documents {
	ctx := m.Context()
	docs := coherence.Documents{
		Passport: map[string]any{},
		Others:   map[requirements.Code]map[string]any{},
		Trip:     map[string]any{},
	}

	for _, key := range []string{applicant.KeyFullName, applicant.KeyDateOfBirth, applicant.KeyNationality, applicant.KeyPassportNumber, applicant.KeyPassportExpiry} {
		if v, ok := ctx.Get(key); ok {
			docs.Passport[key] = v
		}
	}
	for _, key := range []string{applicant.KeyArrivalDate, applicant.KeyDepartureDate} {
		if v, ok := ctx.Get(key); ok {
			docs.Trip[key] = v
		}
	}

	for _, step := range m.Catalog().Steps() {
		if step.Document == "" || m.Status(step.ID) != flow.StatusCompleted {
			continue
		}
		data, _ := m.StepData(step.ID)
		if step.Document == requirements.DocPassport {
			for k, v := range data {
				docs.Passport[k] = v
			}
			continue
		}
		doc := docs.Others[step.Document]
		if doc == nil {
			doc = map[string]any{}
		}
		for k, v := range data {
			doc[k] = v
		}
		docs.Others[step.Document] = doc
	}

	for code, res := range session.Documents {
		if code == requirements.DocPassport {
			for k, v := range res.Fields {
				docs.Passport[k] = v
			}
			continue
		}
		doc := docs.Others[code]
		if doc == nil {
			doc = map[string]any{}
		}
		for k, v := range res.Fields {
			doc[k] = v
		}
		docs.Others[code] = doc
	}
	return docs
}
