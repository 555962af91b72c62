// Package service orchestrates interviews: it rebuilds the flow machine of a
// session from the store, applies one operation under a per-interview lock,
// persists the result and only then publishes audit events.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"visaflow/internal/coherence"
	"visaflow/internal/extraction"
	"visaflow/internal/flow"
	"visaflow/internal/interview/metrics"
	"visaflow/internal/interview/models"
	"visaflow/internal/requirements"
	"visaflow/internal/resumetoken"
	dErrors "visaflow/pkg/domain-errors"
	"visaflow/pkg/platform/audit"
	"visaflow/pkg/platform/sentinel"
	"visaflow/pkg/requestcontext"
)

// Store persists interview sessions. Missing sessions are reported as
// sentinel.ErrNotFound.
type Store interface {
	Get(ctx context.Context, id string) (*models.Session, error)
	Save(ctx context.Context, session *models.Session) error
	Delete(ctx context.Context, id string) error
}

type TokenIssuer interface {
	Issue(interviewID string) (resumetoken.Token, error)
}

type TokenRevoker interface {
	Revoke(ctx context.Context, jtis []string, ttl time.Duration) error
}

type Extractor interface {
	Extract(ctx context.Context, upload extraction.Upload) (*extraction.Result, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

const (
	reportIDAlphabet = "0123456789ABCDEFGHJKLMNPQRSTUVWXYZ"
	maxUploads       = 10
	extractWorkers   = 4
)

type Service struct {
	store     Store
	tokens    TokenIssuer
	revoker   TokenRevoker
	extractor Extractor
	auditor   AuditPublisher

	requirements *requirements.Catalog
	steps        *flow.Catalog
	limits       coherence.Limits
	sessionTTL   time.Duration
	tokenTTL     time.Duration

	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	locks   *keyedLocks
	newID   func() string
}

type Option func(*Service)

func WithRequirementsCatalog(c *requirements.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.requirements = c
		}
	}
}

func WithStepCatalog(c *flow.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.steps = c
		}
	}
}

func WithLimits(l coherence.Limits) Option {
	return func(s *Service) {
		s.limits = l
	}
}

func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithRevoker enables revocation of a deleted interview's resume tokens for
// tokenTTL, their maximum remaining lifetime.
func WithRevoker(r TokenRevoker, tokenTTL time.Duration) Option {
	return func(s *Service) {
		s.revoker = r
		if tokenTTL > 0 {
			s.tokenTTL = tokenTTL
		}
	}
}

func WithExtractor(e Extractor) Option {
	return func(s *Service) {
		s.extractor = e
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = p
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

func New(store Store, tokens TokenIssuer, opts ...Option) *Service {
	s := &Service{
		store:      store,
		tokens:     tokens,
		limits:     coherence.DefaultLimits(),
		sessionTTL: 72 * time.Hour,
		tokenTTL:   72 * time.Hour,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:     otel.Tracer("visaflow/interview"),
		locks:      newKeyedLocks(),
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.requirements == nil {
		s.requirements = requirements.DefaultCatalog()
	}
	if s.steps == nil {
		s.steps = flow.DefaultCatalog()
	}
	if s.extractor == nil {
		reg := extraction.NewRegistry(s.requirements)
		_ = reg.Register(extraction.NewPassthrough(nil))
		s.extractor = reg
	}
	return s
}

// Start creates an interview, optionally seeded with an initial context,
// and issues its resume token.
func (s *Service) Start(ctx context.Context, initial map[string]any) (*models.Started, error) {
	ctx, span := s.startSpan(ctx, "start", "")
	defer span.End()
	defer s.metrics.ObserveOperation("start", time.Now())

	now := requestcontext.Now(ctx)
	m, rec := s.newMachine(ctx)
	if len(initial) > 0 {
		m.SetContext(initial)
		s.deriveMinor(m, now)
	}

	session := &models.Session{ID: s.newID(), CreatedAt: now}
	return s.create(ctx, span, session, m, rec, audit.EventInterviewStarted)
}

// Import creates a new interview from an export. The exported state is
// validated before anything is stored.
func (s *Service) Import(ctx context.Context, export models.Export) (*models.Started, error) {
	ctx, span := s.startSpan(ctx, "import", "")
	defer span.End()
	defer s.metrics.ObserveOperation("import", time.Now())

	for code := range export.Documents {
		if _, ok := s.requirements.Category(code); !ok {
			return nil, fail(span, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown document category %q", code)))
		}
	}
	m, rec := s.newMachine(ctx)
	if err := m.Import(export.State); err != nil {
		return nil, fail(span, err)
	}

	session := &models.Session{
		ID:        s.newID(),
		Documents: export.Documents,
		CreatedAt: requestcontext.Now(ctx),
	}
	return s.create(ctx, span, session, m, rec, audit.EventInterviewImported)
}

func (s *Service) create(ctx context.Context, span trace.Span, session *models.Session, m *flow.Machine, rec *recorder, action audit.AuditEvent) (*models.Started, error) {
	span.SetAttributes(attribute.String("interview.id", session.ID))

	token, err := s.tokens.Issue(session.ID)
	if err != nil {
		return nil, fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue resume token"))
	}
	session.TokenIDs = []string{token.ID}
	if err := s.persist(ctx, session, m); err != nil {
		return nil, fail(span, err)
	}

	s.metrics.IncInterviewsStarted()
	s.logger.InfoContext(ctx, "interview started",
		"interview_id", session.ID,
		"request_id", requestcontext.RequestID(ctx),
		"action", string(action),
	)
	rec.add(audit.Event{Action: string(action), StepID: m.Export().CurrentStepID})
	rec.add(audit.Event{Action: string(audit.EventResumeTokenIssued)})
	s.publish(ctx, session.ID, rec)

	return &models.Started{
		InterviewID: session.ID,
		ResumeToken: token.Value,
		ExpiresAt:   token.ExpiresAt,
		Snapshot:    m.Snapshot(),
	}, nil
}

// Get returns the current snapshot of an interview.
func (s *Service) Get(ctx context.Context, id string) (*flow.Snapshot, error) {
	var snap flow.Snapshot
	err := s.read(ctx, "get", id, func(_ *models.Session, m *flow.Machine) error {
		snap = m.Snapshot()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// Export returns the portable form of an interview.
func (s *Service) Export(ctx context.Context, id string) (*models.Export, error) {
	var out models.Export
	err := s.read(ctx, "export", id, func(session *models.Session, m *flow.Machine) error {
		out = models.Export{InterviewID: session.ID, State: m.Export(), Documents: session.Documents}
		return nil
	})
	if err != nil {
		return nil, err
	}
	rec := &recorder{}
	rec.add(audit.Event{Action: string(audit.EventInterviewExported)})
	s.publish(ctx, id, rec)
	return &out, nil
}

// Delete removes an interview and revokes every resume token issued for it.
func (s *Service) Delete(ctx context.Context, id string) error {
	ctx, span := s.startSpan(ctx, "delete", id)
	defer span.End()
	defer s.metrics.ObserveOperation("delete", time.Now())

	unlock := s.locks.Lock(id)
	defer unlock()

	session, err := s.load(ctx, id)
	if err != nil {
		return fail(span, err)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fail(span, translateStoreError(err))
	}

	rec := &recorder{}
	rec.add(audit.Event{Action: string(audit.EventInterviewDeleted)})
	if s.revoker != nil && len(session.TokenIDs) > 0 {
		if err := s.revoker.Revoke(ctx, session.TokenIDs, s.tokenTTL); err != nil {
			// the session is gone; tokens now fail on lookup instead
			s.logger.ErrorContext(ctx, "failed to revoke resume tokens",
				"interview_id", id,
				"error", err,
			)
		} else {
			rec.add(audit.Event{Action: string(audit.EventResumeTokenRevoked)})
		}
	}
	s.logger.InfoContext(ctx, "interview deleted",
		"interview_id", id,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.publish(ctx, id, rec)
	return nil
}

func newReportID() (string, error) {
	id, err := gonanoid.Generate(reportIDAlphabet, 10)
	if err != nil {
		return "", err
	}
	return "RPT-" + id, nil
}

func (s *Service) startSpan(ctx context.Context, op, id string) (context.Context, trace.Span) {
	ctx, span := s.tracer.Start(ctx, "interview."+op)
	if id != "" {
		span.SetAttributes(attribute.String("interview.id", id))
	}
	return ctx, span
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func translateStoreError(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "interview not found")
	}
	if errors.Is(err, sentinel.ErrExpired) {
		return dErrors.New(dErrors.CodeNotFound, "interview expired")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "interview store failure")
}
