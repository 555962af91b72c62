package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"visaflow/internal/coherence"
	"visaflow/internal/extraction"
	"visaflow/internal/flow"
	"visaflow/internal/interview/models"
	dErrors "visaflow/pkg/domain-errors"
	"visaflow/pkg/platform/httputil"
	"visaflow/pkg/requestcontext"
)

// Service defines the interview operations exposed over HTTP.
type Service interface {
	Start(ctx context.Context, initial map[string]any) (*models.Started, error)
	Import(ctx context.Context, export models.Export) (*models.Started, error)
	Get(ctx context.Context, id string) (*flow.Snapshot, error)
	SetContext(ctx context.Context, id string, partial map[string]any) (*flow.Snapshot, error)
	CompleteStep(ctx context.Context, id string, data map[string]any) (*flow.Snapshot, error)
	SkipStep(ctx context.Context, id, reason string) (*flow.Snapshot, error)
	GoBack(ctx context.Context, id string) (*flow.Snapshot, error)
	NavigateTo(ctx context.Context, id, stepID string) (*flow.Snapshot, error)
	Reset(ctx context.Context, id string) (*flow.Snapshot, error)
	Requirements(ctx context.Context, id string) (*models.RequirementsView, error)
	AttachDocuments(ctx context.Context, id string, uploads []extraction.Upload) (*models.AttachResult, error)
	Evaluate(ctx context.Context, id string) (*coherence.Report, error)
	Export(ctx context.Context, id string) (*models.Export, error)
	Delete(ctx context.Context, id string) error
}

// Handler wires interview endpoints to the interview service.
type Handler struct {
	service     Service
	logger      *slog.Logger
	requireAuth func(http.Handler) http.Handler
}

// New constructs an interview handler. requireAuth guards every route bound
// to an existing interview; nil leaves them open, which only tests do.
func New(service Service, logger *slog.Logger, requireAuth func(http.Handler) http.Handler) *Handler {
	return &Handler{
		service:     service,
		logger:      logger,
		requireAuth: requireAuth,
	}
}

// Register mounts interview endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/interviews", h.HandleStart)
	r.Post("/interviews/import", h.HandleImport)

	r.Group(func(r chi.Router) {
		if h.requireAuth != nil {
			r.Use(h.requireAuth)
		}
		r.Get("/interviews/{id}", h.HandleGet)
		r.Delete("/interviews/{id}", h.HandleDelete)
		r.Patch("/interviews/{id}/context", h.HandleSetContext)
		r.Post("/interviews/{id}/steps/complete", h.HandleCompleteStep)
		r.Post("/interviews/{id}/steps/skip", h.HandleSkipStep)
		r.Post("/interviews/{id}/steps/back", h.HandleGoBack)
		r.Post("/interviews/{id}/steps/{stepID}/navigate", h.HandleNavigate)
		r.Get("/interviews/{id}/requirements", h.HandleRequirements)
		r.Post("/interviews/{id}/documents", h.HandleAttachDocuments)
		r.Post("/interviews/{id}/coherence", h.HandleEvaluate)
		r.Get("/interviews/{id}/export", h.HandleExport)
		r.Post("/interviews/{id}/reset", h.HandleReset)
	})
}

// interviewID returns the {id} path parameter after checking it matches the
// interview the resume token was issued for.
func (h *Handler) interviewID(w http.ResponseWriter, r *http.Request) (string, bool) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	if h.requireAuth == nil {
		return id, true
	}
	if bound := requestcontext.InterviewID(ctx); bound != id {
		h.logger.WarnContext(ctx, "resume token used for another interview",
			"request_id", requestcontext.RequestID(ctx),
			"interview_id", id,
			"token_interview_id", bound,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "resume token does not grant access to this interview"))
		return "", false
	}
	return id, true
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, op, id string, err error) {
	attrs := []any{
		"request_id", requestcontext.RequestID(ctx),
		"interview_id", id,
		"error", err,
	}
	if dErrors.GetCode(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, op+" failed", attrs...)
	} else {
		h.logger.WarnContext(ctx, op+" rejected", attrs...)
	}
	httputil.WriteError(w, err)
}

// HandleStart handles POST /interviews. The body is optional.
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	var initial map[string]any
	if r.ContentLength != 0 {
		req, ok := httputil.DecodeAndPrepare[StartRequest](w, r, h.logger, ctx, requestID)
		if !ok {
			return
		}
		initial = req.Context
	}

	started, err := h.service.Start(ctx, initial)
	if err != nil {
		h.fail(ctx, w, "start interview", "", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromStarted(started))
}

// HandleImport handles POST /interviews/import.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[ImportRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	started, err := h.service.Import(ctx, req.Export())
	if err != nil {
		h.fail(ctx, w, "import interview", "", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromStarted(started))
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.interviewID(w, r)
	if !ok {
		return
	}
	snap, err := h.service.Get(r.Context(), id)
	h.writeSnapshot(w, r, "get interview", id, snap, err)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.interviewID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.fail(r.Context(), w, "delete interview", id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleSetContext(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.interviewID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ContextRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	snap, err := h.service.SetContext(ctx, id, req.Context)
	h.writeSnapshot(w, r, "update context", id, snap, err)
}

func (h *Handler) HandleCompleteStep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.interviewID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CompleteStepRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	snap, err := h.service.CompleteStep(ctx, id, req.Data)
	h.writeSnapshot(w, r, "complete step", id, snap, err)
}

func (h *Handler) HandleSkipStep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.interviewID(w, r)
	if !ok {
		return
	}
	reason := ""
	if r.ContentLength != 0 {
		req, ok := httputil.DecodeAndPrepare[SkipStepRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
		if !ok {
			return
		}
		reason = req.Reason
	}
	snap, err := h.service.SkipStep(ctx, id, reason)
	h.writeSnapshot(w, r, "skip step", id, snap, err)
}

func (h *Handler) HandleGoBack(w http.ResponseWriter, r *http.Request) {
	id, ok := h.interviewID(w, r)
	if !ok {
		return
	}
	snap, err := h.service.GoBack(r.Context(), id)
	h.writeSnapshot(w, r, "go back", id, snap, err)
}

func (h *Handler) HandleNavigate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.interviewID(w, r)
	if !ok {
		return
	}
	snap, err := h.service.NavigateTo(r.Context(), id, chi.URLParam(r, "stepID"))
	h.writeSnapshot(w, r, "navigate", id, snap, err)
}

func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	id, ok := h.interviewID(w, r)
	if !ok {
		return
	}
	snap, err := h.service.Reset(r.Context(), id)
	h.writeSnapshot(w, r, "reset interview", id, snap, err)
}

func (h *Handler) HandleRequirements(w http.ResponseWriter, r *http.Request) {
	id, ok := h.interviewID(w, r)
	if !ok {
		return
	}
	view, err := h.service.Requirements(r.Context(), id)
	if err != nil {
		h.fail(r.Context(), w, "list requirements", id, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

// HandleAttachDocuments handles POST /interviews/{id}/documents.
func (h *Handler) HandleAttachDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.interviewID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AttachDocumentsRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	res, err := h.service.AttachDocuments(ctx, id, req.ParsedUploads())
	if err != nil {
		h.fail(ctx, w, "attach documents", id, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &AttachDocumentsResponse{
		InterviewID: id,
		Documents:   res.Documents,
		Interview:   res.Snapshot,
	})
}

// HandleEvaluate handles POST /interviews/{id}/coherence.
func (h *Handler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.interviewID(w, r)
	if !ok {
		return
	}
	report, err := h.service.Evaluate(ctx, id)
	if err != nil {
		h.fail(ctx, w, "evaluate coherence", id, err)
		return
	}
	h.logger.InfoContext(ctx, "coherence evaluated",
		"request_id", requestcontext.RequestID(ctx),
		"interview_id", id,
		"report_id", report.ID,
		"score", report.Score,
		"valid", report.Valid,
	)
	httputil.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	id, ok := h.interviewID(w, r)
	if !ok {
		return
	}
	export, err := h.service.Export(r.Context(), id)
	if err != nil {
		h.fail(r.Context(), w, "export interview", id, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, export)
}

func (h *Handler) writeSnapshot(w http.ResponseWriter, r *http.Request, op, id string, snap *flow.Snapshot, err error) {
	if err != nil {
		h.fail(r.Context(), w, op, id, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSnapshot(id, snap))
}
