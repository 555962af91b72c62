package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	interviewhandler "visaflow/internal/interview/handler"
	interviewmetrics "visaflow/internal/interview/metrics"
	"visaflow/internal/interview/service"
	"visaflow/internal/platform/config"
	platformkafka "visaflow/internal/platform/kafka"
	"visaflow/internal/platform/metrics"
	"visaflow/internal/resumetoken"
	"visaflow/pkg/platform/httputil"
	"visaflow/pkg/platform/middleware/auth"
	"visaflow/pkg/platform/middleware/metadata"
	"visaflow/pkg/platform/middleware/requestlog"
	"visaflow/pkg/platform/middleware/requesttime"
)

const healthTimeout = 2 * time.Second

func newRouter(cfg config.Config, log *slog.Logger, reg *prometheus.Registry, d *dependencies) http.Handler {
	httpMetrics := metrics.New(reg)

	tokens := resumetoken.NewService(cfg.Resume.SigningKey, cfg.Resume.Issuer, cfg.Resume.TTL)
	svc := service.New(d.sessions, tokens,
		service.WithRequirementsCatalog(d.catalog),
		service.WithSessionTTL(cfg.Session.TTL),
		service.WithRevoker(d.revocations, cfg.Resume.TTL),
		service.WithExtractor(d.extractor),
		service.WithAuditPublisher(d.auditor),
		service.WithLogger(log),
		service.WithMetrics(interviewmetrics.New(reg)),
	)
	requireToken := auth.RequireResumeToken(
		resumetoken.NewMiddlewareAdapter(tokens),
		resumetoken.NewRevocationAdapter(d.revocations),
		log,
	)

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(metadata.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(requestlog.Middleware(log))
	r.Use(httpMetrics.Middleware)

	r.Get("/healthz", healthHandler(d))
	r.Handle("/metrics", httpMetrics.Handler())
	interviewhandler.New(svc, log, requireToken).Register(r)
	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// healthHandler pings every configured backend.
func healthHandler(d *dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		checks := map[string]func(context.Context) error{}
		if d.redis != nil {
			checks["redis"] = d.redis.Health
		}
		if d.db != nil {
			checks["postgres"] = d.db.PingContext
		}
		if d.kafka != nil {
			checks["kafka"] = func(ctx context.Context) error { return platformkafka.Health(ctx, d.kafka) }
		}

		resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(checks))}
		status := http.StatusOK
		for name, check := range checks {
			if err := check(ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
