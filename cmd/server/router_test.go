package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visaflow/internal/applicant"
	"visaflow/internal/flow"
	interviewhandler "visaflow/internal/interview/handler"
	"visaflow/internal/platform/config"
	"visaflow/pkg/testutil"
)

func testConfig() config.Config {
	return config.Config{
		Server:  config.Server{Addr: ":0", ShutdownTimeout: time.Second},
		Resume:  config.Resume{SigningKey: "router-test-key-0123456789abcdef", Issuer: "visaflow", TTL: time.Hour},
		Session: config.Session{Store: config.StoreMemory, TTL: time.Hour},
		Kafka:   config.KafkaConfig{AuditTopic: "visaflow.audit"},
	}
}

func TestServerRoutes(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	deps, err := buildDependencies(context.Background(), testConfig(), log, reg)
	require.NoError(t, err)
	t.Cleanup(func() { deps.Close(log) })

	router := newRouter(testConfig(), log, reg, deps)

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/interviews", nil))
	require.Equal(t, http.StatusCreated, rr.Code)
	started := testutil.UnmarshalResponse[interviewhandler.StartResponse](t, rr)
	require.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	authed := func(method, path string, body any) *http.Request {
		req := testutil.NewJSONRequest(t, method, path, body)
		req.Header.Set("Authorization", "Bearer "+started.ResumeToken)
		return req
	}

	t.Run("token is required", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/interviews/"+started.InterviewID, nil))
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
	})

	t.Run("token is bound to its interview", func(t *testing.T) {
		rr := testutil.DoRequest(router, authed(http.MethodGet, "/interviews/someone-else", nil))
		testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")
	})

	t.Run("complete the first step", func(t *testing.T) {
		rr := testutil.DoRequest(router, authed(http.MethodPost, "/interviews/"+started.InterviewID+"/steps/complete",
			map[string]any{"data": map[string]any{applicant.KeyPassportType: applicant.PassportOrdinary}}))
		require.Equal(t, http.StatusOK, rr.Code)
		snap := testutil.UnmarshalResponse[interviewhandler.SnapshotResponse](t, rr)
		assert.Equal(t, flow.StepIdentity, snap.Interview.CurrentStepID)
	})

	t.Run("health and metrics", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rr.Code)

		rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "visaflow_http_requests_total")
	})

	t.Run("deleted interview revokes its token", func(t *testing.T) {
		rr := testutil.DoRequest(router, authed(http.MethodDelete, "/interviews/"+started.InterviewID, nil))
		require.Equal(t, http.StatusNoContent, rr.Code)

		rr = testutil.DoRequest(router, authed(http.MethodGet, "/interviews/"+started.InterviewID, nil))
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
	})
}
