package auth_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visaflow/internal/resumetoken"
	"visaflow/internal/resumetoken/revocation"
	"visaflow/pkg/platform/middleware/auth"
	"visaflow/pkg/requestcontext"
	"visaflow/pkg/testutil"
)

type failingRevocations struct{}

func (failingRevocations) IsTokenRevoked(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func TestRequireResumeToken(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	tokens := resumetoken.NewService("test-signing-key-0123456789abcdef", "visaflow-test", time.Hour, resumetoken.WithClock(clock))
	list := revocation.NewMemoryList(clock)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var seenInterview, seenToken string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenInterview = requestcontext.InterviewID(r.Context())
		seenToken = requestcontext.TokenID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	protected := auth.RequireResumeToken(
		resumetoken.NewMiddlewareAdapter(tokens),
		resumetoken.NewRevocationAdapter(list),
		logger,
	)(next)

	issued, err := tokens.Issue("iv-1")
	require.NoError(t, err)

	request := func(header string) *http.Request {
		req := testutil.NewJSONRequest(t, http.MethodGet, "/interviews/iv-1", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		return req
	}

	testutil.Given(t, "a valid token", func(t *testing.T) {
		rr := testutil.DoRequest(protected, request("Bearer "+issued.Value))
		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, "iv-1", seenInterview)
		assert.Equal(t, issued.ID, seenToken)
	})

	testutil.Given(t, "no Authorization header", func(t *testing.T) {
		rr := testutil.DoRequest(protected, request(""))
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
	})

	testutil.Given(t, "a tampered token", func(t *testing.T) {
		rr := testutil.DoRequest(protected, request("Bearer "+issued.Value+"x"))
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
	})

	testutil.Given(t, "a revoked token", func(t *testing.T) {
		other, err := tokens.Issue("iv-2")
		require.NoError(t, err)
		require.NoError(t, list.Revoke(context.Background(), []string{other.ID}, time.Hour))

		testutil.When(t, "it is presented", func(t *testing.T) {
			rr := testutil.DoRequest(protected, request("Bearer "+other.Value))
			testutil.Then(t, "the request is rejected", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
			})
		})
	})

	testutil.Given(t, "the revocation list is unavailable", func(t *testing.T) {
		failing := auth.RequireResumeToken(resumetoken.NewMiddlewareAdapter(tokens), failingRevocations{}, logger)(next)
		rr := testutil.DoRequest(failing, request("Bearer "+issued.Value))
		testutil.AssertStatusAndError(t, rr, http.StatusInternalServerError, "internal_error")
	})
}
