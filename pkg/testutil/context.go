package testutil

import (
	"net/http"
	"time"

	"visaflow/pkg/requestcontext"
)

// WithInterview binds the request to an interview the way the resume token
// middleware does after validating a token.
func WithInterview(req *http.Request, interviewID, tokenID string) *http.Request {
	ctx := requestcontext.WithInterviewID(req.Context(), interviewID)
	ctx = requestcontext.WithTokenID(ctx, tokenID)
	return req.WithContext(ctx)
}

// WithRequestTime pins the request-scoped clock.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
