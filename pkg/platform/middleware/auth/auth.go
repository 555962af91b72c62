package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"visaflow/pkg/requestcontext"
)

// ResumeClaims is what the middleware needs from a validated resume token.
type ResumeClaims struct {
	InterviewID string
	TokenID     string
}

// TokenValidator validates a raw bearer token.
type TokenValidator interface {
	ValidateResumeToken(token string) (*ResumeClaims, error)
}

// TokenRevocationChecker reports whether a token id was revoked. It is optional.
type TokenRevocationChecker interface {
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": errCode, "error_description": errDesc})
}

// RequireResumeToken rejects requests without a valid "Bearer <token>" header
// and stores the bound interview id in the request context.
func RequireResumeToken(validator TokenValidator, revocations TokenRevocationChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token", "request_id", requestID)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateResumeToken(strings.TrimSpace(token))
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			if revocations != nil {
				revoked, err := revocations.IsTokenRevoked(ctx, claims.TokenID)
				if err != nil {
					logger.ErrorContext(ctx, "failed to check token revocation",
						"error", err,
						"request_id", requestID,
					)
					writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to validate token")
					return
				}
				if revoked {
					logger.WarnContext(ctx, "unauthorized access - token revoked",
						"jti", claims.TokenID,
						"request_id", requestID,
					)
					writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Token has been revoked")
					return
				}
			}

			ctx = requestcontext.WithInterviewID(ctx, claims.InterviewID)
			ctx = requestcontext.WithTokenID(ctx, claims.TokenID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
