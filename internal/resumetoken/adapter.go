package resumetoken

import (
	"context"

	"visaflow/pkg/platform/middleware/auth"
)

// MiddlewareAdapter lets the HTTP auth middleware validate resume tokens
// without importing this package.
type MiddlewareAdapter struct {
	svc *Service
}

func NewMiddlewareAdapter(svc *Service) *MiddlewareAdapter {
	return &MiddlewareAdapter{svc: svc}
}

func (a *MiddlewareAdapter) ValidateResumeToken(token string) (*auth.ResumeClaims, error) {
	claims, err := a.svc.Validate(token)
	if err != nil {
		return nil, err
	}
	return &auth.ResumeClaims{InterviewID: claims.InterviewID, TokenID: claims.ID}, nil
}

// RevocationChecker is any revocation list.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// RevocationAdapter exposes a revocation list to the auth middleware.
type RevocationAdapter struct {
	list RevocationChecker
}

func NewRevocationAdapter(list RevocationChecker) *RevocationAdapter {
	return &RevocationAdapter{list: list}
}

func (a *RevocationAdapter) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	return a.list.IsRevoked(ctx, jti)
}
