// Package resumetoken issues and validates the bearer tokens that let an
// applicant come back to an interview. A token is bound to exactly one
// interview id.
package resumetoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "visaflow/pkg/domain-errors"
)

// Claims are the resume token claims. The subject is the interview id.
type Claims struct {
	InterviewID string `json:"interview_id"`
	jwt.RegisteredClaims
}

// Token is a freshly issued resume token.
type Token struct {
	Value     string    `json:"token"`
	ID        string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Service signs resume tokens with HS256.
type Service struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
	clock      func() time.Time
}

type Option func(*Service)

// WithClock sets the time source for issuance and expiry checks.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func NewService(signingKey, issuer string, ttl time.Duration, opts ...Option) *Service {
	s := &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		ttl:        ttl,
		clock:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Issue signs a token for interviewID.
func (s *Service) Issue(interviewID string) (Token, error) {
	if interviewID == "" {
		return Token{}, dErrors.New(dErrors.CodeInvalidInput, "interview id is required")
	}
	now := s.clock()
	expiresAt := now.Add(s.ttl)
	jti := uuid.NewString()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		InterviewID: interviewID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   interviewID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        jti,
		},
	}).SignedString(s.signingKey)
	if err != nil {
		return Token{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign resume token")
	}
	return Token{Value: signed, ID: jti, ExpiresAt: expiresAt}, nil
}

// Validate parses and verifies a token.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithTimeFunc(s.clock))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.InterviewID == "" || claims.InterviewID != claims.Subject {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}
