package resumetoken

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "visaflow/pkg/domain-errors"
)

var issuedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newService(now time.Time) *Service {
	return NewService("test-signing-key", "visaflow-test", time.Hour, WithClock(func() time.Time { return now }))
}

func TestIssueAndValidate(t *testing.T) {
	svc := newService(issuedAt)

	token, err := svc.Issue("iv_123")
	require.NoError(t, err)
	require.NotEmpty(t, token.Value)
	assert.Equal(t, issuedAt.Add(time.Hour), token.ExpiresAt)

	claims, err := svc.Validate(token.Value)
	require.NoError(t, err)
	assert.Equal(t, "iv_123", claims.InterviewID)
	assert.Equal(t, token.ID, claims.ID)
}

func TestIssueRequiresInterview(t *testing.T) {
	_, err := newService(issuedAt).Issue("")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestValidateExpiredToken(t *testing.T) {
	token, err := newService(issuedAt).Issue("iv_123")
	require.NoError(t, err)

	_, err = newService(issuedAt.Add(2 * time.Hour)).Validate(token.Value)
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "token has expired"))
}

func TestValidateRejectsForeignTokens(t *testing.T) {
	t.Run("garbage", func(t *testing.T) {
		_, err := newService(issuedAt).Validate("not-a-token")
		require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "invalid token"))
	})

	t.Run("other signing key", func(t *testing.T) {
		other := NewService("another-key", "visaflow-test", time.Hour, WithClock(func() time.Time { return issuedAt }))
		token, err := other.Issue("iv_123")
		require.NoError(t, err)

		_, err = newService(issuedAt).Validate(token.Value)
		require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "invalid token"))
	})

	t.Run("subject does not match interview", func(t *testing.T) {
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
			InterviewID: "iv_123",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "iv_999",
				Issuer:    "visaflow-test",
				ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour)),
			},
		}).SignedString([]byte("test-signing-key"))
		require.NoError(t, err)

		_, err = newService(issuedAt).Validate(signed)
		require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims"))
	})
}
