package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visaflow/internal/applicant"
	"visaflow/internal/flow"
	"visaflow/internal/interview/models"
	"visaflow/pkg/platform/sentinel"
)

func session(id string, expires time.Time) *models.Session {
	return &models.Session{
		ID: id,
		State: flow.State{
			Context:       applicant.Context{applicant.KeyNationality: "KEN"},
			CurrentStepID: flow.StepIdentity,
			StepStatuses:  map[string]flow.Status{flow.StepPassportType: flow.StatusCompleted},
		},
		TokenIDs:  []string{"jti-1"},
		ExpiresAt: expires,
	}
}

func TestInMemoryStore(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	ctx := context.Background()

	t.Run("round trip returns an independent copy", func(t *testing.T) {
		s := NewInMemory(clock)
		in := session("a", now.Add(time.Hour))
		require.NoError(t, s.Save(ctx, in))

		in.State.Context[applicant.KeyNationality] = "FRA"

		out, err := s.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "KEN", out.State.Context[applicant.KeyNationality])
		assert.Equal(t, flow.StepIdentity, out.State.CurrentStepID)
		assert.Equal(t, []string{"jti-1"}, out.TokenIDs)
	})

	t.Run("expired sessions are gone", func(t *testing.T) {
		s := NewInMemory(clock)
		require.NoError(t, s.Save(ctx, session("old", now.Add(-time.Second))))

		_, err := s.Get(ctx, "old")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		s := NewInMemory(clock)
		require.NoError(t, s.Save(ctx, session("b", now.Add(time.Hour))))
		require.NoError(t, s.Delete(ctx, "b"))

		_, err := s.Get(ctx, "b")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, "b"), sentinel.ErrNotFound)
	})
}
