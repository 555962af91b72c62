package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"visaflow/internal/interview/models"
	"visaflow/pkg/platform/sentinel"
)

// PostgresStore persists sessions as jsonb rows in interview_sessions.
// Expired rows read as not found and are removed by PurgeExpired.
type PostgresStore struct {
	db    *sql.DB
	clock func() time.Time
}

func NewPostgres(db *sql.DB, clock func() time.Time) *PostgresStore {
	if clock == nil {
		clock = time.Now
	}
	return &PostgresStore{db: db, clock: clock}
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.Session, error) {
	var record []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT record FROM interview_sessions WHERE id = $1 AND expires_at > $2`,
		id, s.clock(),
	).Scan(&record)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return decode(record)
}

func (s *PostgresStore) Save(ctx context.Context, session *models.Session) error {
	record, err := encode(session)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO interview_sessions (id, record, created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			record = EXCLUDED.record,
			updated_at = EXCLUDED.updated_at,
			expires_at = EXCLUDED.expires_at
	`
	_, err = s.db.ExecContext(ctx, query,
		session.ID,
		record,
		session.CreatedAt,
		session.UpdatedAt,
		session.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("save session %s: %w", session.ID, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM interview_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// PurgeExpired removes sessions past their expiry and reports how many.
func (s *PostgresStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM interview_sessions WHERE expires_at <= $1`, s.clock())
	if err != nil {
		return 0, fmt.Errorf("purge expired sessions: %w", err)
	}
	return res.RowsAffected()
}
