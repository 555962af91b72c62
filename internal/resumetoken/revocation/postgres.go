package revocation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// PostgresList persists revoked token ids in the token_revocations table.
type PostgresList struct {
	db    *sql.DB
	clock func() time.Time
}

// PostgresOption configures a PostgresList.
type PostgresOption func(*PostgresList)

func WithPostgresClock(clock func() time.Time) PostgresOption {
	return func(l *PostgresList) {
		if clock != nil {
			l.clock = clock
		}
	}
}

func NewPostgresList(db *sql.DB, opts ...PostgresOption) *PostgresList {
	l := &PostgresList{db: db, clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Revoke inserts all ids in one statement using unnest.
func (l *PostgresList) Revoke(ctx context.Context, jtis []string, ttl time.Duration) error {
	if err := validateTTL(ttl); err != nil {
		return err
	}
	jtis = nonEmpty(jtis)
	if len(jtis) == 0 {
		return nil
	}
	query := `
		INSERT INTO token_revocations (jti, expires_at)
		SELECT unnest($1::text[]), $2
		ON CONFLICT (jti) DO UPDATE SET
			expires_at = EXCLUDED.expires_at
	`
	if _, err := l.db.ExecContext(ctx, query, pq.Array(jtis), l.clock().Add(ttl)); err != nil {
		return fmt.Errorf("revoke tokens: %w", err)
	}
	return nil
}

func (l *PostgresList) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var expiresAt time.Time
	err := l.db.QueryRowContext(ctx, `SELECT expires_at FROM token_revocations WHERE jti = $1`, jti).Scan(&expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check token revocation: %w", err)
	}
	return !l.clock().After(expiresAt), nil
}
