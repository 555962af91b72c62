package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	audit "visaflow/pkg/platform/audit"
)

// Store implements audit.Store on the audit_events table.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append inserts an event under a fresh id.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	return s.AppendWithID(ctx, uuid.New(), event)
}

// AppendWithID is idempotent: duplicate ids are ignored, so a replayed
// broker message never duplicates a row.
func (s *Store) AppendWithID(ctx context.Context, eventID uuid.UUID, event audit.Event) error {
	query := `
		INSERT INTO audit_events (
			id, category, timestamp, interview_id, action,
			step_id, from_step_id, decision, reason, request_id, client_ip
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		eventID,
		string(audit.AuditEvent(event.Action).Category()),
		event.Timestamp,
		event.InterviewID,
		event.Action,
		event.StepID,
		event.FromStepID,
		event.Decision,
		event.Reason,
		event.RequestID,
		event.ClientIP,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *Store) ListByInterview(ctx context.Context, interviewID string) ([]audit.Event, error) {
	query := `
		SELECT category, timestamp, interview_id, action,
			   step_id, from_step_id, decision, reason, request_id, client_ip
		FROM audit_events
		WHERE interview_id = $1
		ORDER BY timestamp ASC
	`
	rows, err := s.db.QueryContext(ctx, query, interviewID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			category string
			event    audit.Event
		)
		if err := rows.Scan(
			&category,
			&event.Timestamp,
			&event.InterviewID,
			&event.Action,
			&event.StepID,
			&event.FromStepID,
			&event.Decision,
			&event.Reason,
			&event.RequestID,
			&event.ClientIP,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = audit.EventCategory(category)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
