package handler

import (
	"time"

	"visaflow/internal/flow"
	"visaflow/internal/interview/models"
)

// StartResponse is returned by POST /interviews and POST /interviews/import.
type StartResponse struct {
	InterviewID string        `json:"interview_id"`
	ResumeToken string        `json:"resume_token"`
	ExpiresAt   time.Time     `json:"expires_at"`
	Interview   flow.Snapshot `json:"interview"`
}

func FromStarted(s *models.Started) *StartResponse {
	return &StartResponse{
		InterviewID: s.InterviewID,
		ResumeToken: s.ResumeToken,
		ExpiresAt:   s.ExpiresAt,
		Interview:   s.Snapshot,
	}
}

// SnapshotResponse wraps a snapshot with its interview id.
type SnapshotResponse struct {
	InterviewID string        `json:"interview_id"`
	Interview   flow.Snapshot `json:"interview"`
}

func FromSnapshot(id string, snap *flow.Snapshot) *SnapshotResponse {
	return &SnapshotResponse{InterviewID: id, Interview: *snap}
}

type AttachDocumentsResponse struct {
	InterviewID string                   `json:"interview_id"`
	Documents   []models.DocumentOutcome `json:"documents"`
	Interview   flow.Snapshot            `json:"interview"`
}
