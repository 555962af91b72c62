package models

import (
	"time"

	"visaflow/internal/coherence"
	"visaflow/internal/extraction"
	"visaflow/internal/flow"
	"visaflow/internal/requirements"
)

// Session is the persisted interview aggregate. The flow machine and its
// requirements engine are rebuilt from State for every operation, so a
// failed operation never leaves a half-applied change behind.
type Session struct {
	ID        string                                  `json:"id"`
	State     flow.State                              `json:"state"`
	Documents map[requirements.Code]extraction.Result `json:"documents,omitempty"`
	Report    *coherence.Report                       `json:"report,omitempty"`
	TokenIDs  []string                                `json:"token_ids,omitempty"`
	CreatedAt time.Time                               `json:"created_at"`
	UpdatedAt time.Time                               `json:"updated_at"`
	ExpiresAt time.Time                               `json:"expires_at"`
}

// IsExpired reports whether the session outlived its TTL at now.
func (s *Session) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// RequirementsView is the full requirement picture for one interview.
type RequirementsView struct {
	Workflow       requirements.Workflow      `json:"workflow"`
	Documents      []requirements.Requirement `json:"documents"`
	Required       []requirements.Code        `json:"required"`
	Conditional    []requirements.Code        `json:"conditional"`
	Optional       []requirements.Code        `json:"optional"`
	Fee            requirements.Fee           `json:"fee"`
	ProcessingTime requirements.DayRange      `json:"processing_time"`
}

// Started is returned when an interview is created or imported.
type Started struct {
	InterviewID string        `json:"interview_id"`
	ResumeToken string        `json:"resume_token"`
	ExpiresAt   time.Time     `json:"expires_at"`
	Snapshot    flow.Snapshot `json:"snapshot"`
}

// DocumentOutcome reports what happened to one upload.
type DocumentOutcome struct {
	Category   requirements.Code `json:"category"`
	ProviderID string            `json:"provider_id,omitempty"`
	Confidence float64           `json:"confidence,omitempty"`
	Fields     map[string]any    `json:"fields,omitempty"`
	Error      string            `json:"error,omitempty"`
	ErrorKind  string            `json:"error_kind,omitempty"`
}

type AttachResult struct {
	Documents []DocumentOutcome `json:"documents"`
	Snapshot  flow.Snapshot     `json:"snapshot"`
}

// Export is the portable form of an interview: the flow state plus the
// extracted documents.
type Export struct {
	InterviewID string                                  `json:"interview_id,omitempty"`
	State       flow.State                              `json:"state"`
	Documents   map[requirements.Code]extraction.Result `json:"documents,omitempty"`
}
