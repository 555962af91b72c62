package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose so sinks
// can route and retain them differently.
type EventCategory string

const (
	// CategoryCompliance covers events that change or expose what an applicant
	// submitted: deletions, imports, exports and coherence verdicts.
	CategoryCompliance EventCategory = "compliance"
	// CategorySecurity covers rejected resume tokens and revocations.
	CategorySecurity EventCategory = "security"
	// CategoryOperations covers routine interview progress.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category    EventCategory `json:"category"`
	Timestamp   time.Time     `json:"timestamp"`
	InterviewID string        `json:"interview_id"`
	Action      string        `json:"action"`
	StepID      string        `json:"step_id,omitempty"`
	FromStepID  string        `json:"from_step_id,omitempty"`
	Decision    string        `json:"decision,omitempty"`
	Reason      string        `json:"reason,omitempty"`
	RequestID   string        `json:"request_id,omitempty"`
	ClientIP    string        `json:"client_ip,omitempty"`
}

type AuditEvent string

const (
	EventInterviewStarted  AuditEvent = "interview_started"
	EventInterviewReset    AuditEvent = "interview_reset"
	EventInterviewDeleted  AuditEvent = "interview_deleted"
	EventInterviewExported AuditEvent = "interview_exported"
	EventInterviewImported AuditEvent = "interview_imported"
	EventContextUpdated    AuditEvent = "context_updated"

	EventStepStarted   AuditEvent = "step_started"
	EventStepCompleted AuditEvent = "step_completed"
	EventStepSkipped   AuditEvent = "step_skipped"
	EventStepBack      AuditEvent = "step_back"
	EventStepNavigated AuditEvent = "step_navigated"

	EventDocumentsAttached  AuditEvent = "documents_attached"
	EventExtractionFailed   AuditEvent = "extraction_failed"
	EventCoherenceEvaluated AuditEvent = "coherence_evaluated"

	EventResumeTokenIssued   AuditEvent = "resume_token_issued"
	EventResumeTokenRevoked  AuditEvent = "resume_token_revoked"
	EventResumeTokenRejected AuditEvent = "resume_token_rejected"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventInterviewDeleted:   CategoryCompliance,
	EventInterviewExported:  CategoryCompliance,
	EventInterviewImported:  CategoryCompliance,
	EventCoherenceEvaluated: CategoryCompliance,

	EventResumeTokenRevoked:  CategorySecurity,
	EventResumeTokenRejected: CategorySecurity,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Lister reads back the trail of one interview.
type Lister interface {
	ListByInterview(ctx context.Context, interviewID string) ([]Event, error)
}
