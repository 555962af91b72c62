package flow

import (
	"time"

	"visaflow/internal/applicant"
)

// Action names what moved the cursor.
type Action string

const (
	ActionStarted   Action = "started"
	ActionCompleted Action = "completed"
	ActionSkipped   Action = "skipped"
	ActionBack      Action = "back"
	ActionNavigated Action = "navigated"
	ActionReset     Action = "reset"
)

// StepChange is delivered when the current step changes. To is empty once the
// flow has no further visible step.
type StepChange struct {
	From   string    `json:"from,omitempty"`
	To     string    `json:"to,omitempty"`
	Action Action    `json:"action"`
	At     time.Time `json:"at"`
}

// Observer receives machine events synchronously, in registration order, after
// the state change they describe has been applied.
type Observer interface {
	StepChanged(change StepChange)
	DataCollected(stepID string, data applicant.Context)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are ignored.
type ObserverFuncs struct {
	OnStepChanged   func(StepChange)
	OnDataCollected func(stepID string, data applicant.Context)
}

func (o ObserverFuncs) StepChanged(change StepChange) {
	if o.OnStepChanged != nil {
		o.OnStepChanged(change)
	}
}

func (o ObserverFuncs) DataCollected(stepID string, data applicant.Context) {
	if o.OnDataCollected != nil {
		o.OnDataCollected(stepID, data)
	}
}

// HistoryEntry records one transition.
type HistoryEntry struct {
	StepID string    `json:"step_id"`
	Action Action    `json:"action"`
	At     time.Time `json:"at"`
}
