package flow

import (
	"fmt"
	"time"

	"visaflow/internal/applicant"
	"visaflow/internal/requirements"
	dErrors "visaflow/pkg/domain-errors"
)

// StepView is the evaluated state of one visible step.
type StepView struct {
	ID            string             `json:"id"`
	Order         int                `json:"order"`
	Weight        int                `json:"weight"`
	Document      requirements.Code  `json:"document,omitempty"`
	Status        Status             `json:"status"`
	Required      bool               `json:"required"`
	Current       bool               `json:"current"`
	Accessible    bool               `json:"accessible"`
	Checkpoint    bool               `json:"checkpoint,omitempty"`
	AlternativeTo string             `json:"alternative_to,omitempty"`
	Help          requirements.Label `json:"help"`
	Data          applicant.Context  `json:"data,omitempty"`
}

// Snapshot is a read-only view of the machine for renderers.
type Snapshot struct {
	CurrentStepID string                `json:"current_step_id,omitempty"`
	Complete      bool                  `json:"complete"`
	Workflow      requirements.Workflow `json:"workflow"`
	Steps         []StepView            `json:"steps"`
	Progress      Progress              `json:"progress"`
	Context       applicant.Context     `json:"context"`
}

func (m *Machine) Snapshot() Snapshot {
	env := m.env()
	snap := Snapshot{
		CurrentStepID: m.current,
		Complete:      m.current == "",
		Workflow:      m.engine.Workflow(),
		Progress:      m.Progress(),
		Context:       env.Context(),
	}
	for _, s := range m.visible(env) {
		status := m.Status(s.ID)
		view := StepView{
			ID:            s.ID,
			Order:         s.Order,
			Weight:        s.Weight,
			Document:      s.Document,
			Status:        status,
			Required:      s.requiredIn(env),
			Current:       s.ID == m.current,
			Accessible:    s.ID == m.current || status == StatusCompleted,
			Checkpoint:    s.Checkpoint,
			AlternativeTo: s.AlternativeTo,
			Help:          s.Help,
		}
		if d, ok := m.data[s.ID]; ok {
			view.Data = d.Clone()
		}
		snap.Steps = append(snap.Steps, view)
	}
	return snap
}

// State is the portable form of a machine, used for persistence and for the
// export/import round trip.
type State struct {
	Context       applicant.Context            `json:"context"`
	CollectedData map[string]applicant.Context `json:"collected_data"`
	StepStatuses  map[string]Status            `json:"step_statuses"`
	CurrentStepID string                       `json:"current_step_id,omitempty"`
	History       []HistoryEntry               `json:"history,omitempty"`
	ExportedAt    time.Time                    `json:"exported_at"`
}

func (m *Machine) Export() State {
	st := State{
		Context:       m.engine.Context(),
		CollectedData: make(map[string]applicant.Context, len(m.data)),
		StepStatuses:  make(map[string]Status, len(m.statuses)),
		CurrentStepID: m.current,
		History:       m.History(),
		ExportedAt:    m.clock().UTC(),
	}
	for id, d := range m.data {
		st.CollectedData[id] = d.Clone()
	}
	for id, s := range m.statuses {
		st.StepStatuses[id] = s
	}
	return st
}

// Import replaces the machine state with st. The state is validated first; on
// error nothing changes. A state in which nothing has happened yet is
// positioned on the first visible step.
func (m *Machine) Import(st State) error {
	if err := m.checkState(st); err != nil {
		return err
	}

	m.engine.Reset()
	if len(st.Context) > 0 {
		m.engine.SetContext(st.Context)
	}

	m.statuses = make(map[string]Status, m.catalog.Len())
	for _, s := range m.catalog.steps {
		m.statuses[s.ID] = StatusPending
	}
	started := false
	for id, s := range st.StepStatuses {
		m.statuses[id] = s
		started = started || s != StatusPending
	}
	m.data = make(map[string]applicant.Context, len(st.CollectedData))
	for id, d := range st.CollectedData {
		m.data[id] = d.Clone()
	}
	m.history = append([]HistoryEntry(nil), st.History...)

	m.current = st.CurrentStepID
	if m.current != "" {
		cur, _ := m.catalog.Step(m.current)
		if !m.bypassed(cur) {
			m.statuses[m.current] = StatusActive
			return nil
		}
		m.statuses[m.current] = StatusBlocked
		m.current = ""
		next, passed, ok := m.scan(cur.ID)
		for _, id := range passed {
			if !m.statuses[id].Done() {
				m.statuses[id] = StatusBlocked
			}
		}
		if ok {
			m.statuses[next.ID] = StatusActive
			m.current = next.ID
		}
		return nil
	}
	if !started {
		if first, ok := m.FindNextStep(""); ok {
			m.statuses[first.ID] = StatusActive
			m.current = first.ID
		}
	}
	return nil
}

func (m *Machine) checkState(st State) error {
	if st.CurrentStepID != "" {
		if _, ok := m.catalog.Step(st.CurrentStepID); !ok {
			return dErrors.New(dErrors.CodeInvalidInput, "unknown current step "+st.CurrentStepID)
		}
	}
	for id, s := range st.StepStatuses {
		if _, ok := m.catalog.Step(id); !ok {
			return dErrors.New(dErrors.CodeInvalidInput, "unknown step "+id)
		}
		if !s.IsValid() {
			return dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("step %s has invalid status %q", id, s))
		}
		if s == StatusActive && id != st.CurrentStepID {
			return dErrors.New(dErrors.CodeInvalidInput, "step "+id+" is active but is not the current step")
		}
	}
	for id := range st.CollectedData {
		if _, ok := m.catalog.Step(id); !ok {
			return dErrors.New(dErrors.CodeInvalidInput, "data for unknown step "+id)
		}
	}
	return nil
}
