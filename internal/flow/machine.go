package flow

import (
	"fmt"
	"math"
	"time"

	"visaflow/internal/applicant"
	"visaflow/internal/requirements"
)

// Machine drives one applicant through the step catalog.
//
// The machine shares its applicant context with the requirements engine it
// wraps: contributions folded in on completion trigger a recalculation, and
// visibility is always evaluated against the latest requirement set.
//
// A Machine is not safe for concurrent use.
type Machine struct {
	catalog   *Catalog
	engine    *requirements.Engine
	clock     func() time.Time
	statuses  map[string]Status
	data      map[string]applicant.Context
	current   string
	history   []HistoryEntry
	observers []Observer
}

// Option configures a Machine.
type Option func(*Machine)

func WithCatalog(c *Catalog) Option {
	return func(m *Machine) {
		if c != nil {
			m.catalog = c
		}
	}
}

// WithClock sets the time source for history entries and events.
func WithClock(clock func() time.Time) Option {
	return func(m *Machine) {
		if clock != nil {
			m.clock = clock
		}
	}
}

func WithObserver(o Observer) Option {
	return func(m *Machine) {
		m.Subscribe(o)
	}
}

// NewMachine creates a machine positioned on the first visible step.
func NewMachine(engine *requirements.Engine, opts ...Option) *Machine {
	if engine == nil {
		engine = requirements.NewEngine()
	}
	m := &Machine{
		engine: engine,
		clock:  time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	if m.catalog == nil {
		m.catalog = DefaultCatalog()
	}
	m.start()
	return m
}

// Subscribe registers an observer.
func (m *Machine) Subscribe(o Observer) {
	if o != nil {
		m.observers = append(m.observers, o)
	}
}

func (m *Machine) Catalog() *Catalog                 { return m.catalog }
func (m *Machine) Engine() *requirements.Engine      { return m.engine }
func (m *Machine) Context() applicant.Context        { return m.engine.Context() }
func (m *Machine) SetContext(partial map[string]any) { m.engine.SetContext(partial) }

// IsComplete reports whether no step is active.
func (m *Machine) IsComplete() bool {
	return m.current == ""
}

// CurrentStep returns the active step.
func (m *Machine) CurrentStep() (Step, bool) {
	if m.current == "" {
		return Step{}, false
	}
	return m.catalog.Step(m.current)
}

// Status returns the status of a step; unknown ids are PENDING. A step
// bypassed by its completed alternative reads BLOCKED whatever was recorded.
func (m *Machine) Status(id string) Status {
	step, ok := m.catalog.Step(id)
	if !ok {
		return StatusPending
	}
	return m.effectiveStatus(step)
}

func (m *Machine) effectiveStatus(s Step) Status {
	recorded, ok := m.statuses[s.ID]
	if !ok {
		recorded = StatusPending
	}
	switch {
	case s.ID == m.current:
		return recorded
	case m.bypassed(s) && !recorded.Done():
		return StatusBlocked
	case recorded == StatusBlocked && !m.bypassed(s):
		return StatusPending
	}
	return recorded
}

// StepData returns a copy of the data collected for a step.
func (m *Machine) StepData(id string) (applicant.Context, bool) {
	d, ok := m.data[id]
	if !ok {
		return nil, false
	}
	return d.Clone(), true
}

func (m *Machine) History() []HistoryEntry {
	return append([]HistoryEntry(nil), m.history...)
}

func (m *Machine) env() Env {
	return envView{ctx: m.engine.Context(), lookup: m.engine.Requirement}
}

// VisibleSteps returns the steps whose visibility predicate holds for the
// current context, in catalog order.
func (m *Machine) VisibleSteps() []Step {
	return m.visible(m.env())
}

func (m *Machine) visible(env Env) []Step {
	var out []Step
	for _, s := range m.catalog.steps {
		if s.visibleIn(env) {
			out = append(out, s)
		}
	}
	return out
}

// IsVisible evaluates one step's visibility predicate.
func (m *Machine) IsVisible(id string) bool {
	s, ok := m.catalog.Step(id)
	return ok && s.visibleIn(m.env())
}

// IsRequired evaluates one step's obligation predicate.
func (m *Machine) IsRequired(id string) bool {
	s, ok := m.catalog.Step(id)
	return ok && s.requiredIn(m.env())
}

// bypassed reports whether an alternative step is made unnecessary by the
// completion of the step it stands in for.
func (m *Machine) bypassed(s Step) bool {
	return s.AlternativeTo != "" && m.statuses[s.AlternativeTo] == StatusCompleted
}

// FindNextStep returns the first visible step after fromID that is not
// bypassed by a completed alternative. An empty fromID searches from the
// start. The second result is false at the end of the flow.
func (m *Machine) FindNextStep(fromID string) (Step, bool) {
	next, _, ok := m.scan(fromID)
	return next, ok
}

// scan is FindNextStep that also reports the bypassed steps it passed over.
func (m *Machine) scan(fromID string) (Step, []string, bool) {
	after := math.MinInt
	if fromID != "" {
		if from, ok := m.catalog.Step(fromID); ok {
			after = from.Order
		}
	}
	var passed []string
	for _, s := range m.VisibleSteps() {
		if s.Order <= after {
			continue
		}
		if m.bypassed(s) {
			passed = append(passed, s.ID)
			continue
		}
		return s, passed, true
	}
	return Step{}, passed, false
}

// ValidateStepData checks that every context key the step collects is present
// when the step is currently required. It does not change any state.
func (m *Machine) ValidateStepData(stepID string, data map[string]any) error {
	step, ok := m.catalog.Step(stepID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStep, stepID)
	}
	return m.validate(step, m.env(), data)
}

func (m *Machine) validate(step Step, env Env, data map[string]any) error {
	if !step.requiredIn(env) {
		return nil
	}
	submitted := applicant.Context(data)
	var missing []FieldError
	for _, key := range step.Collects {
		if !submitted.Has(key) {
			missing = append(missing, FieldError{Field: key, Message: "is required"})
		}
	}
	if len(missing) > 0 {
		return &ValidationError{StepID: step.ID, Fields: missing}
	}
	return nil
}

// CompleteCurrentStep stores data for the active step, folds its declared
// contributions into the context, and advances. It returns the new active
// step, or nil when the flow is complete.
func (m *Machine) CompleteCurrentStep(data map[string]any) (*Step, error) {
	step, ok := m.CurrentStep()
	if !ok {
		return nil, ErrNoActiveStep
	}
	if err := m.validate(step, m.env(), data); err != nil {
		return nil, err
	}

	stored := applicant.Context(data).Clone()
	if stored == nil {
		stored = applicant.Context{}
	}
	m.data[step.ID] = stored

	contribution := make(map[string]any, len(step.Collects))
	for _, key := range step.Collects {
		if v, present := data[key]; present {
			contribution[key] = v
		}
	}
	if len(contribution) > 0 {
		m.engine.SetContext(contribution)
	}

	m.statuses[step.ID] = StatusCompleted
	m.record(step.ID, ActionCompleted)
	for _, o := range m.observers {
		o.DataCollected(step.ID, stored.Clone())
	}
	return m.advance(step.ID, ActionCompleted), nil
}

// SkipCurrentStep marks the active step skipped and advances. Only steps that
// are not currently required may be skipped.
func (m *Machine) SkipCurrentStep(reason string) (*Step, error) {
	step, ok := m.CurrentStep()
	if !ok {
		return nil, ErrNoActiveStep
	}
	if step.requiredIn(m.env()) {
		return nil, fmt.Errorf("%w: %s", ErrRequiredStep, step.ID)
	}

	m.data[step.ID] = applicant.Context{"skipped": true, "reason": reason}
	m.statuses[step.ID] = StatusSkipped
	m.record(step.ID, ActionSkipped)
	return m.advance(step.ID, ActionSkipped), nil
}

func (m *Machine) advance(fromID string, action Action) *Step {
	next, passed, ok := m.scan(fromID)
	for _, id := range passed {
		if !m.statuses[id].Done() {
			m.statuses[id] = StatusBlocked
		}
	}
	if !ok {
		m.current = ""
		m.notify(fromID, "", action)
		return nil
	}
	m.statuses[next.ID] = StatusActive
	m.current = next.ID
	m.notify(fromID, next.ID, action)
	return &next
}

// GoBack moves to the closest preceding visible step that is not bypassed by
// a completed alternative. The abandoned step
// returns to PENDING; its collected data is kept.
func (m *Machine) GoBack() (*Step, error) {
	before := math.MaxInt
	if cur, ok := m.CurrentStep(); ok {
		before = cur.Order
	}

	var prev *Step
	for _, s := range m.VisibleSteps() {
		if s.Order >= before {
			break
		}
		if m.bypassed(s) {
			continue
		}
		prev = &s
	}
	if prev == nil {
		return nil, ErrNoPreviousStep
	}

	from := m.current
	if from != "" {
		m.statuses[from] = StatusPending
	}
	m.statuses[prev.ID] = StatusActive
	m.current = prev.ID
	m.record(prev.ID, ActionBack)
	m.notify(from, prev.ID, ActionBack)
	return prev, nil
}

// NavigateTo jumps to a visible COMPLETED step that is not bypassed. Navigating to the current step
// is a no-op; any other target is unreachable.
func (m *Machine) NavigateTo(id string) (*Step, error) {
	target, ok := m.catalog.Step(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStep, id)
	}
	if id == m.current {
		return &target, nil
	}
	if m.statuses[id] != StatusCompleted || !target.visibleIn(m.env()) || m.bypassed(target) {
		return nil, fmt.Errorf("%w: %s", ErrStepUnreachable, id)
	}

	from := m.current
	if from != "" {
		m.statuses[from] = m.restingStatus(from)
	}
	m.statuses[id] = StatusActive
	m.current = id
	m.record(id, ActionNavigated)
	m.notify(from, id, ActionNavigated)
	return &target, nil
}

// restingStatus is the status a step left by navigation falls back to.
func (m *Machine) restingStatus(id string) Status {
	d, ok := m.data[id]
	switch {
	case !ok:
		return StatusPending
	case d.Bool("skipped"):
		return StatusSkipped
	default:
		return StatusCompleted
	}
}

// Reset clears the context, collected data and history and positions the
// machine on the first visible step.
func (m *Machine) Reset() {
	from := m.current
	m.engine.Reset()
	m.start()
	m.notify(from, m.current, ActionReset)
}

func (m *Machine) start() {
	m.statuses = make(map[string]Status, m.catalog.Len())
	for _, s := range m.catalog.steps {
		m.statuses[s.ID] = StatusPending
	}
	m.data = make(map[string]applicant.Context)
	m.history = nil
	m.current = ""
	if first, ok := m.FindNextStep(""); ok {
		m.statuses[first.ID] = StatusActive
		m.current = first.ID
	}
}

func (m *Machine) record(stepID string, action Action) {
	m.history = append(m.history, HistoryEntry{StepID: stepID, Action: action, At: m.clock().UTC()})
}

func (m *Machine) notify(from, to string, action Action) {
	change := StepChange{From: from, To: to, Action: action, At: m.clock().UTC()}
	for _, o := range m.observers {
		o.StepChanged(change)
	}
}

// Progress summarizes completion over the required, visible steps. Steps
// bypassed by a completed alternative do not count.
type Progress struct {
	Percent  float64 `json:"percent"`
	Done     int     `json:"done"`
	Total    int     `json:"total"`
	Complete bool    `json:"complete"`
}

func (m *Machine) Progress() Progress {
	env := m.env()
	var p Progress
	for _, s := range m.visible(env) {
		status := m.effectiveStatus(s)
		if !s.requiredIn(env) || status == StatusBlocked {
			continue
		}
		p.Total++
		if status.Done() {
			p.Done++
		}
	}
	p.Complete = m.current == ""
	if p.Total == 0 {
		p.Percent = 100
		return p
	}
	p.Percent = math.Round(float64(p.Done)*10000/float64(p.Total)) / 100
	return p
}
