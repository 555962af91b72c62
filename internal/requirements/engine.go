package requirements

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"visaflow/internal/applicant"
)

// ContextListener is notified after every context merge, once the new
// requirement set has been computed.
type ContextListener func(applicant.Context)

// Requirement is the evaluated obligation for one category.
type Requirement struct {
	Category Category `json:"category"`
	Status   Status   `json:"status"`
}

// Engine derives the obligation status of every document category from an
// applicant context.
//
// One Engine belongs to one interview session. It is not safe for concurrent
// use; the owning session serializes access.
type Engine struct {
	catalog     *Catalog
	rules       []Rule
	customRules bool
	logger      *slog.Logger
	ctx         applicant.Context
	statuses    map[Code]Status
	computed    bool
	listeners   []ContextListener
}

// Option configures an Engine.
type Option func(*Engine)

// WithCatalog replaces the built-in catalog.
func WithCatalog(c *Catalog) Option {
	return func(e *Engine) {
		if c != nil {
			e.catalog = c
		}
	}
}

// WithRules replaces the built-in rule set.
func WithRules(rules []Rule) Option {
	return func(e *Engine) {
		e.rules = rules
		e.customRules = true
	}
}

// WithLogger sets the logger used for recovered configuration problems.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine builds an engine with an empty context.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		ctx:    applicant.Context{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	if e.catalog == nil {
		e.catalog = DefaultCatalog()
	}
	if !e.customRules {
		e.rules = DefaultRules(e.catalog)
	}
	return e
}

// Catalog returns the reference data the engine reads.
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// OnContextChanged registers a listener. Listeners run synchronously, in
// registration order, after the recalculation triggered by SetContext.
func (e *Engine) OnContextChanged(l ContextListener) {
	if l != nil {
		e.listeners = append(e.listeners, l)
	}
}

// Context returns a copy of the current applicant context.
func (e *Engine) Context() applicant.Context {
	return e.ctx.Clone()
}

// SetContext merges partial into the context, recalculates and notifies
// listeners. It never fails.
func (e *Engine) SetContext(partial map[string]any) {
	e.ctx = e.ctx.Merge(partial)
	e.Recalculate()
	snapshot := e.ctx.Clone()
	for _, l := range e.listeners {
		l(snapshot)
	}
}

// Reset clears the context and the computed result.
func (e *Engine) Reset() {
	e.ctx = applicant.Context{}
	e.statuses = nil
	e.computed = false
}

// Recalculate rebuilds the status map from the current context and returns a
// copy of it. The result depends only on the context: the base matrix for the
// passport category is cloned, then every rule whose condition holds may raise
// (never lower) the status of the categories it names.
func (e *Engine) Recalculate() map[Code]Status {
	passportType := e.ctx.String(applicant.KeyPassportType)
	matrix, known := e.catalog.Matrix(passportType)
	if !known && passportType != "" {
		e.logger.Warn("unknown passport type, using default matrix",
			"passport_type", passportType,
			"default", e.catalog.DefaultPassportType,
		)
	}

	statuses := make(map[Code]Status, len(e.catalog.Categories))
	for _, cat := range e.catalog.Categories {
		statuses[cat.Code] = StatusNotApplicable
	}
	for code, status := range matrix.Documents {
		statuses[code] = status
	}

	for _, rule := range e.rules {
		if !e.applies(rule) {
			continue
		}
		for code, proposed := range rule.Effects {
			current, ok := statuses[code]
			if !ok {
				current = StatusNotApplicable
			}
			if proposed.Priority() > current.Priority() {
				statuses[code] = proposed
			}
		}
	}

	e.statuses = statuses
	e.computed = true
	return copyStatuses(statuses)
}

// applies evaluates a rule condition, treating a panic or a missing condition
// as "does not apply".
func (e *Engine) applies(rule Rule) (ok bool) {
	if rule.Condition == nil {
		e.logger.Warn("skipping rule without condition", "rule_id", rule.ID)
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("skipping malformed rule",
				"rule_id", rule.ID,
				"error", fmt.Sprint(r),
			)
			ok = false
		}
	}()
	return rule.Condition(e.ctx.Clone())
}

func (e *Engine) ensure() {
	if !e.computed {
		e.Recalculate()
	}
}

// Statuses returns a copy of the last computed status map.
func (e *Engine) Statuses() map[Code]Status {
	e.ensure()
	return copyStatuses(e.statuses)
}

// DocumentRequirement returns the status of one category. Unknown categories
// are NOT_APPLICABLE.
func (e *Engine) DocumentRequirement(code Code) Status {
	e.ensure()
	if s, ok := e.statuses[code]; ok {
		return s
	}
	return StatusNotApplicable
}

// Requirement implements the lookup used by flow predicates.
func (e *Engine) Requirement(code string) Status {
	return e.DocumentRequirement(Code(code))
}

func (e *Engine) IsRequired(code Code) bool {
	return e.DocumentRequirement(code) == StatusRequired
}

func (e *Engine) IsApplicable(code Code) bool {
	return e.DocumentRequirement(code) != StatusNotApplicable
}

// RequiredDocuments lists REQUIRED categories in display order.
func (e *Engine) RequiredDocuments() []Code {
	return e.filter(func(s Status) bool { return s == StatusRequired })
}

// OptionalDocuments lists OPTIONAL and RECOMMENDED categories in display order.
func (e *Engine) OptionalDocuments() []Code {
	return e.filter(func(s Status) bool { return s == StatusOptional || s == StatusRecommended })
}

// ConditionalDocuments lists CONDITIONAL categories in display order.
func (e *Engine) ConditionalDocuments() []Code {
	return e.filter(func(s Status) bool { return s == StatusConditional })
}

// Requirements returns every category with its status, in display order.
func (e *Engine) Requirements() []Requirement {
	e.ensure()
	out := make([]Requirement, 0, len(e.catalog.Categories))
	for _, cat := range e.catalog.Categories {
		out = append(out, Requirement{Category: cat, Status: e.statuses[cat.Code]})
	}
	return out
}

func (e *Engine) filter(keep func(Status) bool) []Code {
	e.ensure()
	var out []Code
	for _, cat := range e.catalog.Categories {
		if keep(e.statuses[cat.Code]) {
			out = append(out, cat.Code)
		}
	}
	// categories introduced only by custom rules go last, by code
	var extra []Code
	for code, s := range e.statuses {
		if _, known := e.catalog.Category(code); !known && keep(s) {
			extra = append(extra, code)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}

// Workflow returns the workflow category for the current passport category.
func (e *Engine) Workflow() Workflow {
	return e.catalog.WorkflowFor(e.ctx.String(applicant.KeyPassportType))
}

// WorkflowFor derives the workflow category from a passport category.
func (c *Catalog) WorkflowFor(passportType string) Workflow {
	m, _ := c.Matrix(strings.TrimSpace(passportType))
	return m.Workflow
}

func copyStatuses(in map[Code]Status) map[Code]Status {
	out := make(map[Code]Status, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
