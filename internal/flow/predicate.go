package flow

import (
	"strings"

	"visaflow/internal/applicant"
	"visaflow/internal/requirements"
)

// Env is what a predicate may look at: the applicant context and the current
// requirement status of document categories.
type Env interface {
	Context() applicant.Context
	Requirement(code string) requirements.Status
}

// Predicate is a closed set of boolean expressions over an Env. Every
// predicate is pure and total: it reads the env, never mutates it, never
// panics, and treats missing context keys as "not set".
type Predicate interface {
	Eval(env Env) bool
	String() string
}

type always struct{}

func (always) Eval(Env) bool  { return true }
func (always) String() string { return "always" }

type never struct{}

func (never) Eval(Env) bool  { return false }
func (never) String() string { return "never" }

// Always holds for every env.
func Always() Predicate { return always{} }

// Never holds for no env.
func Never() Predicate { return never{} }

type equals struct {
	key, value string
}

func (p equals) Eval(env Env) bool {
	got := env.Context().String(p.key)
	return got != "" && strings.EqualFold(got, p.value)
}

func (p equals) String() string { return p.key + " == " + p.value }

// Equals compares a context value with want, case-insensitively. A missing
// key never equals anything.
func Equals(key, want string) Predicate {
	return equals{key: key, value: want}
}

type in struct {
	key    string
	values []string
}

func (p in) Eval(env Env) bool {
	got := env.Context().String(p.key)
	if got == "" {
		return false
	}
	for _, v := range p.values {
		if strings.EqualFold(got, v) {
			return true
		}
	}
	return false
}

func (p in) String() string { return p.key + " in [" + strings.Join(p.values, ",") + "]" }

// In holds when the context value at key is one of values.
func In(key string, values ...string) Predicate {
	return in{key: key, values: values}
}

type truthy struct{ key string }

func (p truthy) Eval(env Env) bool { return env.Context().Bool(p.key) }
func (p truthy) String() string    { return p.key }

// Truthy holds when the value at key reads as true.
func Truthy(key string) Predicate { return truthy{key: key} }

type present struct{ key string }

func (p present) Eval(env Env) bool { return env.Context().Has(p.key) }
func (p present) String() string    { return "has " + p.key }

// Present holds when key carries a non-empty value.
func Present(key string) Predicate { return present{key: key} }

type differs struct{ a, b string }

func (p differs) Eval(env Env) bool {
	ctx := env.Context()
	av, bv := ctx.String(p.a), ctx.String(p.b)
	return av != "" && bv != "" && !strings.EqualFold(av, bv)
}

func (p differs) String() string { return p.a + " != " + p.b }

// Differs holds when both keys are set and their values differ.
func Differs(a, b string) Predicate { return differs{a: a, b: b} }

type requirementAtLeast struct {
	code   requirements.Code
	status requirements.Status
}

func (p requirementAtLeast) Eval(env Env) bool {
	return env.Requirement(string(p.code)).Priority() >= p.status.Priority()
}

func (p requirementAtLeast) String() string {
	return string(p.code) + " >= " + string(p.status)
}

// RequirementAtLeast holds when the category's evaluated status is at least min.
func RequirementAtLeast(code requirements.Code, min requirements.Status) Predicate {
	return requirementAtLeast{code: code, status: min}
}

type and []Predicate

func (p and) Eval(env Env) bool {
	for _, q := range p {
		if q != nil && !q.Eval(env) {
			return false
		}
	}
	return true
}

func (p and) String() string { return join(p, " && ") }

type or []Predicate

func (p or) Eval(env Env) bool {
	for _, q := range p {
		if q != nil && q.Eval(env) {
			return true
		}
	}
	return false
}

func (p or) String() string { return join(p, " || ") }

// And holds when every operand holds. An empty And holds.
func And(ps ...Predicate) Predicate { return and(ps) }

// Or holds when any operand holds. An empty Or does not hold.
func Or(ps ...Predicate) Predicate { return or(ps) }

type not struct{ p Predicate }

func (n not) Eval(env Env) bool { return n.p == nil || !n.p.Eval(env) }
func (n not) String() string {
	if n.p == nil {
		return "!<nil>"
	}
	return "!(" + n.p.String() + ")"
}

// Not negates p.
func Not(p Predicate) Predicate { return not{p: p} }

func join(ps []Predicate, sep string) string {
	parts := make([]string, 0, len(ps))
	for _, p := range ps {
		if p != nil {
			parts = append(parts, p.String())
		}
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// envView evaluates predicates against one fixed context snapshot.
type envView struct {
	ctx    applicant.Context
	lookup func(string) requirements.Status
}

func (v envView) Context() applicant.Context { return v.ctx }

func (v envView) Requirement(code string) requirements.Status {
	if v.lookup == nil {
		return requirements.StatusNotApplicable
	}
	return v.lookup(code)
}
