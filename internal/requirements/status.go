package requirements

import (
	"strings"

	dErrors "visaflow/pkg/domain-errors"
)

// Status is the obligation level of a document category.
// Statuses are totally ordered; see Priority.
type Status string

const (
	StatusNotApplicable Status = "NOT_APPLICABLE"
	StatusOptional      Status = "OPTIONAL"
	StatusRecommended   Status = "RECOMMENDED"
	StatusConditional   Status = "CONDITIONAL"
	StatusRequired      Status = "REQUIRED"
)

var statusPriority = map[Status]int{
	StatusNotApplicable: 0,
	StatusOptional:      1,
	StatusRecommended:   2,
	StatusConditional:   3,
	StatusRequired:      4,
}

// Priority returns the rank of s in the order
// NOT_APPLICABLE < OPTIONAL < RECOMMENDED < CONDITIONAL < REQUIRED.
// Unknown statuses rank below NOT_APPLICABLE so they can never win a merge.
func (s Status) Priority() int {
	if p, ok := statusPriority[s]; ok {
		return p
	}
	return -1
}

// IsValid reports whether s is one of the five known statuses.
func (s Status) IsValid() bool {
	_, ok := statusPriority[s]
	return ok
}

func (s Status) String() string {
	return string(s)
}

// Max returns the higher of a and b.
func Max(a, b Status) Status {
	if b.Priority() > a.Priority() {
		return b
	}
	return a
}

// ParseStatus accepts any casing and '-' or ' ' separators.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.NewReplacer("-", "_", " ", "_").Replace(strings.TrimSpace(raw))))
	if !s.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown requirement status: "+raw)
	}
	return s, nil
}
