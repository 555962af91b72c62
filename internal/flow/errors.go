package flow

import (
	"strings"

	dErrors "visaflow/pkg/domain-errors"
)

var (
	ErrNoActiveStep    = dErrors.New(dErrors.CodeInvariantViolation, "no active step")
	ErrRequiredStep    = dErrors.New(dErrors.CodeInvariantViolation, "step is required and cannot be skipped")
	ErrStepUnreachable = dErrors.New(dErrors.CodeInvariantViolation, "step is not reachable")
	ErrNoPreviousStep  = dErrors.New(dErrors.CodeInvariantViolation, "no previous step")
	ErrUnknownStep     = dErrors.New(dErrors.CodeNotFound, "unknown step")
)

// FieldError describes one missing or invalid submitted field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when submitted step data lacks a declared
// contribution of a required step. The machine state is unchanged.
type ValidationError struct {
	StepID string
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return "step " + e.StepID + " is missing " + strings.Join(names, ", ")
}

// Unwrap exposes the validation code to dErrors.HasCode and transports.
func (e *ValidationError) Unwrap() error {
	return dErrors.New(dErrors.CodeValidation, e.Error())
}

// Details lists the offending fields for error responses.
func (e *ValidationError) Details() any {
	return e.Fields
}
