package extraction

import (
	"errors"
	"fmt"

	dErrors "visaflow/pkg/domain-errors"
)

// ErrorCategory is the normalized failure taxonomy shared by all providers.
type ErrorCategory string

const (
	ErrorTimeout             ErrorCategory = "timeout"
	ErrorBadData             ErrorCategory = "bad_data"
	ErrorUnsupportedFormat   ErrorCategory = "unsupported_format"
	ErrorUnsupportedCategory ErrorCategory = "unsupported_category"
	ErrorProviderOutage      ErrorCategory = "provider_outage"
	ErrorRateLimited         ErrorCategory = "rate_limited"
	ErrorInternal            ErrorCategory = "internal"
)

// ProviderError wraps provider failures with a normalized category.
type ProviderError struct {
	Category   ErrorCategory
	ProviderID string
	Message    string
	Underlying error
	Retryable  bool
}

func (e *ProviderError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("extraction %s [%s]: %s: %v", e.ProviderID, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("extraction %s [%s]: %s", e.ProviderID, e.Category, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Underlying
}

func NewProviderError(category ErrorCategory, providerID, message string, underlying error) *ProviderError {
	retryable := category == ErrorTimeout ||
		category == ErrorProviderOutage ||
		category == ErrorRateLimited

	return &ProviderError{
		Category:   category,
		ProviderID: providerID,
		Message:    message,
		Underlying: underlying,
		Retryable:  retryable,
	}
}

// IsRetryable reports whether another provider (or a later attempt) might
// succeed where this one failed.
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}

func GetCategory(err error) ErrorCategory {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Category
	}
	return ErrorInternal
}

// ToDomainError translates a provider failure for transports.
func ToDomainError(err error) error {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	if !errors.As(err, &pe) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "document extraction failed")
	}
	switch pe.Category {
	case ErrorTimeout:
		return dErrors.Wrap(err, dErrors.CodeTimeout, "document extraction timed out")
	case ErrorBadData:
		return dErrors.Wrap(err, dErrors.CodeValidation, "document could not be read: "+pe.Message)
	case ErrorUnsupportedFormat, ErrorUnsupportedCategory:
		return dErrors.Wrap(err, dErrors.CodeValidation, pe.Message)
	case ErrorProviderOutage, ErrorRateLimited:
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "document extraction is unavailable")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "document extraction failed")
	}
}

var (
	ErrProviderNotFound     = errors.New("provider not found")
	ErrNoProvidersAvailable = errors.New("no provider supports this document category")
)
