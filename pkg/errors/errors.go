// Package errors defines unified error types for retrieval operations.
// Partial strategy failures are absorbed into the call trace and never
// surface through these types; only call-level failures do.
package errors

import (
	"errors"
	"fmt"
)

// RetrievalError represents a standardized error from the retrieval core.
// It contains enough detail to distinguish "nothing found" from "could
// not search".
type RetrievalError struct {
	Type      string `json:"type"`
	Strategy  string `json:"strategy,omitempty"`
	Message   string `json:"message"`
	Retryable bool   `json:"-"`
}

// Error implements the error interface.
func (e *RetrievalError) Error() string {
	if e.Strategy != "" {
		return fmt.Sprintf("[%s] %s (strategy=%s)", e.Type, e.Message, e.Strategy)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Error types as constants for consistency.
const (
	TypeStrategyTimeout       = "strategy_timeout"
	TypeStrategyUnavailable   = "strategy_unavailable"
	TypeTotalRetrievalFailure = "total_retrieval_failure"
	TypeInvalidBudget         = "invalid_budget"
	TypeInvalidFactType       = "invalid_fact_type"
)

// NewStrategyTimeoutError reports a single strategy or rerank batch
// exceeding its allotted time. Recovered locally; never propagated to
// the caller on its own.
func NewStrategyTimeoutError(strategy, message string) *RetrievalError {
	return &RetrievalError{
		Type:      TypeStrategyTimeout,
		Strategy:  strategy,
		Message:   message,
		Retryable: true,
	}
}

// NewStrategyUnavailableError reports an unreachable backing index or
// scoring model. Recovered locally, same as a timeout.
func NewStrategyUnavailableError(strategy, message string) *RetrievalError {
	return &RetrievalError{
		Type:      TypeStrategyUnavailable,
		Strategy:  strategy,
		Message:   message,
		Retryable: true,
	}
}

// NewTotalRetrievalFailureError reports that every retrieval strategy
// failed. Surfaced to the caller as a hard failure: an empty result here
// would be indistinguishable from "no relevant memories".
func NewTotalRetrievalFailureError(message string) *RetrievalError {
	return &RetrievalError{
		Type:      TypeTotalRetrievalFailure,
		Message:   message,
		Retryable: true,
	}
}

// NewInvalidBudgetError reports a non-positive thinking budget or max
// result count. Never retried.
func NewInvalidBudgetError(message string) *RetrievalError {
	return &RetrievalError{
		Type:      TypeInvalidBudget,
		Message:   message,
		Retryable: false,
	}
}

// NewInvalidFactTypeError reports an unknown fact type in the request
// filter. Never retried.
func NewInvalidFactTypeError(message string) *RetrievalError {
	return &RetrievalError{
		Type:      TypeInvalidFactType,
		Message:   message,
		Retryable: false,
	}
}

// IsType reports whether err is a *RetrievalError of the given type.
func IsType(err error, errType string) bool {
	var re *RetrievalError
	if errors.As(err, &re) {
		return re.Type == errType
	}
	return false
}

// IsTotalFailure reports whether err is a total retrieval failure.
func IsTotalFailure(err error) bool {
	return IsType(err, TypeTotalRetrievalFailure)
}

// IsValidation reports whether err is a caller-input validation error.
func IsValidation(err error) bool {
	return IsType(err, TypeInvalidBudget) || IsType(err, TypeInvalidFactType)
}
