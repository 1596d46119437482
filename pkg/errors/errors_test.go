package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRetrievalError_Error(t *testing.T) {
	err := NewStrategyTimeoutError("semantic", "index call exceeded 200ms")
	assert.Contains(t, err.Error(), "strategy_timeout")
	assert.Contains(t, err.Error(), "strategy=semantic")

	total := NewTotalRetrievalFailureError("all strategies failed")
	assert.NotContains(t, total.Error(), "strategy=")
}

func TestIsType_Wrapped(t *testing.T) {
	base := NewInvalidBudgetError("budget must be positive")
	wrapped := fmt.Errorf("retrieve: %w", base)

	assert.True(t, IsType(wrapped, TypeInvalidBudget))
	assert.True(t, IsValidation(wrapped))
	assert.False(t, IsTotalFailure(wrapped))
}

func TestRetryability(t *testing.T) {
	assert.True(t, NewStrategyUnavailableError("graph", "down").Retryable)
	assert.True(t, NewTotalRetrievalFailureError("x").Retryable)
	assert.False(t, NewInvalidFactTypeError("x").Retryable)
	assert.False(t, NewInvalidBudgetError("x").Retryable)
}
