package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSentinel = stderrors.New("sentinel")

func TestWrap_PreservesSentinel(t *testing.T) {
	err := Wrap(errSentinel, ErrorCategoryValidation, "backtester", "run").WithContext("column", "foo")

	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errSentinel))
	assert.Equal(t, "foo", err.Context["column"])
	assert.Contains(t, err.Error(), "[VALIDATION:backtester]")
	assert.True(t, err.IsFatal())
}

func TestWrap_Nil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrorCategoryData, "x", "y"))
}

func TestCategoryOf(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NewOptimizationError("optimizer", "max_sharpe", errSentinel))

	assert.Equal(t, ErrorCategoryOptimization, CategoryOf(wrapped))
	assert.Equal(t, ErrorCategory(""), CategoryOf(errSentinel))
	assert.False(t, NewOptimizationError("o", "p", errSentinel).IsFatal())
}

func TestErrorStats(t *testing.T) {
	stats := NewErrorStats(2)
	stats.RecordError(NewValidationError("a", "b", "c"))
	stats.RecordError(NewDataError("a", "b", errSentinel))
	stats.RecordError(NewDataError("a", "b", errSentinel))
	stats.RecordError(nil)

	assert.Equal(t, 3, stats.TotalErrors)
	assert.Len(t, stats.RecentErrors, 2)
	assert.InDelta(t, 2.0/3.0, stats.GetErrorRate(ErrorCategoryData), 1e-12)
	assert.Equal(t, 0.0, NewErrorStats(1).GetErrorRate(ErrorCategoryData))
}
