package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCategory represents different types of errors that can occur
type ErrorCategory string

const (
	// Structural misuse; the caller must fix its input
	ErrorCategoryConfiguration ErrorCategory = "CONFIG"
	ErrorCategoryValidation    ErrorCategory = "VALIDATION"
	ErrorCategoryData          ErrorCategory = "DATA"
	ErrorCategoryIO            ErrorCategory = "IO"

	// Numeric outcomes surfaced to the caller instead of being swallowed
	ErrorCategoryOptimization ErrorCategory = "OPTIMIZATION"
	ErrorCategoryNumeric      ErrorCategory = "NUMERIC"
)

// QuantError represents a categorized error with context
type QuantError struct {
	Category   ErrorCategory
	Component  string
	Operation  string
	Message    string
	Underlying error
	Context    map[string]interface{}
}

// Error implements the error interface
func (e *QuantError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("[%s:%s] %s: %s: %v", e.Category, e.Component, e.Operation, e.Message, e.Underlying)
	}
	return fmt.Sprintf("[%s:%s] %s: %s", e.Category, e.Component, e.Operation, e.Message)
}

// Unwrap returns the underlying error for error unwrapping
func (e *QuantError) Unwrap() error {
	return e.Underlying
}

// IsFatal reports whether the error comes from structural misuse rather than data
func (e *QuantError) IsFatal() bool {
	return e.Category == ErrorCategoryConfiguration ||
		e.Category == ErrorCategoryValidation
}

// New creates a new categorized error
func New(category ErrorCategory, component, operation, message string) *QuantError {
	return &QuantError{
		Category:  category,
		Component: component,
		Operation: operation,
		Message:   message,
		Context:   make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with category and component context
func Wrap(err error, category ErrorCategory, component, operation string) *QuantError {
	if err == nil {
		return nil
	}

	return &QuantError{
		Category:   category,
		Component:  component,
		Operation:  operation,
		Message:    "operation failed",
		Underlying: err,
		Context:    make(map[string]interface{}),
	}
}

// WithMessage replaces the human-readable message
func (e *QuantError) WithMessage(format string, args ...interface{}) *QuantError {
	e.Message = fmt.Sprintf(format, args...)
	return e
}

// WithContext adds context information to the error
func (e *QuantError) WithContext(key string, value interface{}) *QuantError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// CategoryOf returns the category of err, or "" if err is not a QuantError.
func CategoryOf(err error) ErrorCategory {
	var qe *QuantError
	if stderrors.As(err, &qe) {
		return qe.Category
	}
	return ""
}

// Common error constructors
func NewValidationError(component, operation, message string) *QuantError {
	return New(ErrorCategoryValidation, component, operation, message)
}

func NewConfigurationError(component, operation, message string) *QuantError {
	return New(ErrorCategoryConfiguration, component, operation, message)
}

func NewDataError(component, operation string, err error) *QuantError {
	return Wrap(err, ErrorCategoryData, component, operation)
}

func NewIOError(component, operation string, err error) *QuantError {
	return Wrap(err, ErrorCategoryIO, component, operation)
}

func NewOptimizationError(component, operation string, err error) *QuantError {
	return Wrap(err, ErrorCategoryOptimization, component, operation)
}

// ErrorStats tracks error statistics across a batch of runs
type ErrorStats struct {
	TotalErrors      int
	ErrorsByCategory map[ErrorCategory]int
	RecentErrors     []error
	MaxRecentErrors  int
}

// NewErrorStats creates a new error statistics tracker
func NewErrorStats(maxRecentErrors int) *ErrorStats {
	return &ErrorStats{
		ErrorsByCategory: make(map[ErrorCategory]int),
		RecentErrors:     make([]error, 0, maxRecentErrors),
		MaxRecentErrors:  maxRecentErrors,
	}
}

// RecordError records an error in the statistics. Uncategorized errors count under "".
func (es *ErrorStats) RecordError(err error) {
	if err == nil {
		return
	}
	es.TotalErrors++
	es.ErrorsByCategory[CategoryOf(err)]++

	es.RecentErrors = append(es.RecentErrors, err)
	if len(es.RecentErrors) > es.MaxRecentErrors {
		es.RecentErrors = es.RecentErrors[1:]
	}
}

// GetErrorRate returns the share of recorded errors in a category
func (es *ErrorStats) GetErrorRate(category ErrorCategory) float64 {
	if es.TotalErrors == 0 {
		return 0.0
	}
	return float64(es.ErrorsByCategory[category]) / float64(es.TotalErrors)
}
