package utils

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures surfaced by the analysis pipeline.
type ErrorKind string

const (
	KindDataUnavailable      ErrorKind = "data_unavailable"
	KindSentimentUnavailable ErrorKind = "sentiment_unavailable"
	KindInvalidInput         ErrorKind = "invalid_input"
)

// Sentinel errors for use with errors.Is.
var (
	ErrDataUnavailable      = errors.New("price data unavailable")
	ErrSentimentUnavailable = errors.New("sentiment unavailable")
	ErrInvalidInput         = errors.New("invalid input")
)

// AnalysisError is a failure tied to a symbol with a specific cause.
type AnalysisError struct {
	Kind   ErrorKind
	Symbol string
	Cause  string
	Err    error
}

// Error returns the error message string.
func (e *AnalysisError) Error() string {
	msg := e.sentinel().Error()
	if e.Symbol != "" {
		msg = fmt.Sprintf("%s for %s", msg, e.Symbol)
	}
	if e.Cause != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Cause)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes the underlying error.
func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind.
func (e *AnalysisError) Is(target error) bool {
	return target == e.sentinel()
}

func (e *AnalysisError) sentinel() error {
	switch e.Kind {
	case KindDataUnavailable:
		return ErrDataUnavailable
	case KindSentimentUnavailable:
		return ErrSentimentUnavailable
	default:
		return ErrInvalidInput
	}
}

// NewDataUnavailable reports that no usable price series could be obtained.
func NewDataUnavailable(symbol, cause string, err error) error {
	return &AnalysisError{Kind: KindDataUnavailable, Symbol: symbol, Cause: cause, Err: err}
}

// NewSentimentUnavailable reports that news retrieval or scoring failed.
func NewSentimentUnavailable(symbol, cause string, err error) error {
	return &AnalysisError{Kind: KindSentimentUnavailable, Symbol: symbol, Cause: cause, Err: err}
}

// NewInvalidInput reports a malformed request.
func NewInvalidInput(symbol, cause string) error {
	return &AnalysisError{Kind: KindInvalidInput, Symbol: symbol, Cause: cause}
}

// AsAnalysisError extracts an *AnalysisError from an error chain.
func AsAnalysisError(err error) (*AnalysisError, bool) {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// ValidationError represents an error occurring during request validation.
type ValidationError struct {
	Message string
}

// Error returns the error message string.
func (e *ValidationError) Error() string {
	return e.Message
}

// Is lets validation failures match ErrInvalidInput.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError with a specific message.
//
// Parameters:
//   - message: The validation error message.
//
// Returns:
//   - An error interface wrapping the ValidationError.
func NewValidationError(message string) error {
	return &ValidationError{
		Message: message,
	}
}

// NewValidationErrorf creates a new ValidationError with a formatted message.
func NewValidationErrorf(format string, args ...interface{}) error {
	return &ValidationError{
		Message: fmt.Sprintf(format, args...),
	}
}
