package common

import "fmt"

// ValidationError describes a rejected input. It matches ErrorValidation
// under errors.Is so callers can map it without inspecting the message.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError builds a ValidationError for field with a formatted message.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrorValidation
}
