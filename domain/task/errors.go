package task

import (
	"errors"
	"fmt"
)

// Sentinel errors for task operations.
var (
	// ErrNotFound is returned when the referenced task does not exist.
	ErrNotFound = errors.New("task not found")

	// ErrInvalidInput is returned when a value would break a task invariant.
	ErrInvalidInput = errors.New("invalid task input")
)

// InputError names the field that broke a task invariant.
// It matches ErrInvalidInput under errors.Is.
type InputError struct {
	Field   string
	Rule    string
	Message string
}

// NewInputError creates an InputError for field.
func NewInputError(field, rule, message string) *InputError {
	return &InputError{Field: field, Rule: rule, Message: message}
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidInput, e.Field, e.Message)
}

// Unwrap returns ErrInvalidInput.
func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}
