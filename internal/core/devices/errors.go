package devices

import (
	"errors"
	"fmt"
)

// Common device errors
var (
	ErrDeviceNotFound    = errors.New("device not found")
	ErrInvalidDeviceFile = errors.New("invalid device file")
	ErrDuplicateDevice   = errors.New("duplicate device")
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: field=%s value=%v: %s",
		e.Field, e.Value, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidDeviceFile
}

// NewValidationError creates a new validation error
func NewValidationError(field string, value interface{}, message string) error {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}
