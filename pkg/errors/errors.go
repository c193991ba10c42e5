package errors

import (
	"errors"
	"fmt"
)

// Generic error types

var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal indicates an internal server error
	ErrInternal = errors.New("internal error")

	// ErrUnavailable indicates a service is unavailable
	ErrUnavailable = errors.New("service unavailable")
)

// Analysis error kinds

var (
	// ErrUnsupportedInputKind indicates the caller input matches no normalization case
	ErrUnsupportedInputKind = errors.New("unsupported input kind")

	// ErrInvalidOption indicates an option failed type coercion or enum validation
	ErrInvalidOption = errors.New("invalid option")

	// ErrTransportFailure indicates a network error, non-success status or timeout
	ErrTransportFailure = errors.New("transport failure")

	// ErrUnsupportedCapability indicates the provider does not implement the operation
	ErrUnsupportedCapability = errors.New("capability not supported by provider")
)

// InputKindError reports an input whose concrete type cannot be normalized.
type InputKindError struct {
	TypeName string
	Detail   string
}

func (e *InputKindError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", ErrUnsupportedInputKind, e.TypeName, e.Detail)
	}
	return fmt.Sprintf("%s: %s", ErrUnsupportedInputKind, e.TypeName)
}

// Unwrap lets errors.Is match ErrUnsupportedInputKind
func (e *InputKindError) Unwrap() error {
	return ErrUnsupportedInputKind
}

// NewInputKindError creates an unsupported input kind error for the value's type
func NewInputKindError(value interface{}, detail string) *InputKindError {
	return &InputKindError{
		TypeName: fmt.Sprintf("%T", value),
		Detail:   detail,
	}
}

// OptionError names the option field that could not be resolved.
type OptionError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *OptionError) Error() string {
	return fmt.Sprintf("%s '%s': %s (value: %v)", ErrInvalidOption, e.Field, e.Message, e.Value)
}

// Unwrap lets errors.Is match ErrInvalidOption
func (e *OptionError) Unwrap() error {
	return ErrInvalidOption
}

// NewOptionError creates an invalid option error
func NewOptionError(field, message string, value interface{}) *OptionError {
	return &OptionError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// TransportError carries the underlying cause of a failed dispatch.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status %d): %v", ErrTransportFailure, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", ErrTransportFailure, e.Op, e.Err)
}

// Is matches ErrTransportFailure so the cause stays reachable through Unwrap
func (e *TransportError) Is(target error) bool {
	return target == ErrTransportFailure
}

// Unwrap returns the underlying cause
func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError wraps cause as a transport failure for operation op
func NewTransportError(op string, statusCode int, cause error) *TransportError {
	return &TransportError{
		Op:         op,
		StatusCode: statusCode,
		Err:        cause,
	}
}

// ValidationError represents a validation error with field-specific details
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

// Unwrap lets errors.Is match ErrInvalidInput
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}

func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
