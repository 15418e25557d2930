package errors

import (
	"errors"
	"fmt"
)

// Common error types used across the threadpool module

var (
	// ErrClosed indicates that an operation was attempted on a closed resource
	ErrClosed = errors.New("resource is closed")

	// ErrInvalidConfiguration indicates invalid configuration parameters
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrJobQueued indicates that a job record was submitted while still linked
	// into a pool queue
	ErrJobQueued = errors.New("job is already queued")

	// ErrCancelledJobRun is the panic value raised if the body of a cancelled
	// job is ever invoked
	ErrCancelledJobRun = errors.New("cancelled job was executed")

	// ErrUnrecoverable marks infrastructure failures a caller cannot proceed from
	ErrUnrecoverable = errors.New("unrecoverable failure")

	// ErrNotFound indicates that a named entry does not exist
	ErrNotFound = errors.New("not found")

	// ErrDuplicate indicates that a named entry already exists
	ErrDuplicate = errors.New("already exists")

	// ErrAlreadyStarted indicates that a component was started twice
	ErrAlreadyStarted = errors.New("already started")

	// ErrTimeout indicates that a round trip to an external system ran out of time
	ErrTimeout = errors.New("operation timed out")
)

// ValidationError describes an invalid argument or configuration value.
type ValidationError struct {
	Module string
	Field  string
	Value  interface{}
	Reason string
	Hint   string
}

// NewValidationError creates a ValidationError without a hint.
func NewValidationError(module, field string, value interface{}, reason string) *ValidationError {
	return &ValidationError{
		Module: module,
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// WithHint sets a remediation hint and returns the same error for chaining.
func (e *ValidationError) WithHint(hint string) *ValidationError {
	e.Hint = hint
	return e
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: invalid %s=%v (%s)", e.Module, e.Field, e.Value, e.Reason)
	if e.Hint != "" {
		msg += " - " + e.Hint
	}
	return msg
}

// Unwrap lets errors.Is match ErrInvalidConfiguration.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfiguration
}

// OperationError wraps the cause of a failed operation.
type OperationError struct {
	Module    string
	Operation string
	Cause     error
	Context   string
}

// NewOperationError creates an OperationError for module.operation.
func NewOperationError(module, operation string, cause error) *OperationError {
	return &OperationError{
		Module:    module,
		Operation: operation,
		Cause:     cause,
	}
}

// WithContext attaches extra detail and returns the same error for chaining.
func (e *OperationError) WithContext(context string) *OperationError {
	e.Context = context
	return e
}

func (e *OperationError) Error() string {
	msg := fmt.Sprintf("%s.%s failed: %v", e.Module, e.Operation, e.Cause)
	if e.Context != "" {
		msg += " (" + e.Context + ")"
	}
	return msg
}

func (e *OperationError) Unwrap() error {
	return e.Cause
}

// FatalError reports an infrastructure failure during pool start. Callers
// receiving one must not continue using the pool and are expected to exit.
type FatalError struct {
	Operation string
	Cause     error
}

// NewFatalError creates a FatalError for the given operation.
func NewFatalError(operation string, cause error) *FatalError {
	return &FatalError{Operation: operation, Cause: cause}
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal: %s: %v", e.Operation, e.Cause)
}

// Unwrap returns both the cause and ErrUnrecoverable.
func (e *FatalError) Unwrap() []error {
	return []error{ErrUnrecoverable, e.Cause}
}

// IsValidationError reports whether err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// IsFatal reports whether err signals an unrecoverable failure.
func IsFatal(err error) bool {
	return errors.Is(err, ErrUnrecoverable)
}
