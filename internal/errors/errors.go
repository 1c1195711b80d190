// Package errors provides consistent error types for tickwatch.
// It defines the four failure classes the scheduler core reports: ValidationError
// (caller must fix input), NotFoundError (unknown timer), PersistenceError (timers
// file I/O) and DispatchError (expiry action failed to launch).
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for common conditions.
var (
	ErrEmptyName        = errors.New("timer name is empty")
	ErrNameTooLong      = errors.New("timer name too long")
	ErrDuplicateName    = errors.New("timer name already exists")
	ErrInvalidDuration  = errors.New("invalid duration")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	ErrAlarmInPast      = errors.New("alarm time is in the past")
	ErrInvalidAction    = errors.New("invalid action path")
	ErrInvalidKind      = errors.New("invalid timer kind")
	ErrAmbiguousRef     = errors.New("timer reference is ambiguous")
	ErrInvalidInput     = errors.New("invalid input")
	ErrTimerNotFound    = errors.New("timer not found")
	ErrWebhookNotFound  = errors.New("webhook not found")
	ErrDiskFull         = errors.New("disk full")
	ErrCorruptFile      = errors.New("timers file corrupted")
	ErrLockHeld         = errors.New("timers file locked by another process")
	ErrPermissionDenied = errors.New("permission denied")
)

// ValidationError is returned when a command is rejected before any mutation.
type ValidationError struct {
	Field      string // The input that caused the error
	Value      string // The rejected value (optional)
	Message    string // What happened
	Suggestion string // How to fix it
	Err        error  // Sentinel for errors.Is
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s: '%s'", e.Message, e.Value)
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new ValidationError.
func NewValidationError(sentinel error, field, value, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
		Err:     sentinel,
	}
}

// WithSuggestion sets the suggestion shown to the user.
func (e *ValidationError) WithSuggestion(suggestion string) *ValidationError {
	e.Suggestion = suggestion
	return e
}

// NotFoundError reports a command that referenced an unknown timer.
type NotFoundError struct {
	Ref string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("timer not found: %s", e.Ref)
}

func (e *NotFoundError) Unwrap() error {
	return ErrTimerNotFound
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(ref string) *NotFoundError {
	return &NotFoundError{Ref: ref}
}

// PersistenceError reports a failed read or write of the timers file.
// It is never fatal: the in-memory store stays authoritative.
type PersistenceError struct {
	Op    string // "load" or "save"
	Path  string
	Cause error
}

func (e *PersistenceError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

func (e *PersistenceError) Unwrap() error {
	return e.Cause
}

// NewPersistenceError creates a new PersistenceError.
func NewPersistenceError(op, path string, cause error) *PersistenceError {
	return &PersistenceError{Op: op, Path: path, Cause: cause}
}

// DispatchError reports an expiry action that could not be launched.
type DispatchError struct {
	TimerID string
	Path    string
	Cause   error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("launch action %q: %v", e.Path, e.Cause)
}

func (e *DispatchError) Unwrap() error {
	return e.Cause
}

// NewDispatchError creates a new DispatchError.
func NewDispatchError(timerID, path string, cause error) *DispatchError {
	return &DispatchError{TimerID: timerID, Path: path, Cause: cause}
}

// SystemError represents a system-level error that the user cannot directly fix.
// Examples: disk full, lock held by another process.
type SystemError struct {
	Message string // What happened
	Cause   error  // The underlying error
	Op      string // The operation that failed (optional)
}

func (e *SystemError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s during %s", e.Message, e.Op)
	}
	return e.Message
}

func (e *SystemError) Unwrap() error {
	return e.Cause
}

// NewSystemError creates a new SystemError.
func NewSystemError(message string, cause error) *SystemError {
	return &SystemError{
		Message: message,
		Cause:   cause,
	}
}

// NewSystemErrorWithOp creates a new SystemError with operation context.
func NewSystemErrorWithOp(op, message string, cause error) *SystemError {
	return &SystemError{
		Message: message,
		Cause:   cause,
		Op:      op,
	}
}

// IsValidationError checks if an error is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound checks if an error reports an unknown timer.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTimerNotFound)
}

// IsPersistenceError checks if an error is a PersistenceError.
func IsPersistenceError(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

// IsDispatchError checks if an error is a DispatchError.
func IsDispatchError(err error) bool {
	var de *DispatchError
	return errors.As(err, &de)
}

// IsSystemError checks if an error is a SystemError.
func IsSystemError(err error) bool {
	var se *SystemError
	return errors.As(err, &se)
}

// AsValidationError extracts a ValidationError from an error chain.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}

// Is is re-exported from the standard errors package for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is re-exported from the standard errors package for convenience.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted additional context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Chain returns the full error chain as a slice of error messages.
func Chain(err error) []string {
	var chain []string
	for err != nil {
		chain = append(chain, err.Error())
		err = errors.Unwrap(err)
	}
	return chain
}
