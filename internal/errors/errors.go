// Package errors provides centralized error definitions and error handling utilities
// for mindnode. It defines domain-specific errors, semantic error types,
// error constructors with context wrapping, and error classification helpers.
//
// # Error Types
//
// Domain-specific errors represent failures in a specific subsystem:
//   - ParseError: plan text that is not syntactically valid JSON
//   - SchemaError: plan JSON that lacks the required shape
//   - StorageError: failures reading or writing the persisted state document
//
// Semantic errors represent common error conditions:
//   - NotFoundError: resource not found
//   - ValidationError: invalid input or state
//
// # Usage
//
//	err := errors.NewSchemaError("plan must contain a \"nodes\" array")
//	if errors.Is(err, errors.ErrNodesMissing) { ... }
//
//	var nf *errors.NotFoundError
//	if errors.As(err, &nf) { ... }
//
//	if errors.IsUserFacing(err) { ... }
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Board-related sentinel errors
var (
	// ErrBoardNotFound indicates that a board could not be found.
	ErrBoardNotFound = New("board not found")
	// ErrBoardLocked indicates that a board requires a password before it can be read.
	ErrBoardLocked = New("board is locked")
	// ErrIncorrectPassword indicates that a supplied board password did not match.
	ErrIncorrectPassword = New("incorrect password")
	// ErrConnectionNotFound indicates that a connection could not be found on a board.
	ErrConnectionNotFound = New("connection not found")
)

// Plan-related sentinel errors
var (
	// ErrInvalidJSON indicates that plan text could not be parsed as JSON.
	ErrInvalidJSON = New("invalid JSON")
	// ErrNodesMissing indicates that a plan has no "nodes" array.
	ErrNodesMissing = New("nodes array missing")
)

// Storage-related sentinel errors
var (
	// ErrStorageCorrupted indicates that the persisted document could not be decoded.
	ErrStorageCorrupted = New("storage data corrupted")
	// ErrStoreClosed indicates that an operation was attempted on a closed store.
	ErrStoreClosed = New("store is closed")
)

// General sentinel errors
var (
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// MindnodeError is the base interface for all mindnode errors.
type MindnodeError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsUserFacing returns true if the error message is safe to display
	// to end users.
	IsUserFacing() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// ParseError is returned when plan text is not syntactically valid JSON.
// Error returns the raw parser message so it can be shown to the user as-is.
//
// Example:
//
//	err := errors.NewParseError(jsonErr)
//	fmt.Println(err) // "unexpected end of JSON input"
type ParseError struct {
	baseError
	// Offset is the byte offset of the syntax error when known, or -1.
	Offset int64
}

// NewParseError creates a new ParseError wrapping the underlying decoder error.
func NewParseError(cause error) *ParseError {
	msg := "invalid JSON"
	if cause != nil {
		msg = cause.Error()
	}
	return &ParseError{
		baseError: baseError{
			message:    msg,
			cause:      cause,
			severity:   SeverityWarning,
			userFacing: true,
		},
		Offset: -1,
	}
}

// WithOffset records the byte offset where parsing failed.
func (e *ParseError) WithOffset(offset int64) *ParseError {
	e.Offset = offset
	return e
}

// Error returns the raw parser message.
func (e *ParseError) Error() string {
	return e.message
}

// Is checks if this error matches the target.
func (e *ParseError) Is(target error) bool {
	if _, ok := target.(*ParseError); ok {
		return true
	}
	if target == ErrInvalidJSON {
		return true
	}
	return e.baseError.Is(target)
}

// SchemaError is returned when plan JSON parses but does not have the
// required shape.
//
// Example:
//
//	err := errors.NewSchemaError(`plan must contain a "nodes" array`).WithField("nodes")
type SchemaError struct {
	baseError
	Field string
}

// NewSchemaError creates a new SchemaError.
func NewSchemaError(message string) *SchemaError {
	return &SchemaError{
		baseError: baseError{
			message:    message,
			severity:   SeverityWarning,
			userFacing: true,
		},
	}
}

// WithField records the offending field path.
func (e *SchemaError) WithField(field string) *SchemaError {
	e.Field = field
	return e
}

// WithCause adds a cause to the error.
func (e *SchemaError) WithCause(cause error) *SchemaError {
	e.cause = cause
	return e
}

// Error returns the raw validator message.
func (e *SchemaError) Error() string {
	return e.message
}

// Is checks if this error matches the target.
func (e *SchemaError) Is(target error) bool {
	if _, ok := target.(*SchemaError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// StorageError represents failures reading or writing persisted state.
//
// Example:
//
//	err := errors.NewStorageError("failed to write state", ioErr).WithKey("mind-node-storage")
//	fmt.Println(err) // "storage error [key=mind-node-storage]: failed to write state: ..."
type StorageError struct {
	baseError
	Key     string
	Backend string
}

// NewStorageError creates a new StorageError.
func NewStorageError(message string, cause error) *StorageError {
	return &StorageError{
		baseError: baseError{
			message:  message,
			cause:    cause,
			severity: SeverityError,
		},
	}
}

// WithKey adds the storage key to the error context.
func (e *StorageError) WithKey(key string) *StorageError {
	e.Key = key
	return e
}

// WithBackend adds the backend name to the error context.
func (e *StorageError) WithBackend(backend string) *StorageError {
	e.Backend = backend
	return e
}

// WithSeverity sets the error severity.
func (e *StorageError) WithSeverity(s Severity) *StorageError {
	e.severity = s
	return e
}

// Error returns the formatted error message.
func (e *StorageError) Error() string {
	var parts []string
	if e.Backend != "" {
		parts = append(parts, fmt.Sprintf("backend=%s", e.Backend))
	}
	if e.Key != "" {
		parts = append(parts, fmt.Sprintf("key=%s", e.Key))
	}

	prefix := "storage error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("storage error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *StorageError) Is(target error) bool {
	if _, ok := target.(*StorageError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError represents a resource that could not be found.
//
// Example:
//
//	err := errors.NewNotFoundError("board", "abc123").WithCause(errors.ErrBoardNotFound)
//	fmt.Println(err) // "board 'abc123' not found: board not found"
type NotFoundError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message:    fmt.Sprintf("%s '%s' not found", resourceType, resourceID),
			severity:   SeverityWarning,
			userFacing: true,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// BoardNotFound is shorthand for a NotFoundError wrapping ErrBoardNotFound.
func BoardNotFound(id string) *NotFoundError {
	return NewNotFoundError("board", id).WithCause(ErrBoardNotFound)
}

// WithCause adds a cause to the error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s '%s' not found: %v", e.ResourceType, e.ResourceID, e.cause)
	}
	return fmt.Sprintf("%s '%s' not found", e.ResourceType, e.ResourceID)
}

// Is checks if this error matches the target.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ValidationError represents invalid input or state.
//
// Example:
//
//	err := errors.NewValidationError("grid size must be positive")
//	err = err.WithField("settings.gridSize").WithValue(0)
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			severity:   SeverityWarning,
			userFacing: true,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}

	prefix := "validation error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("validation error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if errors.Is(target, ErrInvalidInput) {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsUserFacing returns true if the error message is safe to display to end users.
// This checks for:
//   - Errors implementing MindnodeError with IsUserFacing() returning true
//   - Semantic errors (NotFoundError, ValidationError)
//   - The board access sentinels
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}

	var mnErr MindnodeError
	if As(err, &mnErr) {
		return mnErr.IsUserFacing()
	}

	if Is(err, ErrBoardLocked) || Is(err, ErrIncorrectPassword) {
		return true
	}

	var notFound *NotFoundError
	var validation *ValidationError
	return As(err, &notFound) || As(err, &validation)
}

// IsImportError returns true if err aborted a plan import because of its input
// (a ParseError or SchemaError).
func IsImportError(err error) bool {
	if err == nil {
		return false
	}
	var parseErr *ParseError
	var schemaErr *SchemaError
	return As(err, &parseErr) || As(err, &schemaErr)
}

// IsNotFound returns true if err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return As(err, &nf)
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement MindnodeError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var mnErr MindnodeError
	if As(err, &mnErr) {
		return mnErr.Severity()
	}

	return SeverityError
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
// Unlike fmt.Errorf with %w, this returns nil for a nil error.
//
// Example:
//
//	err := errors.Wrap(baseErr, "failed to import plan")
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
//
// Example:
//
//	err := errors.Wrapf(baseErr, "failed to load board %s", boardID)
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
