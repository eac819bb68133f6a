// Package errors provides unified error handling across claudecast.
//
// All failures the agent bridge, store, and capture layers surface to the
// interfaces (CLI, TUI) are represented as AppError values with a stable
// code, a category, a severity, and a retryable classification. Interface
// specific formatting lives in handlers.go.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized error codes.
type ErrorCode string

const (
	// Agent bridge errors
	ErrCodeBinaryNotFound ErrorCode = "BINARY_NOT_FOUND"
	ErrCodeAgentTimeout   ErrorCode = "AGENT_TIMEOUT"
	ErrCodeAgentExit      ErrorCode = "AGENT_EXIT"
	ErrCodeSpawnFailure   ErrorCode = "SPAWN_FAILURE"

	// Validation errors
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// Resource errors
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"
	ErrCodeImmutable     ErrorCode = "IMMUTABLE"

	// Storage errors
	ErrCodeStorageFailure ErrorCode = "STORAGE_FAILURE"
	ErrCodeFileNotFound   ErrorCode = "FILE_NOT_FOUND"

	// Git errors
	ErrCodeGitFailure ErrorCode = "GIT_FAILURE"

	// Catch-all
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// ErrorSeverity represents the severity level of an error.
type ErrorSeverity string

const (
	SeverityInfo     ErrorSeverity = "info"
	SeverityWarning  ErrorSeverity = "warning"
	SeverityError    ErrorSeverity = "error"
	SeverityCritical ErrorSeverity = "critical"
)

// ErrorCategory represents the category of an error.
type ErrorCategory string

const (
	CategoryAgent      ErrorCategory = "agent"
	CategoryValidation ErrorCategory = "validation"
	CategoryStorage    ErrorCategory = "storage"
	CategoryGit        ErrorCategory = "git"
	CategorySystem     ErrorCategory = "system"
)

// AppError represents a standardized application error.
type AppError struct {
	Code      ErrorCode     `json:"code"`
	Message   string        `json:"message"`
	Details   string        `json:"details,omitempty"`
	Severity  ErrorSeverity `json:"severity"`
	Category  ErrorCategory `json:"category"`
	Cause     error         `json:"-"`
	Timestamp time.Time     `json:"timestamp"`
	Retryable bool          `json:"retryable"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// IsRetryable returns whether the error is retryable.
func (e *AppError) IsRetryable() bool {
	return e.Retryable
}

// WithDetails adds details to the error.
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// New creates a new application error.
func New(code ErrorCode, message string) *AppError {
	category, severity := categorize(code)
	return &AppError{
		Code:      code,
		Message:   message,
		Severity:  severity,
		Category:  category,
		Timestamp: time.Now(),
		Retryable: isRetryable(code),
	}
}

// Wrap wraps an existing error with application error context.
func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := New(code, message)
	appErr.Cause = err
	return appErr
}

func categorize(code ErrorCode) (ErrorCategory, ErrorSeverity) {
	switch code {
	case ErrCodeBinaryNotFound:
		return CategoryAgent, SeverityCritical
	case ErrCodeAgentTimeout, ErrCodeAgentExit, ErrCodeSpawnFailure:
		return CategoryAgent, SeverityError

	case ErrCodeValidation, ErrCodeInvalidInput:
		return CategoryValidation, SeverityWarning

	case ErrCodeNotFound:
		return CategorySystem, SeverityInfo
	case ErrCodeAlreadyExists, ErrCodeImmutable:
		return CategorySystem, SeverityWarning

	case ErrCodeStorageFailure:
		return CategoryStorage, SeverityError
	case ErrCodeFileNotFound:
		return CategoryStorage, SeverityInfo

	case ErrCodeGitFailure:
		return CategoryGit, SeverityError

	default:
		return CategorySystem, SeverityError
	}
}

func isRetryable(code ErrorCode) bool {
	switch code {
	case ErrCodeAgentTimeout, ErrCodeStorageFailure:
		return true
	default:
		return false
	}
}

// HasCode reports whether err is (or wraps) an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetAppError extracts an AppError from an error, or converts it to one.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, ErrCodeInternalError, err.Error())
}

// Common constructors.

func ValidationError(message string) *AppError {
	return New(ErrCodeValidation, message)
}

func NotFoundError(resource string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource))
}

func AlreadyExistsError(resource string) *AppError {
	return New(ErrCodeAlreadyExists, fmt.Sprintf("%s already exists", resource))
}

func ImmutableError(resource string) *AppError {
	return New(ErrCodeImmutable, fmt.Sprintf("%s is built in and cannot be changed", resource))
}

func StorageError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeStorageFailure, fmt.Sprintf("storage operation failed: %s", operation))
}

func GitError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeGitFailure, fmt.Sprintf("git operation failed: %s", operation))
}

// BinaryNotFoundError is the fatal failure when no usable CLI binary could
// be located. The message carries install guidance for the user.
func BinaryNotFoundError() *AppError {
	return New(ErrCodeBinaryNotFound,
		"Claude CLI not found. Install it with: npm install -g @anthropic-ai/claude-code, "+
			"or set the binary path in ~/.config/claudecast/config.json")
}

// TimeoutError is the retryable failure when the subprocess exceeded the
// watchdog duration and was killed.
func TimeoutError(seconds int) *AppError {
	return New(ErrCodeAgentTimeout,
		fmt.Sprintf("Claude CLI did not respond within %d seconds", seconds))
}

// ExitError is the failure when the subprocess exited non-zero with no
// usable output. Stderr, when captured, goes into Details.
func ExitError(code int, stderr string) *AppError {
	appErr := New(ErrCodeAgentExit, fmt.Sprintf("Claude CLI exited with code %d", code))
	if stderr != "" {
		appErr.Details = stderr
	}
	return appErr
}

// SpawnError is the failure when the subprocess could not be started at all.
func SpawnError(err error) *AppError {
	return Wrap(err, ErrCodeSpawnFailure, "failed to start Claude CLI")
}
