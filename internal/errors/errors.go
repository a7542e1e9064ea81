package errors

import (
	stderrors "errors"
	"fmt"
)

// CodeRAGError is the structured error type for coderag.
// It carries enough context for logging, CLI output and retry decisions.
type CodeRAGError struct {
	// Code is the unique error code (e.g., "ERR_101_INVALID_ARGUMENT").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Validation, IO, Embedding, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *CodeRAGError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *CodeRAGError) Unwrap() error {
	return e.Cause
}

// Is matches another CodeRAGError by code.
func (e *CodeRAGError) Is(target error) bool {
	if t, ok := target.(*CodeRAGError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
func (e *CodeRAGError) WithDetail(key, value string) *CodeRAGError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *CodeRAGError) WithSuggestion(suggestion string) *CodeRAGError {
	e.Suggestion = suggestion
	return e
}

// New creates a new CodeRAGError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *CodeRAGError {
	return &CodeRAGError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a CodeRAGError from an existing error.
// The error's message becomes the CodeRAGError message.
func Wrap(code string, err error) *CodeRAGError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// InvalidArgument creates a caller contract violation error.
func InvalidArgument(format string, args ...any) *CodeRAGError {
	return New(ErrCodeInvalidArgument, fmt.Sprintf(format, args...), nil)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *CodeRAGError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// IOError creates an I/O-related error.
func IOError(message string, cause error) *CodeRAGError {
	return New(ErrCodeFileRead, message, cause)
}

// IsRetryable reports whether err (or anything it wraps) is a retryable CodeRAGError.
func IsRetryable(err error) bool {
	var ce *CodeRAGError
	if stderrors.As(err, &ce) {
		return ce.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
func IsFatal(err error) bool {
	var ce *CodeRAGError
	if stderrors.As(err, &ce) {
		return ce.Severity == SeverityFatal
	}
	return false
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code string) bool {
	return GetCode(err) == code
}

// GetCode extracts the error code from a CodeRAGError.
// Returns empty string if not a CodeRAGError.
func GetCode(err error) string {
	var ce *CodeRAGError
	if stderrors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// GetCategory extracts the category from a CodeRAGError.
func GetCategory(err error) Category {
	var ce *CodeRAGError
	if stderrors.As(err, &ce) {
		return ce.Category
	}
	return ""
}
