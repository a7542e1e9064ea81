// Package errors provides structured error handling for coderag.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Validation errors (caller contract violations)
//   - 2XX: IO errors (files, manifest, snapshots)
//   - 3XX: Embedding and network errors
//   - 4XX: Index errors
//   - 5XX: Configuration errors
//   - 9XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryValidation indicates invalid arguments from the caller.
	CategoryValidation Category = "VALIDATION"
	// CategoryIO indicates file and disk I/O errors.
	CategoryIO Category = "IO"
	// CategoryEmbedding indicates embedding provider and network errors.
	CategoryEmbedding Category = "EMBEDDING"
	// CategoryIndex indicates indexer state errors.
	CategoryIndex Category = "INDEX"
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Validation errors (100-199)
	ErrCodeInvalidArgument   = "ERR_101_INVALID_ARGUMENT"
	ErrCodeDimensionMismatch = "ERR_102_DIMENSION_MISMATCH"

	// IO errors (200-299)
	ErrCodeFileRead        = "ERR_201_FILE_READ"
	ErrCodeManifestCorrupt = "ERR_202_MANIFEST_CORRUPT"
	ErrCodeSnapshotCorrupt = "ERR_203_SNAPSHOT_CORRUPT"
	ErrCodeFileWrite       = "ERR_204_FILE_WRITE"

	// Embedding errors (300-399)
	ErrCodeEmbedUnavailable = "ERR_301_EMBED_UNAVAILABLE"
	ErrCodeEmbedRequest     = "ERR_302_EMBED_REQUEST"
	ErrCodeEmbedRateLimited = "ERR_303_EMBED_RATE_LIMITED"
	ErrCodeEmbedRejected    = "ERR_304_EMBED_REJECTED"

	// Index errors (400-499)
	ErrCodeIndexBusy     = "ERR_401_INDEX_BUSY"
	ErrCodeIndexClosed   = "ERR_402_INDEX_CLOSED"
	ErrCodeStoreFailed   = "ERR_403_STORE_FAILED"
	ErrCodeIndexNotFound = "ERR_404_INDEX_NOT_FOUND"

	// Config errors (500-599)
	ErrCodeConfigInvalid = "ERR_501_CONFIG_INVALID"
	ErrCodeConfigRead    = "ERR_502_CONFIG_READ"

	// Internal errors (900-999)
	ErrCodeInternal = "ERR_901_INTERNAL"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	switch code[4] {
	case '1':
		return CategoryValidation
	case '2':
		return CategoryIO
	case '3':
		return CategoryEmbedding
	case '4':
		return CategoryIndex
	case '5':
		return CategoryConfig
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeInternal:
		return SeverityFatal
	}

	if isRetryableCode(code) {
		return SeverityWarning
	}

	switch code {
	case ErrCodeManifestCorrupt, ErrCodeSnapshotCorrupt, ErrCodeFileRead, ErrCodeEmbedUnavailable:
		return SeverityWarning
	}

	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeEmbedRequest, ErrCodeEmbedRateLimited, ErrCodeIndexBusy:
		return true
	default:
		return false
	}
}
