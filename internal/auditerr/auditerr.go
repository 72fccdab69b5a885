// Package auditerr defines stable error codes for codepulse failure modes.
package auditerr

import "fmt"

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// GitUnavailable indicates git is missing or the tree is not a repository
	GitUnavailable ErrorCode = "GIT_UNAVAILABLE"
	// ToolFailed indicates an external tool exited non-zero
	ToolFailed ErrorCode = "TOOL_FAILED"
	// ToolTimeout indicates an external tool exceeded its timeout
	ToolTimeout ErrorCode = "TOOL_TIMEOUT"
	// MemoryCorrupt indicates the persisted memory file could not be parsed
	MemoryCorrupt ErrorCode = "MEMORY_CORRUPT"
	// ScanFailed indicates the source tree could not be walked at all
	ScanFailed ErrorCode = "SCAN_FAILED"
	// InternalError indicates an unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// AuditError represents a codepulse error with a stable code and optional cause.
type AuditError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	cause   error     // Underlying error (not exported to JSON)
}

// New creates a new AuditError.
func New(code ErrorCode, message string, cause error) *AuditError {
	return &AuditError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Error implements the error interface
func (e *AuditError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AuditError) Unwrap() error {
	return e.cause
}
