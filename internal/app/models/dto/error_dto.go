package dto

import (
	"fmt"
	"time"
)

// ErrorCode is the stable machine-readable code carried in error envelopes
type ErrorCode string

const (
	// RES_* codes concern a record or category
	ErrorCodeResourceNotFound      ErrorCode = "RES_001" // codigo absent, or unknown category
	ErrorCodeResourceAlreadyExists ErrorCode = "RES_002" // unique field collision
	ErrorCodeResourceInvalid       ErrorCode = "RES_003" // foreign key names no record

	// VAL_* codes reject the request before the store is touched
	ErrorCodeValidationFailed ErrorCode = "VAL_001" // missing, mistyped or empty field
	ErrorCodeBadRequest       ErrorCode = "VAL_002" // malformed codigo or body
	ErrorCodePayloadTooLarge  ErrorCode = "VAL_003"

	// SRV_* codes are server side
	ErrorCodeInternalServer ErrorCode = "SRV_001"
	ErrorCodeStorageError   ErrorCode = "SRV_002" // collection could not be loaded or saved
)

// ErrorSeverity grades an error for log filtering on the client side
type ErrorSeverity string

const (
	ErrorSeverityWarning  ErrorSeverity = "WARNING"
	ErrorSeverityError    ErrorSeverity = "ERROR"
	ErrorSeverityCritical ErrorSeverity = "CRITICAL"
)

// ErrorDetail is the error member of APIResponse. Field names the offending
// record field for validation, uniqueness and referential failures.
type ErrorDetail struct {
	Code      ErrorCode     `json:"code"`
	Message   string        `json:"message"`
	Field     string        `json:"field,omitempty"`
	Severity  ErrorSeverity `json:"severity"`
	Details   interface{}   `json:"details,omitempty"`
	DebugInfo string        `json:"debugInfo,omitempty"`
}

// NewErrorDetail creates an ERROR-severity detail
func NewErrorDetail(code ErrorCode, message string) *ErrorDetail {
	return &ErrorDetail{
		Code:     code,
		Message:  message,
		Severity: ErrorSeverityError,
	}
}

func (e *ErrorDetail) WithField(field string) *ErrorDetail {
	e.Field = field
	return e
}

func (e *ErrorDetail) WithSeverity(severity ErrorSeverity) *ErrorDetail {
	e.Severity = severity
	return e
}

// WithDetails attaches kind-specific context such as the rejected value or the referenced category
func (e *ErrorDetail) WithDetails(details interface{}) *ErrorDetail {
	e.Details = details
	return e
}

// WithDebugInfo records the underlying cause; only set in gin debug mode
func (e *ErrorDetail) WithDebugInfo(format string, args ...interface{}) *ErrorDetail {
	e.DebugInfo = fmt.Sprintf(format, args...)
	return e
}

// NewErrorResponse wraps a detail in a failed envelope
func NewErrorResponse(errorDetail *ErrorDetail) APIResponse {
	return APIResponse{
		Success:   false,
		Error:     errorDetail,
		Timestamp: time.Now(),
	}
}
