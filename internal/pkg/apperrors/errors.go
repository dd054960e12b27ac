package apperrors

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// Resource errors
	ErrResourceNotFound = errors.New("resource not found")
	ErrConflict         = errors.New("conflict")
	ErrUnknownCategory  = errors.New("unknown category")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrReference        = errors.New("referenced record does not exist")
	ErrBadRequest       = errors.New("bad request")
	ErrPayloadTooLarge  = errors.New("payload too large")

	// Storage errors
	ErrStorage = errors.New("storage failure")
)

// Kind is the machine-readable class of a record store failure
type Kind string

const (
	KindMissingField    Kind = "missing_field"
	KindTypeCoercion    Kind = "type_coercion"
	KindEmptyValue      Kind = "empty_value"
	KindDuplicateValue  Kind = "duplicate_value"
	KindReferential     Kind = "referential"
	KindNotFound        Kind = "not_found"
	KindStorage         Kind = "storage"
	KindUnknownCategory Kind = "unknown_category"
)

// RecordError is a tagged failure raised by the record store.
// Only the fields relevant to the Kind are set.
type RecordError struct {
	Kind     Kind
	Category string
	Field    string
	Value    interface{}
	Target   string
	Codigo   int64
	Err      error
}

// Error renders the human-readable message
func (e *RecordError) Error() string {
	switch e.Kind {
	case KindMissingField:
		return fmt.Sprintf("field '%s' is required", e.Field)
	case KindTypeCoercion:
		return fmt.Sprintf("field '%s' has an invalid type: %v", e.Field, e.Value)
	case KindEmptyValue:
		return fmt.Sprintf("field '%s' must not be empty", e.Field)
	case KindDuplicateValue:
		return fmt.Sprintf("%s '%v' already exists in %s", e.Field, e.Value, e.Category)
	case KindReferential:
		return fmt.Sprintf("%s %v does not exist in %s", e.Field, e.Value, e.Target)
	case KindNotFound:
		return fmt.Sprintf("codigo %d not found in %s", e.Codigo, e.Category)
	case KindUnknownCategory:
		return fmt.Sprintf("unknown category '%s'", e.Category)
	case KindStorage:
		if e.Err != nil {
			return fmt.Sprintf("storage failure for %s: %v", e.Category, e.Err)
		}
		return fmt.Sprintf("storage failure for %s", e.Category)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap maps the kind onto the sentinel errors so errors.Is keeps working.
// Storage errors also expose the underlying cause.
func (e *RecordError) Unwrap() []error {
	var errs []error
	switch e.Kind {
	case KindMissingField, KindTypeCoercion, KindEmptyValue:
		errs = append(errs, ErrValidationFailed)
	case KindDuplicateValue:
		errs = append(errs, ErrConflict)
	case KindReferential:
		errs = append(errs, ErrReference)
	case KindNotFound:
		errs = append(errs, ErrResourceNotFound)
	case KindUnknownCategory:
		errs = append(errs, ErrUnknownCategory)
	case KindStorage:
		errs = append(errs, ErrStorage)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindOf returns the Kind of err, or "" when err is not a RecordError
func KindOf(err error) Kind {
	var re *RecordError
	if errors.As(err, &re) {
		return re.Kind
	}
	return ""
}

// IsValidation reports whether err aborted a mutation before any state changed
func IsValidation(err error) bool {
	switch KindOf(err) {
	case KindMissingField, KindTypeCoercion, KindEmptyValue, KindDuplicateValue, KindReferential:
		return true
	}
	return false
}

func NewMissingFieldError(category, field string) error {
	return &RecordError{Kind: KindMissingField, Category: category, Field: field}
}

func NewTypeCoercionError(category, field string, value interface{}) error {
	return &RecordError{Kind: KindTypeCoercion, Category: category, Field: field, Value: value}
}

func NewEmptyValueError(category, field string) error {
	return &RecordError{Kind: KindEmptyValue, Category: category, Field: field}
}

func NewDuplicateValueError(category, field string, value interface{}) error {
	return &RecordError{Kind: KindDuplicateValue, Category: category, Field: field, Value: value}
}

func NewReferentialError(category, field string, value interface{}, target string) error {
	return &RecordError{Kind: KindReferential, Category: category, Field: field, Value: value, Target: target}
}

// NewNotFoundError creates a not-found error for a primary key
func NewNotFoundError(category string, codigo int64) error {
	return &RecordError{Kind: KindNotFound, Category: category, Codigo: codigo}
}

// NewStorageError wraps a persistence failure
func NewStorageError(category string, err error) error {
	return &RecordError{Kind: KindStorage, Category: category, Err: err}
}

func NewUnknownCategoryError(category string) error {
	return &RecordError{Kind: KindUnknownCategory, Category: category}
}

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) error {
	return &CustomError{
		Err:     ErrBadRequest,
		Message: message,
	}
}

// NewPayloadTooLargeError reports a request body over limit bytes
func NewPayloadTooLargeError(limit int64) error {
	return &CustomError{
		Err:     ErrPayloadTooLarge,
		Message: fmt.Sprintf("request body exceeds the %d byte limit", limit),
		Details: map[string]interface{}{"limit_bytes": limit},
	}
}

// Is returns whether target matches any of the errors in errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Code    string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}
