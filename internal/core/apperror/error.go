// Package apperror provides structured error handling following RFC 7807 Problem Details.
// Every error that can reach an API client is an AppError.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	// Infrastructure errors (5xx)
	CodeInternal                  = "INTERNAL_ERROR"
	CodeDatabase                  = "DATABASE_ERROR"
	CodeSequenceExhausted         = "SEQUENCE_EXHAUSTED"
	CodeDuplicateCheckUnavailable = "DUPLICATE_CHECK_UNAVAILABLE"

	// Validation errors (400)
	CodeValidation            = "VALIDATION_ERROR"
	CodeInvalidDocumentNumber = "INVALID_DOCUMENT_NUMBER"

	// Authorization errors (401)
	CodeUnauthorized = "UNAUTHORIZED"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConflict  = "CONFLICT"
	CodeDuplicate = "DUPLICATE_ENTRY"
)

// AppError is the standard error type of the service.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field, number, attempts...)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewInvalidDocumentNumber is returned when a string is not a well-formed document number.
func NewInvalidDocumentNumber(number, reason string) *AppError {
	return &AppError{
		Code:       CodeInvalidDocumentNumber,
		Message:    fmt.Sprintf("Invalid document number %q: %s", number, reason),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"number": number, "reason": reason},
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewSequenceExhausted is returned when every attempt to draw a free number collided.
func NewSequenceExhausted(kind, datePrefix string, attempts int) *AppError {
	return &AppError{
		Code:       CodeSequenceExhausted,
		Message:    "Unable to allocate a unique document number, please retry later",
		HTTPStatus: http.StatusServiceUnavailable,
		Details: map[string]any{
			"kind":        kind,
			"date_prefix": datePrefix,
			"attempts":    attempts,
		},
	}
}

// NewDuplicateCheckUnavailable is returned under the fail-closed policy when
// the duplicate registry cannot be queried.
func NewDuplicateCheckUnavailable(number string) *AppError {
	return &AppError{
		Code:       CodeDuplicateCheckUnavailable,
		Message:    "Document registry is unavailable, number cannot be confirmed unique",
		HTTPStatus: http.StatusServiceUnavailable,
		Details:    map[string]any{"number": number},
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewUnauthorized creates an authentication error (401)
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewConflict creates a conflict error (409)
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewDuplicate creates a duplicate entry error (409).
// field names the unique column that was violated.
func NewDuplicate(entity, field, value string) *AppError {
	return &AppError{
		Code:       CodeDuplicate,
		Message:    fmt.Sprintf("%s with this %s already exists", entity, field),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "field": field, "value": value},
	}
}

// --- Helper functions ---

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == CodeNotFound
	}
	return false
}

// IsDuplicate checks if error is CodeDuplicate
func IsDuplicate(err error) bool {
	_, ok := DuplicateField(err)
	return ok
}

// DuplicateField returns the violated field of a CodeDuplicate error.
func DuplicateField(err error) (string, bool) {
	appErr, ok := AsAppError(err)
	if !ok || appErr.Code != CodeDuplicate {
		return "", false
	}
	field, _ := appErr.Details["field"].(string)
	return field, true
}
