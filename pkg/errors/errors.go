package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	CodeInternal            = "INTERNAL_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeMultipleResults     = "MULTIPLE_RESULTS"
	CodeInvalidArgument     = "INVALID_ARGUMENT"
	CodeInvalidState        = "INVALID_STATE"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	CodeConstraintViolation = "CONSTRAINT_VIOLATION"
	CodeStorageUnavailable  = "STORAGE_UNAVAILABLE"
)

// AppError represents a storage-layer error with context
type AppError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	StatusCode int               `json:"-"`
	Err        error             `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a detail to the error
func (e *AppError) WithDetail(key, value string) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithError wraps an underlying error
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// New creates a new AppError
func New(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Internal creates an internal error
func Internal(message string) *AppError {
	return New(CodeInternal, message, http.StatusInternalServerError)
}

// NotFound creates a not found error
func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

// MultipleResults creates an error for a single-row query that matched more than one row
func MultipleResults(resource string) *AppError {
	return New(CodeMultipleResults, fmt.Sprintf("query for a single %s matched more than one row", resource), http.StatusInternalServerError)
}

// InvalidArgument creates an error for a malformed query description
func InvalidArgument(message string) *AppError {
	return New(CodeInvalidArgument, message, http.StatusBadRequest)
}

// InvalidState creates an error for an operation issued outside its owner's lifetime
func InvalidState(message string) *AppError {
	return New(CodeInvalidState, message, http.StatusConflict)
}

// ConcurrencyConflict creates an error for an optimistic-concurrency check failure
func ConcurrencyConflict(resource string) *AppError {
	return New(CodeConcurrencyConflict, fmt.Sprintf("%s was modified by another operation", resource), http.StatusConflict)
}

// ConstraintViolation creates an error for a uniqueness/foreign-key/check violation
func ConstraintViolation(message string) *AppError {
	return New(CodeConstraintViolation, message, http.StatusConflict)
}

// StorageUnavailable creates an error for connectivity/timeout failures
func StorageUnavailable(message string) *AppError {
	return New(CodeStorageUnavailable, message, http.StatusServiceUnavailable)
}

// Is checks if an error is of a specific type
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As attempts to convert an error to a specific type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// IsAppError checks if the error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from error if present
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// GetStatusCode returns the HTTP status code for an error
func GetStatusCode(err error) int {
	if appErr := GetAppError(err); appErr != nil {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

func hasCode(err error, code string) bool {
	if appErr := GetAppError(err); appErr != nil {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return hasCode(err, CodeNotFound)
}

// IsMultipleResults checks if the error is a multiple results error
func IsMultipleResults(err error) bool {
	return hasCode(err, CodeMultipleResults)
}

// IsInvalidArgument checks if the error is an invalid argument error
func IsInvalidArgument(err error) bool {
	return hasCode(err, CodeInvalidArgument)
}

// IsInvalidState checks if the error is an invalid state error
func IsInvalidState(err error) bool {
	return hasCode(err, CodeInvalidState)
}

// IsConcurrencyConflict checks if the error is a concurrency conflict error
func IsConcurrencyConflict(err error) bool {
	return hasCode(err, CodeConcurrencyConflict)
}

// IsConstraintViolation checks if the error is a constraint violation error
func IsConstraintViolation(err error) bool {
	return hasCode(err, CodeConstraintViolation)
}

// IsStorageUnavailable checks if the error is a storage unavailable error
func IsStorageUnavailable(err error) bool {
	return hasCode(err, CodeStorageUnavailable)
}
