package errors

import (
	"fmt"
	"net/http"
)

// ErrorType represents the type of error.
type ErrorType string

const (
	ErrorTypeValidation    ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound      ErrorType = "NOT_FOUND"
	ErrorTypeInternal      ErrorType = "INTERNAL_ERROR"
	ErrorTypeAllocation    ErrorType = "ALLOCATION_FAILURE"
	ErrorTypeGeometry      ErrorType = "UNSUPPORTED_GEOMETRY"
	ErrorTypeMissingPTS    ErrorType = "MISSING_TIMESTAMP"
	ErrorTypeDuplicatePTS  ErrorType = "DUPLICATE_TIMESTAMP"
	ErrorTypeDiscontinuity ErrorType = "TIMESTAMP_DISCONTINUITY"
	ErrorTypeInexact       ErrorType = "INEXACT_TIMEBASE"
)

// AppError represents an application error with additional context.
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	Code       string                 `json:"code,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	HTTPStatus int                    `json:"-"`
	Err        error                  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails adds details to the error.
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// WithCode adds an error code.
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// New creates a new AppError.
func New(errType ErrorType, message string, httpStatus int) *AppError {
	return &AppError{
		Type:       errType,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an existing error.
func Wrap(err error, errType ErrorType, message string, httpStatus int) *AppError {
	return &AppError{
		Type:       errType,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// Common error constructors.

// NewValidationError creates a validation error.
func NewValidationError(message string) *AppError {
	return New(ErrorTypeValidation, message, http.StatusBadRequest)
}

// NewNotFoundError creates a not found error.
func NewNotFoundError(resource string) *AppError {
	return New(ErrorTypeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

// NewInternalError creates an internal error.
func NewInternalError(message string) *AppError {
	return New(ErrorTypeInternal, message, http.StatusInternalServerError)
}

// WrapInternalError wraps an error as an internal error.
func WrapInternalError(err error, message string) *AppError {
	return Wrap(err, ErrorTypeInternal, message, http.StatusInternalServerError)
}

// NewAllocationError reports a failed frame buffer allocation. This is
// the only error kind that aborts the current conversion step.
func NewAllocationError(message string) *AppError {
	return New(ErrorTypeAllocation, message, http.StatusInsufficientStorage)
}

// NewGeometryError reports mismatched frame dimensions.
func NewGeometryError(message string) *AppError {
	return New(ErrorTypeGeometry, message, http.StatusUnprocessableEntity)
}

// NewMissingTimestampError reports a frame without a usable PTS.
func NewMissingTimestampError() *AppError {
	return New(ErrorTypeMissingPTS, "frame has no presentation timestamp", http.StatusBadRequest)
}

// NewDuplicateTimestampError reports a frame whose rescaled PTS equals
// the newest window slot.
func NewDuplicateTimestampError(pts int64) *AppError {
	return New(ErrorTypeDuplicatePTS, fmt.Sprintf("frame duplicates timestamp %d", pts), http.StatusBadRequest)
}

// NewDiscontinuityError reports a backwards timestamp jump.
func NewDiscontinuityError(pts0, pts1 int64) *AppError {
	return New(ErrorTypeDiscontinuity,
		fmt.Sprintf("timestamp moved backwards: %d after %d", pts1, pts0),
		http.StatusBadRequest)
}

// NewInexactTimebaseError reports a destination timebase that cannot
// represent the target rate exactly.
func NewInexactTimebaseError(message string) *AppError {
	return New(ErrorTypeInexact, message, http.StatusBadRequest)
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// GetAppError extracts AppError from an error.
func GetAppError(err error) (*AppError, bool) {
	appErr, ok := err.(*AppError)
	return appErr, ok
}

// IsAllocationFailure reports whether err is an allocation failure.
func IsAllocationFailure(err error) bool {
	appErr, ok := GetAppError(err)
	return ok && appErr.Type == ErrorTypeAllocation
}
