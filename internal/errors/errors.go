package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeNetwork      ErrorType = "network"
	ErrorTypeProcessing   ErrorType = "processing"
	ErrorTypeTimeout      ErrorType = "timeout"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeTooLarge     ErrorType = "too_large"
	ErrorTypeUnsupported  ErrorType = "unsupported_media"
	ErrorTypeInternal     ErrorType = "internal"
	ErrorTypeCanceled     ErrorType = "canceled"
)

// StatusClientClosedRequest is reported when the caller abandons a request
// before it completes. net/http has no constant for it.
const StatusClientClosedRequest = 499

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"status_code"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a new validation error
func NewValidationError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Cause:      cause,
	}
}

// NewNetworkError creates a new network error
func NewNetworkError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeNetwork,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

// NewProcessingError creates a new processing error
func NewProcessingError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeProcessing,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
		Cause:      cause,
	}
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeTimeout,
		Message:    message,
		StatusCode: http.StatusGatewayTimeout,
		Cause:      cause,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
		Cause:      cause,
	}
}

// NewTooLargeError creates a new payload too large error
func NewTooLargeError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeTooLarge,
		Message:    message,
		StatusCode: http.StatusRequestEntityTooLarge,
		Cause:      cause,
	}
}

// NewUnsupportedMediaError creates a new unsupported media type error
func NewUnsupportedMediaError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeUnsupported,
		Message:    message,
		StatusCode: http.StatusUnsupportedMediaType,
		Cause:      cause,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
		Cause:      cause,
	}
}

// NewCanceledError creates an error for work abandoned by the caller
func NewCanceledError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeCanceled,
		Message:    message,
		StatusCode: StatusClientClosedRequest,
		Cause:      cause,
	}
}

// As returns the first *AppError in err's chain
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType checks if the error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	if appErr, ok := As(err); ok {
		return appErr.Type == errorType
	}
	return false
}

// GetStatusCode extracts the HTTP status code from an error
func GetStatusCode(err error) int {
	if appErr, ok := As(err); ok {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

// WithDetails attaches extra context for API responses
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// Classify converts any error into an AppError. Existing AppErrors pass
// through, context deadlines become timeouts, cancellations become canceled
// errors and everything else is internal.
func Classify(err error, message string) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := As(err); ok {
		return appErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError(message, err)
	}
	if errors.Is(err, context.Canceled) {
		return NewCanceledError(message, err)
	}
	return NewInternalError(message, err)
}
