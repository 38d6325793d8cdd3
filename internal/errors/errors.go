// Package errors provides the typed errors handlers turn into HTTP
// responses.
package errors

import (
	"errors"
	"fmt"
	"net/http"

	"brokerdash/internal/broker"
)

// Sentinel errors for common error cases.
var (
	// ErrNotFound indicates a resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrValidation indicates a validation error.
	ErrValidation = errors.New("validation error")

	// ErrInternal indicates an internal server error.
	ErrInternal = errors.New("internal error")

	// ErrRateLimit indicates too many requests.
	ErrRateLimit = errors.New("rate limit exceeded")

	// ErrUpstream indicates a brokerage answered with an error.
	ErrUpstream = errors.New("upstream error")

	// ErrUnavailable indicates a dependency, such as a token source, could
	// not be reached or is not configured.
	ErrUnavailable = errors.New("service unavailable")
)

// AppError is a structured application error.
type AppError struct {
	// Type is the error type (sentinel error).
	Type error
	// Message is the user-facing error message.
	Message string
	// Details contains additional error details.
	Details map[string]any
	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error type.
func (e *AppError) Unwrap() error {
	return e.Type
}

// Is checks if this error matches the target.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Type, target)
}

// New creates a new AppError.
func New(errType error, message string) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
	}
}

// WithDetails adds details to an AppError.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

// NotFound creates a not found error.
func NotFound(resource string) *AppError {
	return &AppError{
		Type:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// Validation creates a validation error.
func Validation(message string) *AppError {
	return &AppError{
		Type:    ErrValidation,
		Message: message,
	}
}

// ValidationField creates a validation error for a specific field.
func ValidationField(field, message string) *AppError {
	return &AppError{
		Type:    ErrValidation,
		Message: message,
		Details: map[string]any{"field": field},
	}
}

// Internal creates an internal error.
func Internal(message string, cause error) *AppError {
	return &AppError{
		Type:    ErrInternal,
		Message: message,
		Cause:   cause,
	}
}

// Upstream creates an upstream error.
func Upstream(message string, cause error) *AppError {
	return &AppError{
		Type:    ErrUpstream,
		Message: message,
		Cause:   cause,
	}
}

// Unavailable creates an unavailable error.
func Unavailable(message string, cause error) *AppError {
	return &AppError{
		Type:    ErrUnavailable,
		Message: message,
		Cause:   cause,
	}
}

// FromBroker translates a brokerage adapter error into an AppError. Errors
// that are already AppErrors pass through; anything unrecognized becomes an
// internal error.
func FromBroker(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var invalid *broker.InvalidRequestError
	if errors.As(err, &invalid) {
		e := Validation(invalid.Error())
		if invalid.Field != "" {
			e = ValidationField(invalid.Field, invalid.Error())
		}
		e.Cause = err
		return e
	}

	switch {
	case errors.Is(err, broker.ErrTokenAcquisition):
		return Unavailable("could not obtain a brokerage access token", err)
	case errors.Is(err, broker.ErrPageFetch),
		errors.Is(err, broker.ErrUpstream),
		errors.Is(err, broker.ErrPaginationLimit):
		return Upstream(err.Error(), err)
	default:
		return Internal("internal error", err)
	}
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// HTTPStatus returns the appropriate HTTP status code for an error.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrRateLimit):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
