// Package apperror provides domain-specific error types for TaskNest.
// These errors carry an HTTP status code and a user-safe message. The Echo
// error handler maps them to the JSON error envelope automatically.
//
// NEVER return raw database or infrastructure errors to the client. Always
// wrap them in an apperror type or return a generic internal error.
package apperror

import (
	"fmt"
	"net/http"
)

// AppError is the base error type for all domain errors. It carries an
// HTTP status code, a machine-readable error code, and a human-readable
// message safe to show to the client.
type AppError struct {
	// Status is the HTTP status code (e.g., 404, 400, 500).
	Status int `json:"-"`

	// Code is a machine-readable error classifier (e.g., "NOT_FOUND").
	Code string `json:"code"`

	// Message is a human-readable description safe for the client.
	Message string `json:"message"`

	// Details carries optional structured context (e.g., per-field
	// validation failures). Omitted from the response when empty.
	Details map[string]any `json:"details,omitempty"`

	// Internal holds the underlying error for logging. Never exposed to client.
	Internal error `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Code, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Internal
}

// WithDetails attaches structured context to the error and returns it.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

// --- Constructors for common error types ---

// NewNotFound creates a 404 Not Found error. Task lookups deliberately use
// this for both "does not exist" and "exists but owned by someone else" so
// that callers cannot probe for other users' task IDs.
func NewNotFound(message string) *AppError {
	return &AppError{
		Status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: message,
	}
}

// NewValidation creates a 400 Bad Request error for malformed or missing input.
func NewValidation(message string) *AppError {
	return &AppError{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Message: message,
	}
}

// NewUnauthorized creates a 401 Unauthorized error.
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Status:  http.StatusUnauthorized,
		Code:    "UNAUTHORIZED",
		Message: message,
	}
}

// NewForbidden creates a 403 Forbidden error.
func NewForbidden(message string) *AppError {
	return &AppError{
		Status:  http.StatusForbidden,
		Code:    "FORBIDDEN",
		Message: message,
	}
}

// NewConflict creates a 409 Conflict error (e.g., duplicate email).
func NewConflict(message string) *AppError {
	return &AppError{
		Status:  http.StatusConflict,
		Code:    "CONFLICT",
		Message: message,
	}
}

// NewInternal creates a 500 Internal Server Error. The real error is stored
// in Internal for logging but the client only sees a generic message.
func NewInternal(err error) *AppError {
	return &AppError{
		Status:   http.StatusInternalServerError,
		Code:     "INTERNAL_SERVER_ERROR",
		Message:  "An unexpected error occurred. Please try again.",
		Internal: err,
	}
}

// IsNotFound reports whether err is an AppError with a 404 status.
// Services use this to translate repository lookups into domain outcomes.
func IsNotFound(err error) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Status == http.StatusNotFound
}

// SafeMessage returns the client-safe error message from an error. If the
// error is an AppError, returns its Message field (which is safe to expose).
// For any other error type, returns a generic message to prevent leaking
// internal details like table names, query structure, or stack traces.
func SafeMessage(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Message
	}
	return "an unexpected error occurred"
}

// SafeStatus returns the HTTP status code from an AppError, or 500 for
// any other error type.
func SafeStatus(err error) int {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Status
	}
	return http.StatusInternalServerError
}
