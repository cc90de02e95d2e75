// Package errors provides standardized API error types.
package errors

import (
	"fmt"
	"net/http"
)

// APIError represents a standardized API error response.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Details    any    `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// WithMessage returns a copy of the error with a custom message.
func (e *APIError) WithMessage(message string) *APIError {
	return &APIError{
		Code:       e.Code,
		Message:    message,
		StatusCode: e.StatusCode,
		Details:    e.Details,
	}
}

// Standard error definitions
var (
	// ErrNoSession is returned when a request carries no valid session cookie.
	ErrNoSession = &APIError{
		Code:       "no_session_data",
		Message:    "No session data associated with the request; make sure you're logged in",
		StatusCode: http.StatusForbidden,
	}

	// ErrInvalidSession is returned when a session exists but was issued for a
	// different IP address or user agent.
	ErrInvalidSession = &APIError{
		Code:       "invalid_session",
		Message:    "Invalid session, bad session id for user agent or ip address",
		StatusCode: http.StatusForbidden,
	}

	// ErrNoAccount is returned when no Discord account backs the session.
	ErrNoAccount = &APIError{
		Code:       "no_discord_account",
		Message:    "No discord account associated with the request; make sure you're logged in",
		StatusCode: http.StatusForbidden,
	}

	// ErrNotLinked is returned when a secondary provider connection is missing.
	ErrNotLinked = &APIError{
		Code:       "not_linked",
		Message:    "No linked account for that provider",
		StatusCode: http.StatusNotFound,
	}

	// ErrBadRequest is returned when the request is malformed.
	ErrBadRequest = &APIError{
		Code:       "bad_request",
		Message:    "Invalid request",
		StatusCode: http.StatusBadRequest,
	}

	// ErrUpstreamProvider is returned when an OAuth provider call fails.
	ErrUpstreamProvider = &APIError{
		Code:       "upstream_provider_error",
		Message:    "An upstream OAuth provider returned an error",
		StatusCode: http.StatusBadGateway,
	}

	// ErrRateLimited is returned when rate limits are exceeded.
	ErrRateLimited = &APIError{
		Code:       "rate_limited",
		Message:    "Too many requests. Please try again later.",
		StatusCode: http.StatusTooManyRequests,
	}

	// ErrInternal is returned for unexpected server errors.
	ErrInternal = &APIError{
		Code:       "internal_error",
		Message:    "An internal error occurred",
		StatusCode: http.StatusInternalServerError,
	}
)

// NewValidationError creates a validation error for a specific field.
func NewValidationError(field, message string) *APIError {
	return &APIError{
		Code:       "validation_error",
		Message:    fmt.Sprintf("Validation failed: %s", message),
		StatusCode: http.StatusBadRequest,
		Details: map[string]string{
			"field": field,
			"error": message,
		},
	}
}

// NewNotFoundError creates a not found error for a specific resource type.
func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Code:       "not_found",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
	}
}

// IsAPIError checks if an error is an APIError.
func IsAPIError(err error) bool {
	_, ok := err.(*APIError)
	return ok
}

// AsAPIError converts an error to an APIError if possible.
// Returns ErrInternal if the error is not an APIError.
func AsAPIError(err error) *APIError {
	if apiErr, ok := err.(*APIError); ok {
		return apiErr
	}
	return ErrInternal
}
