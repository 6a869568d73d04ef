// Package domain provides the canonical error types shared by the gateway's
// handlers, middleware, and upstream clients.
package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind categorizes a gateway error. Kinds are stable strings that appear
// in error response bodies.
type ErrorKind string

const (
	// KindInvalidInput indicates a malformed body or a missing/empty required field.
	KindInvalidInput ErrorKind = "invalid_input"

	// KindUnauthorized indicates a missing or unrecognized gateway API key.
	KindUnauthorized ErrorKind = "unauthorized"

	// KindRateLimit indicates the caller exhausted its request quota.
	KindRateLimit ErrorKind = "rate_limit_exceeded"

	// KindNoResults indicates a well-formed query that matched nothing upstream.
	KindNoResults ErrorKind = "no_results"

	// KindLocationNotFound indicates the upstream did not recognize the place name.
	KindLocationNotFound ErrorKind = "location_not_found"

	// KindUpstreamUnavailable indicates the upstream provider failed: network
	// error, timeout, 5xx, or the provider rejecting the gateway's own
	// credentials. Never the caller's fault.
	KindUpstreamUnavailable ErrorKind = "upstream_unavailable"

	// KindServer indicates an internal gateway error.
	KindServer ErrorKind = "server_error"
)

// APIError is the canonical gateway error. Handlers and clients construct it,
// the codec renders it. Messages are written to be safe for callers: no
// upstream credentials, no raw upstream bodies.
type APIError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`

	// StatusCode overrides the default HTTP status for the kind, if non-zero.
	StatusCode int `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// HTTPStatusCode returns the HTTP status for this error.
func (e *APIError) HTTPStatusCode() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}

	switch e.Kind {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindRateLimit:
		return http.StatusTooManyRequests
	case KindNoResults, KindLocationNotFound:
		return http.StatusNotFound
	case KindUpstreamUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WithStatusCode sets a specific HTTP status code.
func (e *APIError) WithStatusCode(code int) *APIError {
	e.StatusCode = code
	return e
}

// NewAPIError creates a new gateway error.
func NewAPIError(kind ErrorKind, message string) *APIError {
	return &APIError{
		Kind:    kind,
		Message: message,
	}
}

// ErrInvalidInput creates an invalid input error.
func ErrInvalidInput(message string) *APIError {
	return NewAPIError(KindInvalidInput, message)
}

// ErrUnauthorized creates an unauthorized error.
func ErrUnauthorized(message string) *APIError {
	return NewAPIError(KindUnauthorized, message)
}

// ErrRateLimit creates a rate limit error.
func ErrRateLimit(message string) *APIError {
	return NewAPIError(KindRateLimit, message)
}

// ErrNoResults creates a no-results error.
func ErrNoResults(message string) *APIError {
	return NewAPIError(KindNoResults, message)
}

// ErrLocationNotFound creates a location-not-found error.
func ErrLocationNotFound(message string) *APIError {
	return NewAPIError(KindLocationNotFound, message)
}

// ErrUpstreamUnavailable creates an upstream failure error (502).
func ErrUpstreamUnavailable(message string) *APIError {
	return NewAPIError(KindUpstreamUnavailable, message)
}

// ErrUpstreamTimeout creates an upstream timeout error (504).
func ErrUpstreamTimeout(message string) *APIError {
	return NewAPIError(KindUpstreamUnavailable, message).
		WithStatusCode(http.StatusGatewayTimeout)
}

// ErrServer creates an internal server error.
func ErrServer(message string) *APIError {
	return NewAPIError(KindServer, message)
}

// IsNotFound reports whether err represents a negative-but-valid outcome
// (no search hits, unrecognized place name) rather than a failure.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind == KindNoResults || apiErr.Kind == KindLocationNotFound
	}
	return false
}
