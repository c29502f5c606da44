package port

import (
	"fmt"
	"strings"
)

// AuthenticationError means the token exchange failed or returned no token.
// It is fatal for the whole batch.
type AuthenticationError struct {
	URL     string
	BaseURL string
	Err     error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("failed to obtain access token from %s: %v. Please verify your base URL (%s) and credentials are correct",
		e.URL, e.Err, e.BaseURL)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// ValidationError means an item's parameters failed local validation. It is
// always raised before any request for that item is sent.
type ValidationError struct {
	Field       string
	Message     string
	Description string
	Err         error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// UpstreamError wraps a failed API call with the operation and the agent or
// invocation identifier it concerned.
type UpstreamError struct {
	Operation  string
	Identifier string
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// UnknownOperationError names an operation outside the registered set.
type UnknownOperationError struct {
	Operation string
	Valid     []string
}

func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("unknown operation: %q. Available operations: %s", e.Operation, strings.Join(e.Valid, ", "))
}

// StatusError is returned by HTTPTransport for non-2xx responses.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}
