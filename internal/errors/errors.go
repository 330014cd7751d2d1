// Package errors provides the failure taxonomy for control-center calls.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for client-side preconditions.
var (
	ErrEmptyCommandText    = errors.New("command text is empty")
	ErrNoTaskSelected      = errors.New("no task selected")
	ErrNotAwaitingApproval = errors.New("command is not waiting for approval")
	ErrNoTrackedCommand    = errors.New("no command is being tracked")
)

// NetworkError means the request never received a response
// (connectivity, DNS, abort).
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// RequestError is a non-2xx answer from the control center. Detail is
// extracted best-effort from the JSON error body and may be empty.
type RequestError struct {
	Status int
	Detail string
}

func (e *RequestError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("HTTP %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}

// DecodeError is a 2xx response whose body failed to parse as expected.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ValidationError is a client-side precondition failure raised before any
// network call is made.
type ValidationError struct {
	Reason error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %v", e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Reason }

// NewValidation wraps a precondition sentinel in a ValidationError.
func NewValidation(reason error) *ValidationError {
	return &ValidationError{Reason: reason}
}

// IsNetwork reports whether err is (or wraps) a NetworkError.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StatusOf returns the HTTP status carried by err, or 0 when err is not a
// RequestError.
func StatusOf(err error) int {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Status
	}
	return 0
}

// IsAuth reports whether err is a credential rejection. These are never
// retried.
func IsAuth(err error) bool {
	s := StatusOf(err)
	return s == 401 || s == 403
}

// IsRetryable reports whether the error is likely transient. The lifecycle
// controller does not retry polls itself; this exists for callers that wrap
// one-shot calls in their own retry.
func IsRetryable(err error) bool {
	if IsNetwork(err) {
		return true
	}
	switch StatusOf(err) {
	case 429, 500, 502, 503, 504:
		return true
	}
	return false
}
