// Package domainerrors defines the coded error type shared by services,
// stores, and transport. Services translate infrastructure sentinels into
// coded errors here; transport maps codes onto HTTP statuses.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error for callers that need to branch on failure kind
// without string matching.
type Code string

const (
	// CodeValidation marks incomplete or malformed caller input, e.g. a
	// rejection without a reason.
	CodeValidation Code = "validation_error"
	// CodeInvalidTransition marks a workflow guard violation, e.g. publishing
	// a document that is not approved.
	CodeInvalidTransition Code = "invalid_transition"
	// CodeNotFound marks operations referencing a nonexistent record.
	CodeNotFound Code = "not_found"
	// CodeUnavailable marks transient store or transport failures. Safe to
	// retry.
	CodeUnavailable Code = "store_unavailable"
	// CodeConflict marks concurrent-modification or uniqueness conflicts.
	CodeConflict Code = "conflict"
	// CodeBadRequest marks transport-level request problems (bad JSON, bad
	// path parameter).
	CodeBadRequest Code = "bad_request"
	// CodeInvariantViolation marks a broken model invariant detected at
	// construction or transition time.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeInternal is the fallback for unexpected failures.
	CodeInternal Code = "internal"
)

// Error carries a code, a human-readable message, and an optional cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a coded error with no cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause. The cause stays
// reachable through errors.Is/As.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// CodeOf extracts the code from err, or CodeInternal when err carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is shorthand for HasCode, matching the call sites that read better as
// a predicate.
func Is(err error, code Code) bool { return HasCode(err, code) }

// HTTPStatus maps a code onto the response status transport should emit.
func HTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeBadRequest, CodeInvariantViolation:
		return http.StatusBadRequest
	case CodeInvalidTransition, CodeConflict:
		return http.StatusConflict
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
