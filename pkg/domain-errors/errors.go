// Package dErrors defines the coded error vocabulary surfaced to callers.
//
// Stores and adapters return sentinel errors (pkg/platform/sentinel) describing
// infrastructure facts; services translate those into coded domain errors that
// callers branch on. Validation failures are always returned as values, never
// panicked, and are not retried — they are not transient.
package dErrors

import (
	"errors"
	"net/http"
)

// Code is a machine-readable error classification.
type Code string

const (
	// Generic codes shared across modules.
	CodeValidation Code = "validation"
	CodeBadRequest Code = "bad_request"
	CodeNotFound   Code = "not_found"
	CodeConflict   Code = "conflict"
	CodeInternal   Code = "internal"

	// Matching codes. Each maps to one failure mode of the registry contract.
	CodeAlreadyInGroup     Code = "already_in_group"
	CodeTargetInGroup      Code = "target_in_group"
	CodeDuplicateInvite    Code = "duplicate_invite"
	CodeInviteNotFound     Code = "invite_not_found"
	CodeAlreadyResponded   Code = "already_responded"
	CodeNotInGroup         Code = "not_in_group"
	CodeGroupNotFound      Code = "group_not_found"
	CodePersistenceFailure Code = "persistence_failure"
)

// Error carries a code, a caller-facing message, and an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes the cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error with no cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a coded error around an underlying cause.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	for errors.As(err, &e) {
		if e.Code == code {
			return true
		}
		err = e.Err
		e = nil
	}
	return false
}

// Is is a readability alias for HasCode used at call sites that branch on a
// single code.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the outermost code carried by err, or CodeInternal when err
// is not a coded error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to the status the HTTP adapter responds with.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound, CodeInviteNotFound, CodeGroupNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeAlreadyInGroup, CodeTargetInGroup,
		CodeDuplicateInvite, CodeAlreadyResponded, CodeNotInGroup:
		return http.StatusConflict
	case CodePersistenceFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
