package domain

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the response contract. Every operation exposed
// by the core reports failures as exactly one of these kinds; nothing else
// crosses the boundary.
type Kind string

const (
	KindValidation        Kind = "VALIDATION_ERROR"
	KindUnauthenticated   Kind = "UNAUTHENTICATED"
	KindForbidden         Kind = "FORBIDDEN"
	KindNotFound          Kind = "NOT_FOUND"
	KindConflict          Kind = "CONFLICT"
	KindInvalidTransition Kind = "INVALID_TRANSITION"
	KindFinalized         Kind = "FINALIZED"
	KindAccountLocked     Kind = "ACCOUNT_LOCKED"
	KindInviteInvalid     Kind = "INVITE_EXPIRED_OR_INVALID"
	KindInternal          Kind = "INTERNAL"
)

// Error is the tagged error carried across the core boundary.
type Error struct {
	Kind    Kind
	Message string

	// Fields holds field-level validation detail (KindValidation only).
	Fields map[string]string

	// RetryAfter is the remaining lockout duration in whole seconds
	// (KindAccountLocked only).
	RetryAfter int

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Is lets errors.Is match two domain errors by kind, so services can declare
// sentinel instances and handlers can still compare wrapped copies.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind && (t.Message == "" || t.Message == e.Message)
	}
	return false
}

// E builds a tagged error.
func E(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Validation builds a validation error with field-level detail.
func Validation(message string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

// Locked builds an AccountLocked error surfacing the exact remaining lockout.
func Locked(retryAfterSeconds int) *Error {
	return &Error{
		Kind:       KindAccountLocked,
		Message:    fmt.Sprintf("Account temporarily locked. Try again in %d seconds", retryAfterSeconds),
		RetryAfter: retryAfterSeconds,
	}
}

// Internal wraps an unexpected failure. The cause is kept for logs but the
// message shown to callers stays generic.
func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Message: "An unexpected error occurred. Please try again later", cause: cause}
}

// KindOf extracts the kind from any error. Errors that are not tagged are
// unexpected by definition and classify as Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// AsError returns the tagged form of err, wrapping untagged errors as Internal.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}
