// Package apperr defines the request-scoped error taxonomy shared by all
// services. Every error is terminal for the request that produced it.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	// KindInternal covers store and other unexpected failures; surfaced as a
	// generic 500 and logged server-side.
	KindInternal Kind = iota
	// KindValidation means malformed or missing input.
	KindValidation
	// KindUnauthorized means the bearer credential is absent, invalid or expired.
	KindUnauthorized
	// KindForbidden means a role or ownership predicate failed.
	KindForbidden
	// KindNotFound means the resource is absent or not visible to the caller.
	// The two cases are deliberately indistinguishable.
	KindNotFound
	// KindDecode means a QR token payload could not be parsed.
	KindDecode
	// KindConflict means a uniqueness rule was violated (duplicate subject
	// code, subject still referenced by sessions).
	KindConflict
)

// Error carries a kind, a client-safe message and an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap exposes the cause for errors.Is/As chains.
func (e *Error) Unwrap() error { return e.cause }

// New builds an error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf builds an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause while keeping the client-safe message.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, cause: cause}
}

func Validation(msg string) *Error   { return New(KindValidation, msg) }
func Unauthorized(msg string) *Error { return New(KindUnauthorized, msg) }
func Forbidden(msg string) *Error    { return New(KindForbidden, msg) }
func NotFound(msg string) *Error     { return New(KindNotFound, msg) }
func Decode(msg string) *Error       { return New(KindDecode, msg) }
func Conflict(msg string) *Error     { return New(KindConflict, msg) }

// Internal wraps a store or other unexpected failure.
func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error", cause: cause}
}

// KindOf returns the kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// ClientMessage returns the message safe to show a caller. Internal causes
// are never exposed.
func ClientMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "internal error"
}
