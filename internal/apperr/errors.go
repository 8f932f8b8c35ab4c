package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error into the stable categories callers map to
// transport responses.
type Kind int

const (
	// KindInternal - unclassified failure (store outage, bug). Never shown verbatim.
	KindInternal Kind = iota

	// KindNotFound - the entity does not exist
	KindNotFound

	// KindForbidden - the actor is not allowed to perform the action
	KindForbidden

	// KindConflict - duplicate action (already a member, duplicate pending request)
	KindConflict

	// KindInvalidState - action not valid for the entity's lifecycle state
	KindInvalidState

	// KindInvalidRequest - malformed or semantically inconsistent input
	KindInvalidRequest
)

// String returns the machine-readable code for the kind
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindInvalidState:
		return "invalid_state"
	case KindInvalidRequest:
		return "invalid_request"
	default:
		return "internal"
	}
}

// Error is a classified application error
type Error struct {
	Kind    Kind
	Message string // Human-readable, safe to show to the client
	Cause   error  // Original error, logged only
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NotFound builds a KindNotFound error
func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Forbidden builds a KindForbidden error
func Forbidden(format string, args ...interface{}) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

// Conflict builds a KindConflict error
func Conflict(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// InvalidState builds a KindInvalidState error
func InvalidState(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

// InvalidRequest builds a KindInvalidRequest error
func InvalidRequest(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidRequest, Message: fmt.Sprintf(format, args...)}
}

// Internal wraps an unclassified error with a generic message
func Internal(cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindInternal, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf returns the classification of err, KindInternal when err carries none.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err is classified as kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
