package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an engine failure by its effect.
type ErrorKind string

const (
	// ErrInvalidModel is an annotation parse failure or a violated
	// schema invariant. Fatal to the current command.
	ErrInvalidModel ErrorKind = "invalid_model"
	// ErrSchemaMismatch is a foreign-key validation failure against the
	// live database.
	ErrSchemaMismatch ErrorKind = "schema_mismatch"
	// ErrDatabaseUnavailable is a connection or authentication failure.
	ErrDatabaseUnavailable ErrorKind = "database_unavailable"
	// ErrStatementFailed is a driver error while executing an emitted
	// statement. Previously executed statements remain applied.
	ErrStatementFailed ErrorKind = "statement_failed"
	// ErrUserAborted means a confirmation was declined. Commands exit 0.
	ErrUserAborted ErrorKind = "user_aborted"
)

// Error is the tagged error the engine propagates. It carries the kind
// for exit-code decisions and wraps the underlying cause when one exists.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a tagged error with a formatted message.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError tags an underlying error with a kind and context message.
func WrapError(kind ErrorKind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the error kind, or "" when err is not a tagged error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err is a tagged error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// UserAborted is the sentinel returned when the user declines a
// confirmation prompt.
func UserAborted() *Error {
	return &Error{Kind: ErrUserAborted, Message: "aborted by user"}
}
