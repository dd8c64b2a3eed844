// Package apperr is the error taxonomy shared by the discourse components.
//
// Every failure that crosses a component boundary is an *Error with a Kind. The
// HTTP layer maps kinds to status codes and shows Message (already localized)
// to the user when it is set.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindInputValidation       Kind = "INPUT_VALIDATION"
	KindRemoteService         Kind = "REMOTE_SERVICE"
	KindInvalidResponseFormat Kind = "INVALID_RESPONSE_FORMAT"
	KindStorage               Kind = "STORAGE"
	// KindConflict marks requests that were superseded or rejected as no-ops.
	KindConflict Kind = "CONFLICT"
)

type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Op != "":
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// WithMessage returns a copy of err carrying a user-facing message.
func WithMessage(err error, message string) error {
	var appErr *Error
	if errors.As(err, &appErr) {
		cp := *appErr
		cp.Message = message
		return &cp
	}
	return &Error{Kind: "", Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in the chain, or "" when there is none.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// MessageOf returns the user-facing message, falling back to err.Error().
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return err.Error()
}
