package domain

import "errors"

var (
	ErrNotFound     = errors.New("requested resource not found")
	ErrForbidden    = errors.New("action not permitted for this account")
	ErrUnauthorized = errors.New("user is not a party to this resource")
	ErrConflict     = errors.New("resource is not in a state that allows this action")
	ErrValidation   = errors.New("invalid input")
	ErrDependency   = errors.New("downstream operation failed")
)

// Error carries a user-facing message and one of the kinds above.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Err }

func NotFound(msg string) error     { return &Error{Kind: ErrNotFound, Message: msg} }
func Forbidden(msg string) error    { return &Error{Kind: ErrForbidden, Message: msg} }
func Unauthorized(msg string) error { return &Error{Kind: ErrUnauthorized, Message: msg} }
func Conflict(msg string) error     { return &Error{Kind: ErrConflict, Message: msg} }
func Validation(msg string) error   { return &Error{Kind: ErrValidation, Message: msg} }

// Dependency wraps a failure that happened after earlier steps of an operation ran.
func Dependency(msg string, err error) error {
	return &Error{Kind: ErrDependency, Message: msg, Err: err}
}

// Message returns the human-readable part of err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
