package store

import (
	"fmt"
	"net/http"
)

// Error is a store error with an HTTP status code.
type Error struct {
	Code    int    // HTTP status code
	Message string // User-facing message
	Err     error  // Underlying error (optional)
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPCode returns the HTTP status code associated with this error.
func (e *Error) HTTPCode() int { return e.Code }

// WithMessage returns a new error with a custom message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{
		Code:    e.Code,
		Message: msg,
		Err:     e.Err,
	}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// Base sentinels carrying the HTTP status for their error class.
var (
	ErrNotFound = &Error{
		Code:    http.StatusNotFound,
		Message: "resource not found",
	}

	ErrAlreadyExists = &Error{
		Code:    http.StatusConflict,
		Message: "resource already exists",
	}

	ErrUnauthorized = &Error{
		Code:    http.StatusUnauthorized,
		Message: "unauthorized",
	}
)

// Per-record sentinels, for use with errors.Is(). Each carries the HTTP
// code of its base class.
var (
	ErrBookNotFound    = ErrNotFound.WithMessage("book not found")
	ErrBookExists      = ErrAlreadyExists.WithMessage("book already exists")
	ErrCommentNotFound = ErrNotFound.WithMessage("comment not found")
	ErrUserNotFound    = ErrNotFound.WithMessage("user not found")
	ErrUserExists      = ErrAlreadyExists.WithMessage("user already exists")
	ErrRoleNotFound    = ErrNotFound.WithMessage("role entry not found")
	ErrSessionNotFound = ErrNotFound.WithMessage("session not found")
	ErrSessionExpired  = ErrUnauthorized.WithMessage("session expired")
)
