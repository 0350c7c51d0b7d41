// Package apperrors defines the structured errors returned by the query
// and mutation layer. Typed errors carry a user-displayable message;
// anything else is treated as an internal failure.
package apperrors

import (
	"errors"
	"net/http"
)

type Code string

const (
	CodeDuplicateName   Code = "DUPLICATE_NAME"
	CodeNotFound        Code = "NOT_FOUND"
	CodeUnauthorized    Code = "UNAUTHORIZED"
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeInternal        Code = "INTERNAL"
)

// HTTPStatus maps a code to the response status.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeDuplicateName:
		return http.StatusConflict
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusForbidden
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeInvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a machine-readable code.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches by code so callers can write errors.Is(err, apperrors.ErrNotFound).
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Sentinels for errors.Is checks.
var (
	ErrDuplicateName   = New(CodeDuplicateName, "duplicate name")
	ErrNotFound        = New(CodeNotFound, "not found")
	ErrUnauthorized    = New(CodeUnauthorized, "unauthorized")
	ErrUnauthenticated = New(CodeUnauthenticated, "unauthenticated")
	ErrInvalidArgument = New(CodeInvalidArgument, "invalid argument")
)

// User-facing messages.
const (
	MsgCommunityExists     = "Community already exists"
	MsgCommunityNotFound   = "Community not found"
	MsgPostNotFound        = "Post not found"
	MsgCommentNotFound     = "Comment not found"
	MsgUnauthorizedDelete  = "You can't delete this post"
	MsgUnauthorizedComment = "You can't delete this comment"
	MsgUnauthenticated     = "Sign in to continue"
	MsgInternal            = "Something went wrong, please try again"
)

// As extracts a domain error from err. Errors that are not domain errors
// come back as CodeInternal with the generic message.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Code: CodeInternal, Message: MsgInternal, Cause: err}
}
