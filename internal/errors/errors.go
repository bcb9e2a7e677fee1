// Package errors provides the domain errors the taxonomy API reports to clients.
//
// Services return them; the HTTP layer turns the Code into a status and an
// error envelope:
//
//	if !grant.Covers(code, slug) {
//	    return errors.Forbiddenf("no read grant for %s/%s", code, slug)
//	}
//
//	if errors.Is(err, errors.ErrForbidden) { ... }
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Is forwards to the standard library so callers need a single errors import.
var Is = errors.Is

// Code is the machine-readable error code sent to clients.
type Code string

// Error codes.
const (
	CodeNotFound     Code = "NOT_FOUND"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
	CodeValidation   Code = "VALIDATION"
	CodeConflict     Code = "CONFLICT"
	CodeRateLimited  Code = "RATE_LIMITED"
	CodeInternal     Code = "INTERNAL"
)

var codeStatus = map[Code]int{
	CodeNotFound:     http.StatusNotFound,
	CodeUnauthorized: http.StatusUnauthorized,
	CodeForbidden:    http.StatusForbidden,
	CodeValidation:   http.StatusBadRequest,
	CodeConflict:     http.StatusConflict,
	CodeRateLimited:  http.StatusTooManyRequests,
}

// HTTPStatus maps the code to a response status. Unknown codes are 500.
func (c Code) HTTPStatus() int {
	if status, ok := codeStatus[c]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Error is a domain error. Details, when set, is sent to the client as is.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches any *Error with the same code, so errors.Is(err, ErrForbidden)
// holds for every forbidden error whatever its message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// HTTPStatus returns the response status for the error's code.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// Sentinels for errors.Is.
var (
	ErrNotFound     = &Error{Code: CodeNotFound, Message: "not found"}
	ErrUnauthorized = &Error{Code: CodeUnauthorized, Message: "unauthorized"}
	ErrForbidden    = &Error{Code: CodeForbidden, Message: "forbidden"}
	ErrValidation   = &Error{Code: CodeValidation, Message: "validation error"}
)

func newf(code Code, format string, args []any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf reports a missing taxonomy or term.
func NotFoundf(format string, args ...any) *Error {
	return newf(CodeNotFound, format, args)
}

// Unauthorized reports a request that needs a valid token.
func Unauthorized(msg string) *Error {
	return &Error{Code: CodeUnauthorized, Message: msg}
}

// Forbidden reports a caller without the needed grant.
func Forbidden(msg string) *Error {
	return &Error{Code: CodeForbidden, Message: msg}
}

// Forbiddenf is Forbidden with a formatted message.
func Forbiddenf(format string, args ...any) *Error {
	return newf(CodeForbidden, format, args)
}

// Validationf reports malformed input.
func Validationf(format string, args ...any) *Error {
	return newf(CodeValidation, format, args)
}

// ValidationWithDetails reports malformed input with per-field details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}
