package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches on code so cloned errors still compare equal to their template.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

var (
	ErrInvalidCredentials  = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid credentials")
	ErrInactiveAccount     = New("ACCOUNT_INACTIVE", http.StatusForbidden, "account is inactive")
	ErrNotFound            = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden           = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized        = New("UNAUTHENTICATED", http.StatusUnauthorized, "unauthenticated")
	ErrConflict            = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation          = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrUpstreamUnavailable = New("UPSTREAM_UNAVAILABLE", http.StatusBadGateway, "upstream unavailable")
	ErrTooManyAttempts     = New("TOO_MANY_ATTEMPTS", http.StatusTooManyRequests, "too many attempts")
	ErrInternal            = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")

	// Portal access code outcomes.
	ErrNoCode      = New("NO_CODE", http.StatusUnauthorized, "no active access code")
	ErrInvalidCode = New("INVALID_CODE", http.StatusUnauthorized, "invalid access code")
)

// ErrCacheMiss is returned by cache lookups when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// CodeOf reports the domain code carried by err, or INTERNAL_ERROR.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	return FromError(err).Code
}
