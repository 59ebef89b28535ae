package service

import (
	"errors"
	"fmt"
	"time"
)

// Code is a stable machine-readable error code returned to API clients.
type Code string

const (
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeContentValidation Code = "CONTENT_VALIDATION_ERROR"
	CodeRateLimited       Code = "RATE_LIMIT_EXCEEDED"
	CodeDuplicateVote     Code = "DUPLICATE_VOTE"
	CodeNotFound          Code = "NOT_FOUND"
	CodeContentHidden     Code = "CONTENT_HIDDEN"
	CodeUnauthorized      Code = "UNAUTHORIZED"
	CodeDatabase          Code = "DATABASE_ERROR"
	CodeUnexpected        Code = "UNEXPECTED_ERROR"
)

// Error is a domain error safe to show to clients. Cause is kept for logs only.
type Error struct {
	Code       Code
	Message    string
	RetryAfter time.Duration
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Retryable reports whether the caller may repeat the request unchanged later.
func (e *Error) Retryable() bool {
	return e.Code == CodeRateLimited
}

// CodeOf returns the code of a service error anywhere in err's chain, or ""
// for any other error.
func CodeOf(err error) Code {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

func validationError(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

func contentError(reason string) *Error {
	return &Error{Code: CodeContentValidation, Message: reason}
}

func rateLimitedError(action string, retryAfter time.Duration) *Error {
	secs := int(retryAfter / time.Second)
	return &Error{
		Code:       CodeRateLimited,
		Message:    fmt.Sprintf("Too many %s requests. Try again in %d seconds.", action, secs),
		RetryAfter: retryAfter,
	}
}

func notFoundError(what string) *Error {
	return &Error{Code: CodeNotFound, Message: what + " not found"}
}

func databaseError(cause error) *Error {
	return &Error{Code: CodeDatabase, Message: "A database error occurred. Please try again.", Cause: cause}
}

func unexpectedError(cause error) *Error {
	return &Error{Code: CodeUnexpected, Message: "An unexpected error occurred.", Cause: cause}
}
