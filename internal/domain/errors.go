package domain

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes operation failures for callers and HTTP mapping.
type ErrorCode string

const (
	// ErrCodeValidation indicates malformed or missing input; never retried.
	ErrCodeValidation ErrorCode = "VALIDATION"

	// ErrCodeConflict indicates an invariant violation under concurrent
	// access (double pay, double cash-in). The caller must re-fetch state.
	ErrCodeConflict ErrorCode = "CONFLICT"

	// ErrCodeNotFound indicates the referenced order/table/shift does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeInfra indicates a storage or broadcast failure.
	ErrCodeInfra ErrorCode = "INFRA"
)

// Error is the coded failure returned by every core operation.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func Validationf(format string, args ...any) *Error {
	return &Error{Code: ErrCodeValidation, Message: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) *Error {
	return &Error{Code: ErrCodeConflict, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: ErrCodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func Infra(msg string, err error) *Error {
	return &Error{Code: ErrCodeInfra, Message: msg, Err: err}
}

// CodeOf extracts the error code, defaulting to INFRA for uncoded errors.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInfra
}

func IsValidation(err error) bool { return CodeOf(err) == ErrCodeValidation }
func IsConflict(err error) bool   { return CodeOf(err) == ErrCodeConflict }
func IsNotFound(err error) bool   { return CodeOf(err) == ErrCodeNotFound }
