// Package domainerrors defines coded errors shared by services and transport.
//
// Services return *Error values; the HTTP boundary maps Code to a status.
// Stores should not return these directly, they return pkg/platform/sentinel
// errors that services translate.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies an error for callers. Values are stable and appear in API responses.
type Code string

const (
	CodeNotFound           Code = "not_found"
	CodeInvalidReference   Code = "invalid_reference"
	CodeConflict           Code = "conflict"
	CodeValidation         Code = "validation_error"
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeUnavailable        Code = "unavailable"
	CodeTimeout            Code = "timeout"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeInvariantViolation Code = "invariant_violation"
	CodeInternal           Code = "internal_error"
)

// Error is a domain error with a code and a human readable message.
type Error struct {
	Code    Code
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

// New creates a domain error without a cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf returns the code of the outermost domain error in the chain,
// or CodeInternal when there is none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether any domain error in the chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// Is reports whether the outermost domain error in the chain has code.
func Is(err error, code Code) bool {
	var de *Error
	return errors.As(err, &de) && de.Code == code
}
