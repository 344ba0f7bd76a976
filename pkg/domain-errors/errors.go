// Package domainerrors defines coded, caller-correctable errors returned by services.
//
// Services translate infrastructure facts (see pkg/platform/sentinel) into these
// codes; transports map codes to status codes without inspecting messages.
package domainerrors

import (
	"errors"
	"maps"
)

// Code identifies the kind of failure.
type Code string

const (
	CodeBadRequest                  Code = "bad_request"
	CodeValidation                  Code = "validation_failed"
	CodeInvalidInput                Code = "invalid_input"
	CodeNotFound                    Code = "not_found"
	CodeSchemeNotFound              Code = "scheme_not_found"
	CodeInvalidEligibilityInputs    Code = "invalid_eligibility_inputs"
	CodeApplicationIncomplete       Code = "application_incomplete"
	CodeApplicationAlreadySubmitted Code = "application_already_submitted"
	CodeSessionExpired              Code = "session_expired"
	CodeConflict                    Code = "conflict"
	CodeInvariantViolation          Code = "invariant_violation"
	CodeTimeout                     Code = "timeout"
	CodeInternal                    Code = "internal_error"
)

// Error carries a code, a caller-facing message and optional structured details.
type Error struct {
	Code    Code
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns an error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// WithDetail returns a copy of e with key set in its details.
func (e *Error) WithDetail(key string, value any) *Error {
	out := *e
	out.Details = make(map[string]any, len(e.Details)+1)
	maps.Copy(out.Details, e.Details)
	out.Details[key] = value
	return &out
}

// HasCode reports whether any error in err's chain carries code.
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// CodeOf returns the code of the first coded error in err's chain, or "" when none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// DetailsOf returns the details of the first coded error in err's chain.
func DetailsOf(err error) map[string]any {
	var de *Error
	if errors.As(err, &de) {
		return de.Details
	}
	return nil
}
