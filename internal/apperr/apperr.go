// Package apperr provides the error taxonomy shared by the tracker, its
// storage backends and the transports in front of them.
package apperr

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown marks any error that is not a domain error.
	CodeUnknown Code = "UNKNOWN"

	CodeValidation       Code = "VALIDATION"
	CodeNotFound         Code = "NOT_FOUND"
	CodeConflict         Code = "STATE_CONFLICT"
	CodeConversionFailed Code = "CONVERSION_FAILED"
)

// Error is a domain error carrying a code and a caller-facing message.
type Error struct {
	Code Code
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation reports rejected input. Nothing has been written.
func Validation(format string, args ...any) error {
	return &Error{Code: CodeValidation, Msg: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing or foreign entity, e.g. NotFound("exercise").
func NotFound(entity string) error {
	return &Error{Code: CodeNotFound, Msg: entity + " not found"}
}

// Conflict reports an operation the entity's current state does not allow.
func Conflict(format string, args ...any) error {
	return &Error{Code: CodeConflict, Msg: fmt.Sprintf(format, args...)}
}

// ConversionFailed reports an aborted unit conversion. Prior state is intact.
func ConversionFailed(err error) error {
	return &Error{Code: CodeConversionFailed, Msg: "unit conversion aborted", Err: err}
}

// GetCode extracts the error code from any error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// IsCode checks if the error has the specified code.
func IsCode(err error, code Code) bool {
	return GetCode(err) == code
}
