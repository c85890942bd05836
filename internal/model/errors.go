package model

import (
	"errors"
	"fmt"
)

// ErrorCode classifies failures so callers can react to them and so the CLI
// can translate them into process exit codes.
type ErrorCode int

const (
	// CodeOK indicates the operation completed successfully.
	CodeOK ErrorCode = 0

	// CodeGeneral indicates an unclassified error.
	CodeGeneral ErrorCode = 1

	// CodeInvalidArgument indicates a required input was blank or malformed.
	CodeInvalidArgument ErrorCode = 2

	// CodePathConflict indicates the target workspace directory already exists.
	CodePathConflict ErrorCode = 3

	// CodeBaseRefUnresolvable indicates no usable fork point could be
	// determined from the project settings and the repository.
	CodeBaseRefUnresolvable ErrorCode = 4

	// CodeFetchFailed indicates the base ref (and any fallback) could not be fetched.
	CodeFetchFailed ErrorCode = 5

	// CodeCommandFailed indicates an external tool exited non-zero.
	CodeCommandFailed ErrorCode = 6

	// CodeDirectoryNotCreated indicates `git worktree add` succeeded but the
	// directory is missing afterwards.
	CodeDirectoryNotCreated ErrorCode = 7

	// CodeRemovalFailed indicates the workspace directory could not be
	// deleted, even after granting write permission.
	CodeRemovalFailed ErrorCode = 8

	// CodeNotFound indicates the workspace or project is not known.
	CodeNotFound ErrorCode = 9

	// CodeCancelled indicates the user declined a confirmation prompt.
	CodeCancelled ErrorCode = 10
)

// String returns a short name for the code.
func (c ErrorCode) String() string {
	switch c {
	case CodeOK:
		return "ok"
	case CodeInvalidArgument:
		return "invalid_argument"
	case CodePathConflict:
		return "path_conflict"
	case CodeBaseRefUnresolvable:
		return "base_ref_unresolvable"
	case CodeFetchFailed:
		return "fetch_failed"
	case CodeCommandFailed:
		return "command_failed"
	case CodeDirectoryNotCreated:
		return "directory_not_created"
	case CodeRemovalFailed:
		return "removal_failed"
	case CodeNotFound:
		return "not_found"
	case CodeCancelled:
		return "cancelled"
	default:
		return "general"
	}
}

// Error is the error type returned by every lifecycle operation.
type Error struct {
	// Code classifies the failure.
	Code ErrorCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the message, followed by
// the underlying error when one is wrapped. An empty message yields the
// underlying error text alone.
func (e *Error) Error() string {
	if e.Message == "" && e.Err != nil {
		return e.Err.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Errorf creates a new Error with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapError creates a new Error that wraps an existing error.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Classify attaches code to err, keeping err's own text as the message.
// An err that already carries a code is returned unchanged.
func Classify(code ErrorCode, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Code: code, Err: err}
}

// CodeOf returns the code of the outermost *Error in err's chain.
// nil yields CodeOK and foreign errors yield CodeGeneral.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return CodeOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeGeneral
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
