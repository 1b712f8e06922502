package lifecycle

import (
	"errors"
	"fmt"
)

// ErrorClass classifies a lifecycle failure for callers that need to
// react programmatically (exit codes, retry guidance).
type ErrorClass string

const (
	// ClassPrecondition means the host is in the wrong state for the
	// requested operation. Raised before any mutation.
	ClassPrecondition ErrorClass = "precondition"

	// ClassValidation means the request itself is malformed. Raised
	// before any mutation.
	ClassValidation ErrorClass = "validation"

	// ClassCommand means a delegated native tool exited non-zero
	// after exhausting any configured retries.
	ClassCommand ErrorClass = "command"

	// ClassPatch means a config document pattern did not match.
	ClassPatch ErrorClass = "patch"

	// ClassResource means a required artifact could not be found
	// locally or remotely.
	ClassResource ErrorClass = "resource"

	// ClassCleanup means uninstall cleanup partially failed; cleanup
	// continued and the failure is reported at the end.
	ClassCleanup ErrorClass = "cleanup"
)

// Error is a classified lifecycle error.
type Error struct {
	Class     ErrorClass
	Message   string
	Operation string
	Err       error
}

func (e *Error) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("[%s] %s (operation=%s)%s", e.Class, e.Message, e.Operation, e.unwrapSuffix())
	}
	return fmt.Sprintf("[%s] %s%s", e.Class, e.Message, e.unwrapSuffix())
}

func (e *Error) unwrapSuffix() string {
	if e.Err != nil {
		return ": " + e.Err.Error()
	}
	return ""
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithOperation tags the error with the operation it aborted.
func (e *Error) WithOperation(operation string) *Error {
	e.Operation = operation
	return e
}

// NewPreconditionError reports a wrong-state request.
func NewPreconditionError(message string) *Error {
	return &Error{Class: ClassPrecondition, Message: message}
}

// NewValidationError reports a malformed request.
func NewValidationError(message string, err error) *Error {
	return &Error{Class: ClassValidation, Message: message, Err: err}
}

// NewCommandError wraps a failed native command.
func NewCommandError(message string, err error) *Error {
	return &Error{Class: ClassCommand, Message: message, Err: err}
}

// NewPatchError wraps a config patch miss.
func NewPatchError(message string, err error) *Error {
	return &Error{Class: ClassPatch, Message: message, Err: err}
}

// NewResourceError wraps a missing artifact.
func NewResourceError(message string, err error) *Error {
	return &Error{Class: ClassResource, Message: message, Err: err}
}

func isClass(err error, class ErrorClass) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Class == class
	}
	return false
}

// IsPrecondition reports whether err is a precondition violation.
func IsPrecondition(err error) bool { return isClass(err, ClassPrecondition) }

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return isClass(err, ClassValidation) }

// IsCommand reports whether err is a failed native command.
func IsCommand(err error) bool { return isClass(err, ClassCommand) }

// IsPatch reports whether err is a config patch miss.
func IsPatch(err error) bool { return isClass(err, ClassPatch) }

// IsResource reports whether err is a missing artifact.
func IsResource(err error) bool { return isClass(err, ClassResource) }
