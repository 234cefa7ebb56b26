// Package apierror defines the single error type that crosses the
// dispatcher boundary (spec.md §7): every handler returns either a
// success payload or an ApiError, never a raw Go error.
package apierror

import "github.com/pkg/errors"

// ApiError is the wire-visible error shape: { "message": string }.
type ApiError struct {
	Message string `json:"message"`
	cause   error
}

func (e *ApiError) Error() string { return e.Message }

// Unwrap exposes the wrapped cause, if any, to errors.Is/As.
func (e *ApiError) Unwrap() error { return e.cause }

// New builds an ApiError whose message matches one of spec.md §6's
// prefix forms directly (no wrapped cause).
func New(message string) *ApiError {
	return &ApiError{Message: message}
}

// Newf formats a message the same way fmt.Sprintf would, via
// pkg/errors' Errorf so callers get a stack trace on the wrapped cause.
func Newf(format string, args ...interface{}) *ApiError {
	err := errors.Errorf(format, args...)
	return &ApiError{Message: err.Error(), cause: err}
}

// Wrap attaches message as context ahead of an internal error's text,
// keeping the original error reachable via Unwrap for logging while the
// wire-visible Message stays a flat string per spec.md §6.
func Wrap(err error, message string) *ApiError {
	if err == nil {
		return New(message)
	}
	wrapped := errors.Wrap(err, message)
	return &ApiError{Message: wrapped.Error(), cause: wrapped}
}

// InvalidCoordinates formats spec.md §6's "Invalid coordinates (x, y)"
// error kind.
func InvalidCoordinates(x, y int) *ApiError {
	return Newf("Invalid coordinates (%d, %d)", x, y)
}

// InvalidMaterial formats spec.md §6's "Invalid material type: <name>".
func InvalidMaterial(name string) *ApiError {
	return Newf("Invalid material type: %s", name)
}

// UnknownCommand formats spec.md §6's "Unknown command: <name>".
func UnknownCommand(name string) *ApiError {
	return Newf("Unknown command: %s", name)
}

// FieldConstraint formats spec.md §6's "'<field>' must be ..." family.
func FieldConstraint(field, constraint string) *ApiError {
	return Newf("'%s' must be %s", field, constraint)
}
