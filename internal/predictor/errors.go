package predictor

import (
	"errors"
	"fmt"
)

// tooBusyError signals queue timeout/overflow for 429 mapping.
type tooBusyError struct{ reason string }

func (e tooBusyError) Error() string { return "too busy: " + e.reason }

// ErrTooBusy constructs a backpressure error.
func ErrTooBusy(reason string) error { return tooBusyError{reason: reason} }

// IsTooBusy reports whether err indicates backpressure (return 429).
func IsTooBusy(err error) bool {
	var e tooBusyError
	return errors.As(err, &e)
}

// invalidInputError names the offending input field.
type invalidInputError struct {
	field string
	msg   string
}

func (e invalidInputError) Error() string { return fmt.Sprintf("invalid %s: %s", e.field, e.msg) }

// Field returns the name of the rejected input field.
func (e invalidInputError) Field() string { return e.field }

// ErrInvalidInput constructs an error for an out-of-range or malformed field.
func ErrInvalidInput(field, msg string) error { return invalidInputError{field: field, msg: msg} }

// IsInvalidInput reports whether err is an input validation failure.
func IsInvalidInput(err error) bool {
	var e invalidInputError
	return errors.As(err, &e)
}

// notReadyError is returned while the model is not loaded.
type notReadyError struct {
	state State
	cause string
}

func (e notReadyError) Error() string {
	if e.cause != "" {
		return fmt.Sprintf("predictor not ready (%s): %s", e.state, e.cause)
	}
	return fmt.Sprintf("predictor not ready (%s)", e.state)
}

// ErrNotReady constructs an error for a predictor in state s.
func ErrNotReady(s State, cause string) error { return notReadyError{state: s, cause: cause} }

// IsNotReady reports whether err indicates the model is not loaded yet (or failed to load).
func IsNotReady(err error) bool {
	var e notReadyError
	return errors.As(err, &e)
}
