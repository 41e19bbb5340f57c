package prediction

import (
	"errors"
	"fmt"
)

// Kind is a machine-readable category for a failed prediction call.
type Kind string

const (
	// KindExecutionFailure means the process could not start or exited non-zero.
	KindExecutionFailure Kind = "execution_failure"
	// KindMalformedResponse means the process exited cleanly but stdout was not one JSON value.
	KindMalformedResponse Kind = "malformed_response"
	// KindTimeout means the per-call deadline expired and the process was killed.
	KindTimeout Kind = "timeout"
	// KindCanceled means the caller's context ended first.
	KindCanceled Kind = "canceled"
	// KindUnavailable means the circuit breaker rejected the call without spawning.
	KindUnavailable Kind = "unavailable"
	// KindInvalidRequest means the request was rejected before spawning.
	KindInvalidRequest Kind = "invalid_request"
)

// Error is returned by every Predictor failure.
type Error struct {
	Kind    Kind
	Command string
	Detail  string
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("prediction %s: %s", e.Command, e.Kind)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or "" when err is not a prediction error.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

func newError(kind Kind, command, detail string, err error) *Error {
	return &Error{Kind: kind, Command: command, Detail: detail, Err: err}
}
