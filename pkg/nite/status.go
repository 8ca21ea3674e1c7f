package nite

import (
	"errors"
	"fmt"
)

// Status is the closed set of outcomes an engine call can report
type Status int

const (
	StatusOK Status = iota
	StatusFailed
	StatusBadUserID
	StatusOutOfFlow
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusFailed:
		return "ERROR"
	case StatusBadUserID:
		return "BAD_USER_ID"
	case StatusOutOfFlow:
		return "OUT_OF_FLOW"
	default:
		return fmt.Sprintf("STATUS(%d)", int(s))
	}
}

// StatusError is the failure side of an engine call. A successful call
// returns a nil error, never a StatusError carrying StatusOK.
type StatusError struct {
	Op     string
	Status Status
	Err    error
}

func (e *StatusError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Status)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// Fail builds the error for a failed engine call. StatusOK yields nil.
func Fail(op string, status Status) error {
	if status == StatusOK {
		return nil
	}
	return &StatusError{Op: op, Status: status}
}

// StatusOf recovers the engine status carried by err. A nil error is
// StatusOK and any other error without a status is StatusFailed.
func StatusOf(err error) Status {
	if err == nil {
		return StatusOK
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return StatusFailed
}
