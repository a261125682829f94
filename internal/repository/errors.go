package repository

import (
	"errors"
	"fmt"
)

// ErrProfileNotFound means the registry holds no profile yet. It is a normal
// terminal state, not a failure.
var ErrProfileNotFound = errors.New("profile not found")

// ErrProfileConflict means the profile changed between read and write. The
// caller may retry the submission.
var ErrProfileConflict = errors.New("profile was modified concurrently")

// TransportError reports that the registry could not be reached or answered
// with an unexpected status or body.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: unexpected status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
