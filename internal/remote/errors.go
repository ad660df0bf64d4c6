package remote

import (
	"errors"
	"fmt"
)

// ErrTrackNotFound is returned by GetTrack when the track does not exist
// on the remote library.
var ErrTrackNotFound = errors.New("track not found")

// TransportError wraps any failure to talk to the remote service:
// network faults, bad status codes, unparsable responses. It is never an
// assertion mismatch, so Eventually propagates it without retrying.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport fault: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err is a transport fault.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

func transportErr(op string, err error) error {
	return &TransportError{Op: op, Err: err}
}

func transportErrf(op, format string, args ...any) error {
	return &TransportError{Op: op, Err: fmt.Errorf(format, args...)}
}
