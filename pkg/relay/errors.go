package relay

import (
	"errors"
	"fmt"
)

// ErrRelayFailed is the errors.Is target for every relay failure.
var ErrRelayFailed = errors.New("relay failed")

// Stages at which a relay can fail.
const (
	// StageDial means the backend connection could not be established.
	StageDial = "dial"

	// StageUpgrade means the client-side WebSocket handshake failed.
	StageUpgrade = "upgrade"

	// StageRoundTrip means the backend request failed after connecting.
	StageRoundTrip = "roundtrip"

	// StageCopy means the session broke while bytes were in flight.
	StageCopy = "copy"
)

// RelayError is returned when forwarding to a chosen backend fails.
type RelayError struct {
	// Target is the backend address the relay was forwarding to.
	Target string

	// Stage is one of the Stage* constants.
	Stage string

	// Err is the underlying failure.
	Err error
}

// Error implements the error interface.
func (e *RelayError) Error() string {
	return fmt.Sprintf("relay to %s failed during %s: %v", e.Target, e.Stage, e.Err)
}

// Is implements error matching for errors.Is().
func (e *RelayError) Is(target error) bool {
	return target == ErrRelayFailed
}

// Unwrap returns the underlying failure.
func (e *RelayError) Unwrap() error {
	return e.Err
}

// NewRelayError creates a new RelayError.
func NewRelayError(target, stage string, err error) *RelayError {
	return &RelayError{
		Target: target,
		Stage:  stage,
		Err:    err,
	}
}
