package discovery

import (
	"errors"
	"fmt"
	"strings"
)

// Common discovery errors that can be checked with errors.Is().
var (
	// ErrNoCandidates is returned when DNS yields no usable backend addresses.
	ErrNoCandidates = errors.New("no candidate addresses")

	// ErrPodNotFound is returned when no candidate claims the requested identity.
	ErrPodNotFound = errors.New("pod not found")
)

// Reasons a lookup can come back with no candidates.
const (
	// ReasonDNSError means both address family lookups failed.
	ReasonDNSError = "dns_error"

	// ReasonNoIPs means the lookups succeeded but the union was empty.
	ReasonNoIPs = "no_ips"
)

// NoCandidatesError is returned when enumerating the backend hostname
// produced no addresses to probe.
type NoCandidatesError struct {
	// Hostname is the backend hostname that was resolved.
	Hostname string

	// Reason is one of the Reason* constants.
	Reason string

	// Err is the underlying lookup error, if any.
	Err error
}

// Error implements the error interface.
func (e *NoCandidatesError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no candidate addresses for %q (%s): %v", e.Hostname, e.Reason, e.Err)
	}
	return fmt.Sprintf("no candidate addresses for %q (%s)", e.Hostname, e.Reason)
}

// Is implements error matching for errors.Is().
func (e *NoCandidatesError) Is(target error) bool {
	return target == ErrNoCandidates
}

// Unwrap returns the underlying lookup error.
func (e *NoCandidatesError) Unwrap() error {
	return e.Err
}

// NewNoCandidatesError creates a new NoCandidatesError.
func NewNoCandidatesError(hostname, reason string, err error) *NoCandidatesError {
	return &NoCandidatesError{
		Hostname: hostname,
		Reason:   reason,
		Err:      err,
	}
}

// PodNotFoundError is returned when every candidate was probed and none
// reported the requested pod identity.
type PodNotFoundError struct {
	// PodID is the identity that was looked up.
	PodID string

	// Candidates contains the probed addresses, as host:port.
	Candidates []string
}

// Error implements the error interface.
func (e *PodNotFoundError) Error() string {
	if len(e.Candidates) == 0 {
		return fmt.Sprintf("pod %q not found", e.PodID)
	}
	return fmt.Sprintf("pod %q not found among %d candidates (probed: %s)",
		e.PodID, len(e.Candidates), strings.Join(e.Candidates, ", "))
}

// Is implements error matching for errors.Is().
func (e *PodNotFoundError) Is(target error) bool {
	return target == ErrPodNotFound
}

// NewPodNotFoundError creates a new PodNotFoundError.
func NewPodNotFoundError(podID string, candidates []string) *PodNotFoundError {
	return &PodNotFoundError{
		PodID:      podID,
		Candidates: candidates,
	}
}
