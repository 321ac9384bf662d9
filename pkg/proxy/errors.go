package proxy

import (
	"errors"
	"fmt"

	"github.com/sextant-gg/sextant/pkg/discovery"
	"github.com/sextant-gg/sextant/pkg/proxy/types"
	"github.com/sextant-gg/sextant/pkg/relay"
)

// ErrNoPodID is the errors.Is target for requests without a pod identifier.
var ErrNoPodID = errors.New("no pod id in path")

// NoPodIDError is returned when the request path carries no pod identifier,
// so no routing attempt can be made.
type NoPodIDError struct {
	// Path is the request path that was inspected.
	Path string
}

// Error implements the error interface.
func (e *NoPodIDError) Error() string {
	return fmt.Sprintf("no pod id in path %q", e.Path)
}

// Is implements error matching for errors.Is().
func (e *NoPodIDError) Is(target error) bool {
	return target == ErrNoPodID
}

// NewNoPodIDError creates a new NoPodIDError.
func NewNoPodIDError(path string) *NoPodIDError {
	return &NoPodIDError{Path: path}
}

// HandleError converts routing and relay errors to the JSON error envelope
// and its HTTP status:
//
//	NoPodIDError              -> 400 (client sent an unroutable path)
//	discovery.NoCandidatesError -> 503 (backend pool empty or unresolvable)
//	discovery.PodNotFoundError  -> 504 (pool reachable, nobody claims the pod)
//	relay.RelayError            -> 502 (chosen backend failed)
//
// Anything else maps to a 500 without leaking internals. Callers pass the
// result straight to WriteErrorResponse.
func HandleError(err error) *types.ErrorResponse {
	var noPodErr *NoPodIDError
	if errors.As(err, &noPodErr) {
		return types.NewInvalidRequestError(
			"Request path carries no pod id. Address pods as /<podId>/...",
			"path",
			types.CodeNoPodID,
		)
	}

	var noCandErr *discovery.NoCandidatesError
	if errors.As(err, &noCandErr) {
		return types.NewServiceUnavailableError(
			fmt.Sprintf("No backend candidates available (%s). Try again later.", noCandErr.Reason),
		)
	}

	var notFoundErr *discovery.PodNotFoundError
	if errors.As(err, &notFoundErr) {
		return types.NewGatewayTimeoutError(
			fmt.Sprintf("No backend currently claims pod %q. The pod may still be starting.", notFoundErr.PodID),
		)
	}

	var relayErr *relay.RelayError
	if errors.As(err, &relayErr) {
		return types.NewBadGatewayError(
			fmt.Sprintf("Backend request failed during %s.", relayErr.Stage),
		)
	}

	return types.NewServerError(
		"The proxy hit an internal error. Try again later.",
	)
}
