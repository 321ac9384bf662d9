package proxy

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/sextant-gg/sextant/pkg/discovery"
	"github.com/sextant-gg/sextant/pkg/proxy/types"
	"github.com/sextant-gg/sextant/pkg/relay"
)

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantCode   string
		wantInBody string
	}{
		{
			name:       "missing pod id",
			err:        NewNoPodIDError("/"),
			wantStatus: 400,
			wantType:   types.ErrorTypeInvalidRequest,
			wantCode:   types.CodeNoPodID,
			wantInBody: "no pod id",
		},
		{
			name:       "no candidates from dns failure",
			err:        discovery.NewNoCandidatesError("pods.internal", discovery.ReasonDNSError, errors.New("lookup timed out")),
			wantStatus: 503,
			wantType:   types.ErrorTypeServiceUnavailable,
			wantCode:   types.CodeNoCandidates,
			wantInBody: "dns_error",
		},
		{
			name:       "no candidates from empty answer",
			err:        discovery.NewNoCandidatesError("pods.internal", discovery.ReasonNoIPs, nil),
			wantStatus: 503,
			wantType:   types.ErrorTypeServiceUnavailable,
			wantCode:   types.CodeNoCandidates,
			wantInBody: "no_ips",
		},
		{
			name:       "pod not found",
			err:        discovery.NewPodNotFoundError("alpha", []string{"10.0.0.5:7777"}),
			wantStatus: 504,
			wantType:   types.ErrorTypeGatewayTimeout,
			wantCode:   types.CodePodNotFound,
			wantInBody: `pod "alpha"`,
		},
		{
			name:       "relay failure",
			err:        relay.NewRelayError("10.0.0.5:7777", relay.StageRoundTrip, errors.New("connection reset")),
			wantStatus: 502,
			wantType:   types.ErrorTypeBadGateway,
			wantCode:   types.CodeRelayFailed,
			wantInBody: relay.StageRoundTrip,
		},
		{
			name:       "wrapped errors still match",
			err:        fmt.Errorf("routing request: %w", discovery.NewPodNotFoundError("beta", nil)),
			wantStatus: 504,
			wantType:   types.ErrorTypeGatewayTimeout,
			wantCode:   types.CodePodNotFound,
			wantInBody: `pod "beta"`,
		},
		{
			name:       "unknown error",
			err:        errors.New("surprise"),
			wantStatus: 500,
			wantType:   types.ErrorTypeServerError,
			wantCode:   types.CodeInternalError,
			wantInBody: "internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errResp := HandleError(tt.err)

			if errResp == nil {
				t.Fatal("HandleError returned nil")
			}
			if got := errResp.Error.HTTPStatusCode(); got != tt.wantStatus {
				t.Errorf("Status = %d, want %d", got, tt.wantStatus)
			}
			if errResp.Error.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", errResp.Error.Type, tt.wantType)
			}
			if errResp.Error.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", errResp.Error.Code, tt.wantCode)
			}
			if !strings.Contains(strings.ToLower(errResp.Error.Message), strings.ToLower(tt.wantInBody)) {
				t.Errorf("Message %q does not mention %q", errResp.Error.Message, tt.wantInBody)
			}
		})
	}
}

func TestHandleError_NeverLeaksInternalDetail(t *testing.T) {
	// Unknown errors often carry file paths or connection strings; none of
	// that belongs in a client-facing body.
	err := errors.New("dial tcp 10.0.0.5:5432: connect: connection refused (password=hunter2)")

	errResp := HandleError(err)

	if strings.Contains(errResp.Error.Message, "hunter2") {
		t.Errorf("Message leaked internal details: %q", errResp.Error.Message)
	}
	if strings.Contains(errResp.Error.Message, "10.0.0.5") {
		t.Errorf("Message leaked internal address: %q", errResp.Error.Message)
	}
}

func TestNoPodIDError(t *testing.T) {
	err := NewNoPodIDError("//")

	if !errors.Is(err, ErrNoPodID) {
		t.Error("Expected errors.Is match on ErrNoPodID")
	}
	if !strings.Contains(err.Error(), `"//"`) {
		t.Errorf("Error string should carry the path: %s", err.Error())
	}
}
