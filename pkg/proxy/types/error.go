package types

import "net/http"

// ErrorResponse is the JSON envelope returned for every error condition,
// so clients and fleet tooling can parse failures uniformly.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail names what went wrong. Type selects the HTTP status,
// Code pins down the routing scenario for machines, Message is for
// humans reading logs.
type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Param   string `json:"param,omitempty"` // request element at fault, when one exists
	Code    string `json:"code,omitempty"`
}

// Wire values for ErrorDetail.Type.
const (
	ErrorTypeInvalidRequest     = "invalid_request_error" // request cannot be routed as sent (400)
	ErrorTypeServerError        = "server_error"          // proxy-internal failure (500)
	ErrorTypeBadGateway         = "bad_gateway"           // chosen pod failed mid-relay (502)
	ErrorTypeServiceUnavailable = "service_unavailable"   // discovery produced nothing to probe (503)
	ErrorTypeGatewayTimeout     = "gateway_timeout"       // candidates probed, nobody claimed the pod (504)
)

// Wire values for ErrorDetail.Code, one per routing failure scenario.
const (
	CodeNoPodID       = "no_pod_id"
	CodeNoCandidates  = "no_candidates"
	CodePodNotFound   = "pod_not_found"
	CodeRelayFailed   = "relay_failed"
	CodeInternalError = "internal_error"
)

var statusByType = map[string]int{
	ErrorTypeInvalidRequest:     http.StatusBadRequest,
	ErrorTypeServerError:        http.StatusInternalServerError,
	ErrorTypeBadGateway:         http.StatusBadGateway,
	ErrorTypeServiceUnavailable: http.StatusServiceUnavailable,
	ErrorTypeGatewayTimeout:     http.StatusGatewayTimeout,
}

// HTTPStatusCode maps the error type onto a status code. Unknown types
// rate a 500 rather than leaking through as 200.
func (e *ErrorDetail) HTTPStatusCode() int {
	if status, ok := statusByType[e.Type]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// NewErrorResponse assembles an envelope from its parts. The typed
// constructors below cover the common cases.
func NewErrorResponse(message, errorType, param, code string) *ErrorResponse {
	detail := ErrorDetail{Message: message, Type: errorType, Param: param, Code: code}
	return &ErrorResponse{Error: detail}
}

// NewInvalidRequestError reports a request the proxy refuses to route (400).
func NewInvalidRequestError(message, param, code string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeInvalidRequest, param, code)
}

// NewServerError reports an internal proxy failure (500).
func NewServerError(message string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeServerError, "", CodeInternalError)
}

// NewBadGatewayError reports a relay that failed against its pod (502).
func NewBadGatewayError(message string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeBadGateway, "", CodeRelayFailed)
}

// NewServiceUnavailableError reports an empty or unreachable backend
// pool (503).
func NewServiceUnavailableError(message string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeServiceUnavailable, "", CodeNoCandidates)
}

// NewGatewayTimeoutError reports a pod no probed candidate claims (504).
func NewGatewayTimeoutError(message string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeGatewayTimeout, "", CodePodNotFound)
}
