package proxy

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sextant-gg/sextant/pkg/proxy/types"
)

// WriteJSONResponse writes status and a JSON-encoded body. Headers must
// still be unwritten when it is called, or the Content-Type it sets is
// lost.
func WriteJSONResponse(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("encode response body: %w", err)
	}
	return nil
}

// WriteErrorResponse renders an error envelope, taking the status code
// from the error's classification.
func WriteErrorResponse(w http.ResponseWriter, errResp *types.ErrorResponse) error {
	return WriteJSONResponse(w, errResp.Error.HTTPStatusCode(), errResp)
}
