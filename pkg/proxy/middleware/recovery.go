package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/sextant-gg/sextant/pkg/proxy/types"
)

// Recovery middleware recovers from panics and returns a 500 error.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					// http.ErrAbortHandler is how ReverseProxy abandons a
					// half-written response. The server handles it quietly,
					// so re-raise it rather than logging it as a crash.
					if err == http.ErrAbortHandler {
						panic(err)
					}

					logger.ErrorContext(r.Context(), "panic recovered",
						"error", err,
						"path", r.URL.Path,
						"method", r.Method,
						"request_id", GetRequestID(r.Context()),
						"stack", string(debug.Stack()),
					)

					errResp := types.NewServerError("Internal server error")
					writeJSONError(w, errResp)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// writeJSONError writes an error response as JSON. Kept local so the
// middleware package does not depend on the proxy package.
func writeJSONError(w http.ResponseWriter, errResp *types.ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(errResp.Error.HTTPStatusCode())

	// Best effort write; the panic is already logged
	_ = json.NewEncoder(w).Encode(errResp)
}
