package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/sextant-gg/sextant/pkg/telemetry/metrics"
)

// Metrics middleware records request counts and latencies for every inbound
// request, including ones that end up relayed over WebSocket.
func Metrics(collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if collector == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Reuse the arrival time the Logging middleware stamped so the
			// histogram and the access log report the same latency.
			start, ok := r.Context().Value(StartTimeKey).(time.Time)
			if !ok {
				start = time.Now()
			}

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r)

			collector.RecordHTTPRequest(r.Method, strconv.Itoa(rw.statusCode), time.Since(start))
		})
	}
}
