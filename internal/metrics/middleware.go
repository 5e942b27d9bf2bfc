package metrics

import (
	"net/http"
	"time"
)

// HTTPMetricsMiddleware returns middleware that records request count and
// latency under handlerName, a fixed route identifier such as
// "/api/v1/verify".
func HTTPMetricsMiddleware(m *Metrics, handlerName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}
			next.ServeHTTP(wrapped, r)

			if m != nil {
				m.RecordHTTPRequest(handlerName, r.Method, wrapped.statusCode, time.Since(start).Seconds())
			}
		})
	}
}

// responseWriter captures the status code written by the handler.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
