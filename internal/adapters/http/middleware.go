package httpadapter

import (
	"net/http"
	"time"

	"github.com/interviewlab/interview-api/internal/observability"
)

// withRequestID assigns each request a correlation id carried through the
// context and echoed in the response.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = observability.NewRequestID()
		}
		w.Header().Set("X-Request-Id", reqID)

		ctx := observability.WithRequestID(r.Context(), reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// withLogging logs every request with its duration.
func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		observability.LoggerFromContext(r.Context()).Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"elapsed_ms", time.Since(start).Milliseconds())
	})
}
