package middleware

import (
	"net/http"
	"time"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/metrics"
)

// Metrics records request count and latency per route pattern. The pattern
// comes from the mux so ids in paths do not explode label cardinality.
func Metrics(mux *http.ServeMux) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := wrapResponseWriter(w)

			next.ServeHTTP(rw, r)

			_, route := mux.Handler(r)
			if route == "" {
				route = "unmatched"
			}
			metrics.ObserveRequest(route, r.Method, rw.statusCode, time.Since(start))
		})
	}
}
