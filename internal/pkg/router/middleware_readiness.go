package router

import (
	"log/slog"
	"net/http"
)

// middlewareReadiness answers 503 until the store has been initialized. A
// failed initialization is retried by the next request.
func middlewareReadiness(rd Readiness) Middleware {
	return func(next http.Handler) http.Handler {
		if rd == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := rd.EnsureReady(r.Context()); err != nil {
				slog.ErrorContext(r.Context(), "storage is not ready", "error", err)
				writeJSON(w, errorResponse{Error: "service is not ready"}, http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
