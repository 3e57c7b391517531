package router

import (
	"log/slog"
	"net/http"

	"github.com/shandysiswandi/freightbite/internal/pkg/session"
)

type authenticator struct {
	validator session.Validator
	public    map[string]map[string]struct{}
}

func (a *authenticator) isPublic(r *http.Request) bool {
	s, ok := a.public[r.Method]
	if !ok {
		return false
	}
	_, skip := s[matchedRoutePath(r)]
	return skip
}

// middleware resolves the session cookie on every protected route. The
// session is re-validated on each request; nothing is cached.
func (a *authenticator) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.isPublic(r) {
			next.ServeHTTP(w, r)
			return
		}

		token := session.TokenFromRequest(r)
		if token == "" || a.validator == nil {
			writeJSON(w, errorResponse{Error: "Authentication required"}, http.StatusUnauthorized)
			return
		}

		auth, err := a.validator.Authenticate(r.Context(), token)
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to authenticate session", "error", err)
			writeJSON(w, errorResponse{Error: "Internal server error"}, http.StatusInternalServerError)
			return
		}
		if auth == nil {
			writeJSON(w, errorResponse{Error: "Authentication required"}, http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(session.SetAuth(r.Context(), auth)))
	})
}
