// internal/auth/middleware.go
//
// Chi middleware that turns the session cookie into an Admin and guards
// back-office routes.

package auth

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/yanizio/streamsite/internal/session"
)

// LoadSession attaches the Admin named by a valid session cookie.  Missing
// or invalid cookies leave the request anonymous.
func LoadSession(sm *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := sm.Read(r)
			if err != nil {
				if !errors.Is(err, session.ErrNoSession) {
					zap.L().Debug("session rejected", zap.Error(err), zap.String("path", r.URL.Path))
				}
				next.ServeHTTP(w, r)
				return
			}
			ctx := WithAdmin(r.Context(), Admin{ID: c.AdminID, Username: c.Username})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects anonymous requests with 401.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := AdminFrom(r.Context()); !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Unauthorized"}` + "\n"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
