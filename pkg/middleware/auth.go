package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/iota-uz/tenantguard/modules/core/domain/aggregates/user"
	"github.com/iota-uz/tenantguard/modules/core/domain/entities/session"
	"github.com/iota-uz/tenantguard/pkg/composables"
)

type SessionAuthorizer interface {
	Authorize(ctx context.Context, token string) (*session.Session, *user.User, error)
}

// SessionToken reads the session from the sid cookie, then from a bearer Authorization header.
func SessionToken(r *http.Request, sidCookie string) string {
	if c, err := r.Cookie(sidCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// Authorize attaches the session principal when the request carries a valid token.
// Requests without one continue anonymously; guards decide what that means.
func Authorize(auth SessionAuthorizer, sidCookie string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := SessionToken(r, sidCookie)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			sess, u, err := auth.Authorize(r.Context(), token)
			if err != nil {
				composables.UseLogger(r.Context()).WithError(err).Debug("session rejected")
				next.ServeHTTP(w, r)
				return
			}
			ctx := composables.WithSession(r.Context(), sess)
			ctx = composables.WithUser(ctx, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
