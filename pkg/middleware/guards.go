package middleware

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/iota-uz/tenantguard/pkg/composables"
	"github.com/iota-uz/tenantguard/pkg/httpapi"
)

func RequireAuth() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := composables.UseUser(r.Context()); err != nil {
				_ = httpapi.WriteError(w, http.StatusUnauthorized, httpapi.CodeUnauthenticated, "authentication required", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSuperAdmin admits platform principals only, whatever tenant they may be impersonating.
func RequireSuperAdmin() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, err := composables.UseUser(r.Context())
			if err != nil {
				_ = httpapi.WriteError(w, http.StatusUnauthorized, httpapi.CodeUnauthenticated, "authentication required", nil)
				return
			}
			if !u.IsPlatform() {
				composables.UseLogger(r.Context()).WithField("user-id", u.ID()).Warn("superadmin route refused for tenant principal")
				_ = httpapi.WriteError(w, http.StatusForbidden, httpapi.CodeForbidden, "platform access required", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireTenantScope refuses requests whose effective context has no tenant.
func RequireTenantScope() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := composables.UseTenantID(r.Context()); err != nil {
				_ = httpapi.WriteError(w, http.StatusForbidden, httpapi.CodeTenantScopeRequired, "a tenant context is required", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
