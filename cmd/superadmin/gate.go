package main

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/iota-uz/tenantguard/pkg/middleware"
)

var publicPaths = map[string]struct{}{
	"/health":         {},
	"/api/auth/login": {},
}

func consoleGate() mux.MiddlewareFunc {
	requireSuperAdmin := middleware.RequireSuperAdmin()
	return func(next http.Handler) http.Handler {
		guarded := requireSuperAdmin(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := publicPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}
			guarded.ServeHTTP(w, r)
		})
	}
}
