package middleware

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"

	"github.com/iota-uz/tenantguard/pkg/composables"
)

// ProvideDB attaches the database handle repositories fall back to outside a transaction, and
// the RLS mode tenant transactions run under.
func ProvideDB(db *sqlx.DB, rlsMode string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := composables.WithDB(r.Context(), db)
			if rlsMode != "" {
				ctx = composables.WithRLSMode(ctx, rlsMode)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequestParams(realIPHeader string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			params := &composables.Params{
				IP:        getRealIP(r, realIPHeader),
				UserAgent: r.UserAgent(),
				Request:   r,
				Writer:    w,
			}
			next.ServeHTTP(w, r.WithContext(composables.WithParams(r.Context(), params)))
		})
	}
}
