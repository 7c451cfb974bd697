package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/attribute"

	"github.com/iota-uz/tenantguard/modules/core/domain/entities/tenant"
	"github.com/iota-uz/tenantguard/pkg/composables"
	"github.com/iota-uz/tenantguard/pkg/httpapi"
	"github.com/iota-uz/tenantguard/pkg/metrics"
	"github.com/iota-uz/tenantguard/pkg/tenancy"
)

type TenantLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// ResolveTenant derives the effective tenant context from the authenticated principal and the
// override header. The header only counts for platform principals; the principal kind is taken
// from the session, never from the request. Paths under platformPrefixes always resolve without
// the override, so a stale impersonation target cannot block the platform console.
func ResolveTenant(tenants TenantLookup, header string, platformPrefixes ...string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, err := composables.UseUser(r.Context())
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx, span := tracer.Start(r.Context(), "tenancy.resolve")
			defer span.End()
			logger := composables.UseLogger(ctx)

			override := r.Header.Get(header)
			if override != "" && hasPrefix(r.URL.Path, platformPrefixes) {
				override = ""
			}
			tc, decision, err := tenancy.Resolve(u, override)
			if err != nil {
				switch {
				case errors.Is(err, tenancy.ErrInvalidOverride):
					reject(w, http.StatusBadRequest, httpapi.CodeInvalidTenantOverride, "invalid tenant override")
				case errors.Is(err, tenancy.ErrNoTenantScope):
					reject(w, http.StatusForbidden, httpapi.CodeForbidden, "account is not bound to a tenant")
				default:
					logger.WithError(err).Error("failed to resolve tenant context")
					reject(w, http.StatusInternalServerError, httpapi.CodeInternal, "internal server error")
				}
				return
			}

			switch decision {
			case tenancy.DecisionImpersonating:
				id, _ := tc.TenantID()
				exists, err := tenants.Exists(ctx, id)
				if err != nil {
					logger.WithError(err).Error("failed to check impersonated tenant")
					reject(w, http.StatusInternalServerError, httpapi.CodeInternal, "internal server error")
					return
				}
				if !exists {
					reject(w, http.StatusNotFound, httpapi.CodeTenantNotFound, "tenant not found")
					return
				}
				logger = logger.WithField("impersonated-tenant", id.String())
				logger.WithField("user-id", u.ID()).Info("platform principal acting as tenant")
			case tenancy.DecisionHome, tenancy.DecisionOverrideIgnored:
				id, _ := tc.TenantID()
				t, err := tenants.GetByID(ctx, id)
				if err != nil && !errors.Is(err, tenant.ErrNotFound) {
					logger.WithError(err).Error("failed to load home tenant")
					reject(w, http.StatusInternalServerError, httpapi.CodeInternal, "internal server error")
					return
				}
				if err != nil || !t.IsActive() {
					reject(w, http.StatusForbidden, httpapi.CodeTenantInactive, "tenant is not active")
					return
				}
				if decision == tenancy.DecisionOverrideIgnored {
					logger.WithField("user-id", u.ID()).Debug("tenant override header ignored for tenant principal")
				}
				logger = logger.WithField("tenant", id.String())
			}

			span.SetAttributes(attribute.String("tenancy.decision", string(decision)))
			metrics.TenantResolutions.WithLabelValues(string(decision)).Inc()
			ctx = composables.WithLogger(ctx, logger)
			ctx = composables.WithTenantContext(ctx, tc)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func hasPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if path == p || strings.HasPrefix(path, strings.TrimRight(p, "/")+"/") {
			return true
		}
	}
	return false
}

func reject(w http.ResponseWriter, status int, code, message string) {
	metrics.TenantRejections.WithLabelValues(code).Inc()
	_ = httpapi.WriteError(w, status, code, message, nil)
}
