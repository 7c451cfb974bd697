package composables

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/iota-uz/tenantguard/pkg/constants"
	"github.com/iota-uz/tenantguard/pkg/tenancy"
)

var ErrNoTenantContext = errors.New("no tenant context found in context")

func WithTenantContext(ctx context.Context, tc tenancy.Context) context.Context {
	return context.WithValue(ctx, constants.TenantContextKey, tc)
}

// UseTenantContext returns the effective context attached by the tenant middleware.
func UseTenantContext(ctx context.Context) (tenancy.Context, error) {
	tc, ok := ctx.Value(constants.TenantContextKey).(tenancy.Context)
	if !ok {
		return tenancy.Context{}, ErrNoTenantContext
	}
	return tc, nil
}

// WithTenantID scopes ctx to tenantID for an explicit administrative cross-tenant operation.
func WithTenantID(ctx context.Context, tenantID uuid.UUID) context.Context {
	return WithTenantContext(ctx, tenancy.ImpersonatedScope(tenantID))
}

// UseTenantID returns the effective tenant; platform scope is an error.
func UseTenantID(ctx context.Context) (uuid.UUID, error) {
	tc, err := UseTenantContext(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	id, ok := tc.TenantID()
	if !ok {
		return uuid.Nil, tenancy.ErrNoTenantScope
	}
	return id, nil
}

// UseScope returns the storage filter for table under the request's effective context.
func UseScope(ctx context.Context, table string) (tenancy.Scope, error) {
	tc, err := UseTenantContext(ctx)
	if err != nil {
		return tenancy.Scope{}, err
	}
	return tc.ScopeFor(tenancy.Default(), table)
}
