package composables

import (
	"context"
	"fmt"

	"github.com/iota-uz/tenantguard/pkg/configuration"
	"github.com/iota-uz/tenantguard/pkg/constants"
	"github.com/iota-uz/tenantguard/pkg/repo"
)

const (
	RLSDisabled = "disabled"
	RLSEnforce  = "enforce"
)

// WithRLSMode overrides RLS_ENFORCE for ctx.
func WithRLSMode(ctx context.Context, mode string) context.Context {
	return context.WithValue(ctx, constants.RLSModeKey, mode)
}

func useRLSMode(ctx context.Context) string {
	if mode, ok := ctx.Value(constants.RLSModeKey).(string); ok && mode != "" {
		return mode
	}
	return configuration.Use().RLSEnforce
}

// ApplyTenantRLS pins app.current_tenant for the rest of tx. Platform scope is refused while
// enforcement is on: no tenant means no rows under the policies.
func ApplyTenantRLS(ctx context.Context, tx repo.Tx) error {
	if useRLSMode(ctx) != RLSEnforce {
		return nil
	}
	tenantID, err := UseTenantID(ctx)
	if err != nil {
		return fmt.Errorf("rls requires tenant in context: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "SELECT set_config('app.current_tenant', $1, true)", tenantID.String()); err != nil {
		return fmt.Errorf("failed to set rls tenant context: %w", err)
	}
	return nil
}
