package tenancy_test

import (
	"testing"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/tenantguard/pkg/tenancy"
)

type principal struct {
	platform bool
	home     uuid.UUID
}

func (p principal) IsPlatform() bool { return p.platform }

func (p principal) HomeTenant() (uuid.UUID, bool) {
	return p.home, !p.platform && p.home != uuid.Nil
}

func TestResolve_TenantPrincipalIgnoresOverride(t *testing.T) {
	home := uuid.New()
	p := principal{home: home}

	overrides := []string{"", uuid.NewString(), "not-a-uuid", "  " + uuid.NewString() + "  ", home.String()}
	for _, override := range overrides {
		ctx, decision, err := tenancy.Resolve(p, override)
		require.NoError(t, err)

		got, ok := ctx.TenantID()
		require.True(t, ok)
		assert.Equal(t, home, got, "override %q", override)
		assert.False(t, ctx.IsImpersonating())
		if override == "" {
			assert.Equal(t, tenancy.DecisionHome, decision)
		} else {
			assert.Equal(t, tenancy.DecisionOverrideIgnored, decision)
		}
	}
}

func TestResolve_PlatformPrincipal(t *testing.T) {
	p := principal{platform: true}

	t.Run("No_Override_Is_Platform_Scope", func(t *testing.T) {
		ctx, decision, err := tenancy.Resolve(p, "")
		require.NoError(t, err)
		assert.True(t, ctx.IsPlatform())
		assert.Equal(t, tenancy.DecisionPlatform, decision)
		_, ok := ctx.TenantID()
		assert.False(t, ok)
	})

	t.Run("Override_Impersonates", func(t *testing.T) {
		target := uuid.New()
		ctx, decision, err := tenancy.Resolve(p, target.String())
		require.NoError(t, err)
		got, ok := ctx.TenantID()
		require.True(t, ok)
		assert.Equal(t, target, got)
		assert.True(t, ctx.IsImpersonating())
		assert.Equal(t, tenancy.DecisionImpersonating, decision)
	})

	t.Run("Malformed_Override_Rejected", func(t *testing.T) {
		for _, bad := range []string{"nope", uuid.Nil.String()} {
			_, _, err := tenancy.Resolve(p, bad)
			require.ErrorIs(t, err, tenancy.ErrInvalidOverride)
		}
	})
}

func TestResolve_NilPrincipal(t *testing.T) {
	_, _, err := tenancy.Resolve(nil, "")
	require.ErrorIs(t, err, tenancy.ErrNoPrincipal)
}

func TestContext_ScopeFor(t *testing.T) {
	registry := tenancy.Default()
	tenantID := uuid.New()

	t.Run("Platform_Scope_Rejected_On_Every_Owned_Table", func(t *testing.T) {
		ctx := tenancy.PlatformScope()
		for _, table := range registry.OwnedTables() {
			_, err := ctx.ScopeFor(registry, table.Name)
			require.Error(t, err, table.Name)
			assert.True(t, errors.Is(err, tenancy.ErrNoTenantScope))
		}
	})

	t.Run("Platform_Scope_Allowed_On_Platform_Tables", func(t *testing.T) {
		scope, err := tenancy.PlatformScope().ScopeFor(registry, "tenants")
		require.NoError(t, err)
		assert.True(t, scope.Unscoped)
	})

	t.Run("Tenant_Scope_Filters_Owned_Tables", func(t *testing.T) {
		for _, ctx := range []tenancy.Context{tenancy.HomeScope(tenantID), tenancy.ImpersonatedScope(tenantID)} {
			scope, err := ctx.ScopeFor(registry, "projects")
			require.NoError(t, err)
			assert.False(t, scope.Unscoped)
			assert.Equal(t, tenantID, scope.TenantID)
			assert.Equal(t, tenancy.TenantColumn, scope.Column)
		}
	})

	t.Run("Unregistered_Table_Fails_Closed", func(t *testing.T) {
		_, err := tenancy.HomeScope(tenantID).ScopeFor(registry, "invoices")
		require.ErrorIs(t, err, tenancy.ErrUnregisteredTable)
	})
}

func TestRegistry(t *testing.T) {
	registry := tenancy.Default()

	assert.True(t, registry.IsOwned("tasks"))
	assert.False(t, registry.IsOwned("users"))
	assert.True(t, registry.IsPlatform("users"))

	seen := map[string]bool{}
	for _, table := range registry.OwnedTables() {
		assert.False(t, registry.IsPlatform(table.Name), table.Name)
		for _, src := range table.Sources {
			if src.Table != "users" {
				assert.True(t, seen[src.Table], "%s infers from %s which must be listed earlier", table.Name, src.Table)
			}
		}
		seen[table.Name] = true
	}

	projects, ok := registry.Owned("projects")
	require.True(t, ok)
	require.Len(t, projects.Sources, 3)
	assert.Equal(t, []string{"workspaces", "clients", "teams"},
		[]string{projects.Sources[0].Table, projects.Sources[1].Table, projects.Sources[2].Table})
}
