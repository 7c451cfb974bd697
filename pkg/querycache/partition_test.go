package querycache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iota-uz/tenantguard/pkg/querycache"
)

func TestPartition_ScopeOf(t *testing.T) {
	p := querycache.DefaultPartition()

	cases := map[string]querycache.Scope{
		"/api/projects":               querycache.ScopeTenant,
		"/api/tasks/42?include=c":     querycache.ScopeTenant,
		"/api/auth/me":                querycache.ScopeTenant,
		"/api/superadmin/tenants":     querycache.ScopePlatform,
		"/api/superadmin/tenants/abc": querycache.ScopePlatform,
		"/api/superadminx":            querycache.ScopeTenant,
		"/api/brand-new-endpoint":     querycache.ScopeTenant,
	}
	for key, want := range cases {
		assert.Equal(t, want, p.ScopeOf(key), key)
	}
}

func TestPartition_IsRegistered(t *testing.T) {
	p := querycache.DefaultPartition()
	assert.True(t, p.IsRegistered("/api/time-entries?week=3"))
	assert.True(t, p.IsRegistered("/api/superadmin/tenants"))
	assert.False(t, p.IsRegistered("/api/tasksets"))
	assert.False(t, p.IsRegistered("/api/brand-new-endpoint"))
}
