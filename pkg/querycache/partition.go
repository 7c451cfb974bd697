// Package querycache is the client-side query cache, partitioned into tenant-scoped and
// platform-scoped entries so a context transition can drop exactly the data it invalidates.
package querycache

import "strings"

type Scope string

const (
	ScopeTenant   Scope = "tenant"
	ScopePlatform Scope = "platform"
)

// TenantPrefixes lists every endpoint family whose responses depend on the effective tenant.
var TenantPrefixes = []string{
	"/api/projects",
	"/api/clients",
	"/api/tasks",
	"/api/time-entries",
	"/api/users",
	"/api/auth/me",
	"/api/analytics",
	"/api/workload",
	"/api/comments",
	"/api/tags",
	"/api/attachments",
	"/api/teams",
	"/api/workspaces",
	"/api/chat",
	"/api/records",
}

// PlatformPrefixes lists endpoint families served identically whatever tenant is impersonated.
var PlatformPrefixes = []string{
	"/api/superadmin",
}

type Partition struct {
	tenant   []string
	platform []string
}

func NewPartition(tenant, platform []string) *Partition {
	return &Partition{
		tenant:   append([]string(nil), tenant...),
		platform: append([]string(nil), platform...),
	}
}

func DefaultPartition() *Partition {
	return NewPartition(TenantPrefixes, PlatformPrefixes)
}

// ScopeOf classifies a cache key. Keys matching no registered prefix are tenant-scoped, so an
// endpoint nobody registered is cleared on every transition instead of leaking across it.
func (p *Partition) ScopeOf(key string) Scope {
	path := keyPath(key)
	for _, prefix := range p.platform {
		if hasPathPrefix(path, prefix) {
			return ScopePlatform
		}
	}
	return ScopeTenant
}

// IsRegistered reports whether key matches an explicit prefix of either list.
func (p *Partition) IsRegistered(key string) bool {
	path := keyPath(key)
	for _, list := range [][]string{p.tenant, p.platform} {
		for _, prefix := range list {
			if hasPathPrefix(path, prefix) {
				return true
			}
		}
	}
	return false
}

func keyPath(key string) string {
	if i := strings.IndexAny(key, "?#"); i >= 0 {
		return key[:i]
	}
	return key
}

// "/api/tasks" matches "/api/tasks" and "/api/tasks/7", not "/api/tasksets".
func hasPathPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}
