package tenancy

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

var (
	ErrInvalidOverride   = errors.New("invalid tenant override")
	ErrNoTenantScope     = errors.New("tenant-owned table requires a tenant scope")
	ErrUnregisteredTable = errors.New("table is not registered")
	ErrNoPrincipal       = errors.New("no principal")
)

// Principal is whoever a request is authenticated as.
type Principal interface {
	IsPlatform() bool
	// HomeTenant is the tenant the principal was bound to at creation; ok is false for platform principals.
	HomeTenant() (id uuid.UUID, ok bool)
}

// Context is the effective tenant of a request. The zero value is platform scope.
type Context struct {
	tenantID      uuid.UUID
	scoped        bool
	impersonating bool
}

func PlatformScope() Context {
	return Context{}
}

func HomeScope(tenantID uuid.UUID) Context {
	return Context{tenantID: tenantID, scoped: true}
}

func ImpersonatedScope(tenantID uuid.UUID) Context {
	return Context{tenantID: tenantID, scoped: true, impersonating: true}
}

// TenantID returns the effective tenant; ok is false in platform scope.
func (c Context) TenantID() (uuid.UUID, bool) {
	return c.tenantID, c.scoped
}

func (c Context) IsPlatform() bool {
	return !c.scoped
}

func (c Context) IsImpersonating() bool {
	return c.impersonating
}

func (c Context) String() string {
	switch {
	case !c.scoped:
		return "platform"
	case c.impersonating:
		return "impersonating:" + c.tenantID.String()
	default:
		return "tenant:" + c.tenantID.String()
	}
}

// Decision records how Resolve arrived at a context.
type Decision string

const (
	DecisionHome            Decision = "home"
	DecisionOverrideIgnored Decision = "override_ignored"
	DecisionPlatform        Decision = "platform"
	DecisionImpersonating   Decision = "impersonating"
)

// Resolve derives the effective context of a principal. The override is honoured only for
// platform principals; anyone else sending one resolves to their own tenant as if it were absent.
func Resolve(p Principal, override string) (Context, Decision, error) {
	if p == nil {
		return Context{}, "", ErrNoPrincipal
	}
	override = strings.TrimSpace(override)

	if !p.IsPlatform() {
		home, ok := p.HomeTenant()
		if !ok {
			return Context{}, "", errors.Wrap(ErrNoTenantScope, "tenant principal without a tenant")
		}
		if override != "" {
			return HomeScope(home), DecisionOverrideIgnored, nil
		}
		return HomeScope(home), DecisionHome, nil
	}

	if override == "" {
		return PlatformScope(), DecisionPlatform, nil
	}
	target, err := uuid.Parse(override)
	if err != nil || target == uuid.Nil {
		return Context{}, "", errors.Wrapf(ErrInvalidOverride, "%q", override)
	}
	return ImpersonatedScope(target), DecisionImpersonating, nil
}

// Scope is the filter a storage access on one table must apply.
type Scope struct {
	Table    string
	Column   string
	TenantID uuid.UUID
	// Unscoped is true only for platform tables.
	Unscoped bool
}

// ScopeFor returns the filter for table. Platform scope touching an owned table is an error,
// as is any table the registry does not know.
func (c Context) ScopeFor(r *Registry, table string) (Scope, error) {
	if r.IsPlatform(table) {
		return Scope{Table: table, Unscoped: true}, nil
	}
	owned, ok := r.Owned(table)
	if !ok {
		return Scope{}, errors.Wrap(ErrUnregisteredTable, table)
	}
	if !c.scoped {
		return Scope{}, errors.Wrap(ErrNoTenantScope, table)
	}
	return Scope{Table: owned.Name, Column: owned.Column, TenantID: c.tenantID}, nil
}
