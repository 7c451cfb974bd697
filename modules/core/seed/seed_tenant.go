package seed

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/iota-uz/tenantguard/modules/core/domain/entities/tenant"
	"github.com/iota-uz/tenantguard/modules/core/infrastructure/persistence"
	"github.com/iota-uz/tenantguard/pkg/composables"
)

var DefaultTenantID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

const defaultTenantDomain = "default.localhost"

// CreateDefaultTenant makes sure the development tenant exists. It never changes an existing tenant.
func CreateDefaultTenant(ctx context.Context, tenants tenant.Repository) (*tenant.Tenant, error) {
	logger := composables.UseLogger(ctx)

	existing, err := tenants.GetByID(ctx, DefaultTenantID)
	if err == nil {
		logger.Infof("Default tenant already exists")
		return existing, nil
	}
	if !errors.Is(err, persistence.ErrTenantNotFound) {
		return nil, err
	}

	logger.Infof("Creating default tenant")
	created, err := tenants.Create(ctx, tenant.New(
		"Default",
		tenant.WithID(DefaultTenantID),
		tenant.WithDomain(defaultTenantDomain),
	))
	if err != nil {
		logger.Errorf("Failed to create default tenant: %v", err)
		return nil, err
	}
	return created, nil
}
