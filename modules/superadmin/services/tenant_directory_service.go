package services

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/tenantguard/modules/core/domain/entities/tenant"
	"github.com/iota-uz/tenantguard/modules/superadmin/domain"
	"github.com/iota-uz/tenantguard/modules/superadmin/domain/entities"
	"github.com/iota-uz/tenantguard/pkg/composables"
)

// TenantStore is the subset of the core tenant service the directory needs.
type TenantStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status tenant.Status) (*tenant.Tenant, error)
}

type TenantDirectoryService struct {
	repo    domain.TenantDirectoryRepository
	tenants TenantStore
	now     func() time.Time
}

func NewTenantDirectoryService(repo domain.TenantDirectoryRepository, tenants TenantStore) *TenantDirectoryService {
	return &TenantDirectoryService{repo: repo, tenants: tenants, now: time.Now}
}

func (s *TenantDirectoryService) List(ctx context.Context) ([]*entities.TenantInfo, error) {
	return s.repo.List(ctx)
}

func (s *TenantDirectoryService) Get(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	return s.tenants.GetByID(ctx, id)
}

func (s *TenantDirectoryService) Metrics(ctx context.Context) (*entities.DashboardMetrics, error) {
	return s.repo.Metrics(ctx, s.now())
}

// UpdateStatus changes a tenant's lifecycle status. Tenant principals of a non-active tenant are
// refused on their next request; impersonation keeps working.
func (s *TenantDirectoryService) UpdateStatus(ctx context.Context, id uuid.UUID, status tenant.Status) (*tenant.Tenant, error) {
	logger := composables.UseLogger(ctx)
	before, err := s.tenants.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := s.tenants.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update tenant status")
	}

	fields := logrus.Fields{
		"tenant": id.String(),
		"from":   before.Status(),
		"to":     status,
	}
	if u, err := composables.UseUser(ctx); err == nil {
		fields["actor"] = u.ID()
	}
	logger.WithFields(fields).Info("tenant status changed")
	return updated, nil
}
