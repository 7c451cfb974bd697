package domain

import (
	"context"
	"time"

	"github.com/iota-uz/tenantguard/modules/superadmin/domain/entities"
)

// TenantDirectoryRepository reads across all tenants. Only platform principals reach it.
type TenantDirectoryRepository interface {
	List(ctx context.Context) ([]*entities.TenantInfo, error)
	Metrics(ctx context.Context, now time.Time) (*entities.DashboardMetrics, error)
}
