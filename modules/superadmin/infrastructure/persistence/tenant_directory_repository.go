package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/iota-uz/tenantguard/modules/superadmin/domain"
	"github.com/iota-uz/tenantguard/modules/superadmin/domain/entities"
	"github.com/iota-uz/tenantguard/pkg/composables"
)

const (
	listTenantsQuery = `
		SELECT
			t.id,
			t.name,
			COALESCE(t.domain, '') AS domain,
			t.status,
			COALESCE(u.user_count, 0) AS user_count,
			t.created_at,
			t.updated_at
		FROM tenants t
		LEFT JOIN (
			SELECT tenant_id, COUNT(*) AS user_count
			FROM users
			WHERE tenant_id IS NOT NULL
			GROUP BY tenant_id
		) u ON t.id = u.tenant_id
		ORDER BY t.name, t.id`

	dashboardMetricsQuery = `
		SELECT
			(SELECT COUNT(*) FROM tenants) AS tenant_count,
			(SELECT COUNT(*) FROM tenants WHERE status = 'active') AS active_tenant_count,
			(SELECT COUNT(*) FROM users) AS user_count,
			(SELECT COUNT(*) FROM users WHERE type = 'superadmin') AS platform_user_count,
			(SELECT COUNT(*) FROM sessions WHERE expires_at > $1) AS active_session_count`
)

type tenantInfoRow struct {
	ID        uuid.UUID      `db:"id"`
	Name      string         `db:"name"`
	Domain    sql.NullString `db:"domain"`
	Status    string         `db:"status"`
	UserCount int            `db:"user_count"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

type metricsRow struct {
	TenantCount        int `db:"tenant_count"`
	ActiveTenantCount  int `db:"active_tenant_count"`
	UserCount          int `db:"user_count"`
	PlatformUserCount  int `db:"platform_user_count"`
	ActiveSessionCount int `db:"active_session_count"`
}

type pgTenantDirectoryRepository struct{}

func NewPgTenantDirectoryRepository() domain.TenantDirectoryRepository {
	return &pgTenantDirectoryRepository{}
}

func (r *pgTenantDirectoryRepository) List(ctx context.Context) ([]*entities.TenantInfo, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	var rows []tenantInfoRow
	if err := tx.SelectContext(ctx, &rows, listTenantsQuery); err != nil {
		return nil, errors.Wrap(err, "failed to list tenants")
	}
	out := make([]*entities.TenantInfo, 0, len(rows))
	for _, row := range rows {
		out = append(out, &entities.TenantInfo{
			ID:        row.ID,
			Name:      row.Name,
			Domain:    row.Domain.String,
			Status:    row.Status,
			UserCount: row.UserCount,
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		})
	}
	return out, nil
}

func (r *pgTenantDirectoryRepository) Metrics(ctx context.Context, now time.Time) (*entities.DashboardMetrics, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	var row metricsRow
	if err := tx.GetContext(ctx, &row, dashboardMetricsQuery, now); err != nil {
		return nil, errors.Wrap(err, "failed to read dashboard metrics")
	}
	return &entities.DashboardMetrics{
		TenantCount:        row.TenantCount,
		ActiveTenantCount:  row.ActiveTenantCount,
		UserCount:          row.UserCount,
		PlatformUserCount:  row.PlatformUserCount,
		ActiveSessionCount: row.ActiveSessionCount,
	}, nil
}
