package persistence

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/iota-uz/tenantguard/modules/core/domain/entities/tenant"
	"github.com/iota-uz/tenantguard/modules/core/infrastructure/persistence/models"
	"github.com/iota-uz/tenantguard/pkg/composables"
)

// ErrTenantNotFound is the domain sentinel, so callers outside persistence can match it.
var ErrTenantNotFound = tenant.ErrNotFound

const (
	tenantFindQuery = `SELECT id, name, domain, status, created_at, updated_at FROM tenants`
)

type TenantRepository struct{}

func NewTenantRepository() tenant.Repository {
	return &TenantRepository{}
}

func (r *TenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	tenants, err := r.queryTenants(ctx, tenantFindQuery+" WHERE id = $1", id.String())
	if err != nil {
		return nil, err
	}
	if len(tenants) == 0 {
		return nil, ErrTenantNotFound
	}
	return tenants[0], nil
}

func (r *TenantRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, errors.Wrap(err, "failed to get transaction")
	}
	var exists bool
	if err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM tenants WHERE id = $1)`, id.String()); err != nil {
		return false, errors.Wrap(err, "failed to check tenant existence")
	}
	return exists, nil
}

func (r *TenantRepository) List(ctx context.Context) ([]*tenant.Tenant, error) {
	return r.queryTenants(ctx, tenantFindQuery+" ORDER BY created_at DESC")
}

func (r *TenantRepository) Create(ctx context.Context, t *tenant.Tenant) (*tenant.Tenant, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	domain := strings.ToLower(strings.TrimSpace(t.Domain()))
	var domainValue sql.NullString
	if domain != "" {
		domainValue = sql.NullString{String: domain, Valid: true}
	}

	var idStr string
	if err := tx.QueryRowxContext(ctx, `
		INSERT INTO tenants (id, name, domain, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`,
		t.ID().String(),
		t.Name(),
		domainValue,
		string(t.Status()),
		t.CreatedAt(),
		t.UpdatedAt(),
	).Scan(&idStr); err != nil {
		return nil, errors.Wrap(err, "failed to insert tenant")
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *TenantRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status tenant.Status) (*tenant.Tenant, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	res, err := tx.ExecContext(ctx, `UPDATE tenants SET status = $1, updated_at = now() WHERE id = $2`, string(status), id.String())
	if err != nil {
		return nil, errors.Wrap(err, "failed to update tenant status")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrTenantNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *TenantRepository) queryTenants(ctx context.Context, query string, args ...interface{}) ([]*tenant.Tenant, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	var rows []models.Tenant
	if err := tx.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}

	tenants := make([]*tenant.Tenant, 0, len(rows))
	for i := range rows {
		t, err := toDomainTenant(&rows[i])
		if err != nil {
			return nil, errors.Wrapf(err, "failed to map tenant %s", rows[i].ID)
		}
		tenants = append(tenants, t)
	}
	return tenants, nil
}
