package persistence

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"

	"github.com/iota-uz/tenantguard/modules/core/infrastructure/persistence/models"
	"github.com/iota-uz/tenantguard/pkg/composables"
	"github.com/iota-uz/tenantguard/pkg/tenancy"
)

type Record struct {
	ID       string `json:"id"`
	TenantID string `json:"tenantId"`
	Label    string `json:"label"`
}

// RecordRepository lists rows of tenant-owned tables, always filtered by the request's tenant.
type RecordRepository struct {
	registry *tenancy.Registry
	limit    int
}

func NewRecordRepository(registry *tenancy.Registry, limit int) *RecordRepository {
	if limit <= 0 {
		limit = 100
	}
	return &RecordRepository{registry: registry, limit: limit}
}

func (r *RecordRepository) List(ctx context.Context, table string) ([]Record, error) {
	tc, err := composables.UseTenantContext(ctx)
	if err != nil {
		return nil, err
	}
	scope, err := tc.ScopeFor(r.registry, table)
	if err != nil {
		return nil, err
	}
	owned, ok := r.registry.Owned(table)
	if !ok || scope.Unscoped {
		return nil, errors.Wrap(tenancy.ErrUnregisteredTable, table)
	}

	// Identifiers come from the static registry, never from the request.
	query := fmt.Sprintf(
		`SELECT CAST(id AS TEXT) AS id, CAST(%[1]s AS TEXT) AS tenant_id, CAST(%[2]s AS TEXT) AS label FROM %[3]s WHERE %[1]s = $1 ORDER BY id LIMIT %[4]d`,
		owned.Column, owned.Label, owned.Name, r.limit,
	)
	// Bound to the tenant so row level security agrees with the explicit filter.
	rows, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) ([]models.Record, error) {
		tx, err := composables.UseTx(txCtx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to get transaction")
		}
		var rows []models.Record
		if err := tx.SelectContext(txCtx, &rows, query, scope.TenantID.String()); err != nil {
			return nil, errors.Wrapf(err, "failed to list %s", table)
		}
		return rows, nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, Record{ID: row.ID, TenantID: row.TenantID.String, Label: row.Label.String})
	}
	return out, nil
}
