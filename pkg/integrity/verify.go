package integrity

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jmoiron/sqlx"

	"github.com/iota-uz/tenantguard/pkg/tenancy"
)

type TableStatus struct {
	Table       string `json:"table"`
	NullCount   int    `json:"nullCount"`
	Constrained bool   `json:"constrained"`
}

// Ready reports whether the column can be promoted to NOT NULL.
func (s TableStatus) Ready() bool {
	return !s.Constrained && s.NullCount == 0
}

// Verify counts rows without a tenant in every owned table.
func Verify(ctx context.Context, db *sqlx.DB, catalog Catalog, registry *tenancy.Registry) ([]TableStatus, error) {
	return inspect(ctx, db, catalog, registry)
}

func inspect(ctx context.Context, q sqlx.QueryerContext, catalog Catalog, registry *tenancy.Registry) ([]TableStatus, error) {
	tables := registry.OwnedTables()
	out := make([]TableStatus, 0, len(tables))
	for _, t := range tables {
		s := TableStatus{Table: t.Name}
		query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s IS NULL`, t.Name, t.Column)
		if err := sqlx.GetContext(ctx, q, &s.NullCount, query); err != nil {
			return nil, errors.Wrapf(err, "count %s rows missing a tenant", t.Name)
		}
		constrained, err := catalog.NotNull(ctx, q, t.Name, t.Column)
		if err != nil {
			return nil, err
		}
		s.Constrained = constrained
		out = append(out, s)
	}
	return out, nil
}

// Clean reports whether no owned table has rows missing a tenant.
func Clean(statuses []TableStatus) bool {
	for _, s := range statuses {
		if s.NullCount > 0 {
			return false
		}
	}
	return true
}
