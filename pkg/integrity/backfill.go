package integrity

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/tenantguard/pkg/composables"
	"github.com/iota-uz/tenantguard/pkg/tenancy"
)

// BackfillReport is computed fresh on every run and never persisted.
type BackfillReport struct {
	Table        string   `json:"table"`
	MissingCount int      `json:"missingCount"`
	FixableCount int      `json:"fixableCount"`
	UpdatedCount int      `json:"updatedCount"`
	Unresolved   []string `json:"unresolved"`
}

type missingRow struct {
	ID int64 `db:"id"`
}

type candidateRow struct {
	ID       int64  `db:"id"`
	TenantID string `db:"tenant_id"`
}

type fix struct {
	id       int64
	tenantID string
}

type tablePlan struct {
	table      tenancy.OwnedTable
	missing    int
	fixes      []fix
	unresolved []int64
}

// Backfill infers a tenant for every row missing one through the table's foreign keys. A row is
// fixed only when its sources yield exactly one distinct tenant. All tables are planned against
// the same starting data before anything is written, so dry-run and apply report the same plan.
func Backfill(ctx context.Context, db *sqlx.DB, registry *tenancy.Registry, opts Options) ([]BackfillReport, error) {
	logger := composables.UseLogger(ctx)
	mode := opts.mode()

	tx, err := db.BeginTxx(ctx, opts.TxOptions)
	if err != nil {
		return nil, errors.Wrap(err, "begin backfill")
	}
	defer func() { _ = tx.Rollback() }()

	tables := registry.OwnedTables()
	plans := make([]tablePlan, 0, len(tables))
	for _, t := range tables {
		p, err := planTable(ctx, tx, t)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}

	reports := make([]BackfillReport, 0, len(plans))
	for _, p := range plans {
		r := BackfillReport{
			Table:        p.table.Name,
			MissingCount: p.missing,
			FixableCount: len(p.fixes),
			Unresolved:   make([]string, 0, len(p.unresolved)),
		}
		for _, id := range p.unresolved {
			r.Unresolved = append(r.Unresolved, strconv.FormatInt(id, 10))
		}
		if mode == ModeApply && len(p.fixes) > 0 {
			n, err := applyFixes(ctx, tx, p)
			if err != nil {
				return nil, err
			}
			r.UpdatedCount = n
		}
		logger.WithFields(logrus.Fields{
			"table":      r.Table,
			"mode":       mode,
			"missing":    r.MissingCount,
			"fixable":    r.FixableCount,
			"updated":    r.UpdatedCount,
			"unresolved": len(r.Unresolved),
		}).Info("backfill planned")
		reports = append(reports, r)
	}

	if err := finish(tx, mode); err != nil {
		return nil, errors.Wrap(err, "finish backfill")
	}
	return reports, nil
}

func planTable(ctx context.Context, tx *sqlx.Tx, t tenancy.OwnedTable) (tablePlan, error) {
	p := tablePlan{table: t}

	var missing []missingRow
	q := fmt.Sprintf(`SELECT id FROM %s WHERE %s IS NULL ORDER BY id`, t.Name, t.Column)
	if err := tx.SelectContext(ctx, &missing, q); err != nil {
		return p, errors.Wrapf(err, "list %s rows missing a tenant", t.Name)
	}
	p.missing = len(missing)
	if p.missing == 0 {
		return p, nil
	}

	candidates := make(map[int64]map[string]struct{}, len(missing))
	for _, src := range t.Sources {
		var rows []candidateRow
		q := fmt.Sprintf(
			`SELECT t.id AS id, CAST(s.%[4]s AS TEXT) AS tenant_id FROM %[1]s t JOIN %[3]s s ON s.id = t.%[2]s WHERE t.%[5]s IS NULL AND s.%[4]s IS NOT NULL`,
			t.Name, src.Column, src.Table, tenancy.TenantColumn, t.Column,
		)
		if err := tx.SelectContext(ctx, &rows, q); err != nil {
			return p, errors.Wrapf(err, "infer %s tenants through %s.%s", t.Name, t.Name, src.Column)
		}
		for _, row := range rows {
			set, ok := candidates[row.ID]
			if !ok {
				set = map[string]struct{}{}
				candidates[row.ID] = set
			}
			set[row.TenantID] = struct{}{}
		}
	}

	for _, row := range missing {
		set := candidates[row.ID]
		if len(set) != 1 {
			p.unresolved = append(p.unresolved, row.ID)
			continue
		}
		for tenantID := range set {
			p.fixes = append(p.fixes, fix{id: row.ID, tenantID: tenantID})
		}
	}
	return p, nil
}

func applyFixes(ctx context.Context, tx *sqlx.Tx, p tablePlan) (int, error) {
	q := tx.Rebind(fmt.Sprintf(`UPDATE %[1]s SET %[2]s = ? WHERE id = ? AND %[2]s IS NULL`, p.table.Name, p.table.Column))
	updated := 0
	for _, f := range p.fixes {
		res, err := tx.ExecContext(ctx, q, f.tenantID, f.id)
		if err != nil {
			return 0, errors.Wrapf(err, "backfill %s row %d", p.table.Name, f.id)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, errors.Wrap(err, "rows affected")
		}
		updated += int(n)
	}
	return updated, nil
}
