package integrity

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/tenantguard/pkg/composables"
	"github.com/iota-uz/tenantguard/pkg/tenancy"
)

// ErrBlocked means at least one owned table still has rows without a tenant. Nothing was altered.
var ErrBlocked = errors.New("tenant columns still contain NULLs; run backfill first")

type PromoteReport struct {
	Mode     Mode          `json:"mode"`
	Tables   []TableStatus `json:"tables"`
	Ready    []string      `json:"ready"`
	Promoted []string      `json:"promoted"`
	Blocked  []string      `json:"blocked,omitempty"`
}

// Promote sets NOT NULL on every owned tenant column that lacks it, all in one transaction.
// It refuses to alter any table while any table has NULL tenants.
func Promote(ctx context.Context, db *sqlx.DB, catalog Catalog, registry *tenancy.Registry, opts Options) (*PromoteReport, error) {
	logger := composables.UseLogger(ctx)
	mode := opts.mode()

	tx, err := db.BeginTxx(ctx, opts.TxOptions)
	if err != nil {
		return nil, errors.Wrap(err, "begin promote")
	}
	defer func() { _ = tx.Rollback() }()

	statuses, err := inspect(ctx, tx, catalog, registry)
	if err != nil {
		return nil, err
	}
	report := &PromoteReport{Mode: mode, Tables: statuses, Ready: []string{}, Promoted: []string{}}
	for _, s := range statuses {
		if s.NullCount > 0 {
			report.Blocked = append(report.Blocked, s.Table)
			logger.WithFields(logrus.Fields{"table": s.Table, "nulls": s.NullCount}).Warn("promotion blocked")
		}
		if s.Ready() {
			report.Ready = append(report.Ready, s.Table)
		}
	}
	if len(report.Blocked) > 0 {
		report.Ready = []string{}
		return report, ErrBlocked
	}
	if mode != ModeApply {
		return report, nil
	}

	for _, name := range report.Ready {
		owned, _ := registry.Owned(name)
		stmt := fmt.Sprintf(`ALTER TABLE %s ALTER COLUMN %s SET NOT NULL`, owned.Name, owned.Column)
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return report, errors.Wrapf(err, "promote %s.%s", owned.Name, owned.Column)
		}
	}
	if err := tx.Commit(); err != nil {
		return report, errors.Wrap(err, "commit promote")
	}
	report.Promoted = append(report.Promoted, report.Ready...)
	logger.WithField("tables", report.Promoted).Info("tenant columns promoted to NOT NULL")
	return report, nil
}
