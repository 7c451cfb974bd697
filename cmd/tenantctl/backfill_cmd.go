package main

import (
	"context"
	"fmt"
	"io"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/iota-uz/tenantguard/pkg/integrity"
	"github.com/iota-uz/tenantguard/pkg/tenancy"
)

type backfillSummary struct {
	Mode       integrity.Mode `json:"mode"`
	Missing    int            `json:"missing"`
	Fixable    int            `json:"fixable"`
	Updated    int            `json:"updated"`
	Unresolved int            `json:"unresolved"`
}

func newBackfillCmd(global *globalOptions) *cobra.Command {
	var rawMode string
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Infer missing tenant references through foreign keys",
		Long: "Rows are updated only when their foreign keys yield exactly one tenant. " +
			"Everything else is listed as unresolved for manual review. Rows are never deleted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := parseModeFlag(rawMode)
			if err != nil {
				return err
			}
			conf, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, db, err := connect(cmd.Context(), conf, commandLogger(conf, global, "backfill"))
			if err != nil {
				return err
			}
			defer db.Close()
			return runBackfill(ctx, cmd.OutOrStdout(), db, tenancy.Default(), mode)
		},
	}
	modeFlag(cmd, &rawMode)
	return cmd
}

// runBackfill prints one JSON line per table and a summary line. Unresolved rows make the run
// exit non-zero because they keep promotion blocked.
func runBackfill(ctx context.Context, out io.Writer, db *sqlx.DB, registry *tenancy.Registry, mode integrity.Mode) error {
	reports, err := integrity.Backfill(ctx, db, registry, integrity.Options{Mode: mode})
	if err != nil {
		code := exitDB
		if mode == integrity.ModeApply {
			code = exitDBWrite
		}
		return withCode(code, err)
	}

	summary := backfillSummary{Mode: mode}
	for _, r := range reports {
		if err := writeJSONLine(out, r); err != nil {
			return err
		}
		summary.Missing += r.MissingCount
		summary.Fixable += r.FixableCount
		summary.Updated += r.UpdatedCount
		summary.Unresolved += len(r.Unresolved)
	}
	if err := writeJSONLine(out, summary); err != nil {
		return err
	}
	if summary.Unresolved > 0 {
		return withCode(exitBlocked, fmt.Errorf("%d rows could not be assigned a tenant and need manual review", summary.Unresolved))
	}
	return nil
}
