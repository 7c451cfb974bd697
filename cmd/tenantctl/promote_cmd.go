package main

import (
	"context"
	"io"

	"github.com/go-faster/errors"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/iota-uz/tenantguard/pkg/integrity"
	"github.com/iota-uz/tenantguard/pkg/tenancy"
)

func newPromoteCmd(global *globalOptions) *cobra.Command {
	var rawMode string
	cmd := &cobra.Command{
		Use:   "promote",
		Short: "Set NOT NULL on every tenant column, all tables or none",
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := parseModeFlag(rawMode)
			if err != nil {
				return err
			}
			conf, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, db, err := connect(cmd.Context(), conf, commandLogger(conf, global, "promote"))
			if err != nil {
				return err
			}
			defer db.Close()
			return runPromote(ctx, cmd.OutOrStdout(), db, integrity.PostgresCatalog{}, tenancy.Default(), mode)
		},
	}
	modeFlag(cmd, &rawMode)
	return cmd
}

func runPromote(ctx context.Context, out io.Writer, db *sqlx.DB, catalog integrity.Catalog, registry *tenancy.Registry, mode integrity.Mode) error {
	report, err := integrity.Promote(ctx, db, catalog, registry, integrity.Options{Mode: mode})
	if report != nil {
		if werr := writeJSONLine(out, report); werr != nil {
			return werr
		}
	}
	switch {
	case err == nil:
		return nil
	case errors.Is(err, integrity.ErrBlocked):
		return withCode(exitBlocked, err)
	case mode == integrity.ModeApply:
		return withCode(exitDBWrite, err)
	default:
		return withCode(exitDB, err)
	}
}
