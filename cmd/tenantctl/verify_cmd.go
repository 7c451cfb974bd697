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

func newVerifyCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Count rows without a tenant in every tenant-owned table",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, db, err := connect(cmd.Context(), conf, commandLogger(conf, global, "verify"))
			if err != nil {
				return err
			}
			defer db.Close()
			return runVerify(ctx, cmd.OutOrStdout(), db, integrity.PostgresCatalog{}, tenancy.Default())
		},
	}
}

func runVerify(ctx context.Context, out io.Writer, db *sqlx.DB, catalog integrity.Catalog, registry *tenancy.Registry) error {
	statuses, err := integrity.Verify(ctx, db, catalog, registry)
	if err != nil {
		return withCode(exitDB, err)
	}
	for _, s := range statuses {
		if err := writeJSONLine(out, s); err != nil {
			return err
		}
	}
	if !integrity.Clean(statuses) {
		return withCode(exitBlocked, fmt.Errorf("tenant-owned tables still contain rows without a tenant"))
	}
	return nil
}
