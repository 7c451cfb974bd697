package main

import (
	"github.com/spf13/cobra"

	"github.com/iota-uz/tenantguard/modules/core/infrastructure/persistence"
	"github.com/iota-uz/tenantguard/modules/core/seed"
)

func newSeedTenantCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-default-tenant",
		Short: "Create the development tenant if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, db, err := connect(cmd.Context(), conf, commandLogger(conf, global, "seed-default-tenant"))
			if err != nil {
				return err
			}
			defer db.Close()
			t, err := seed.CreateDefaultTenant(ctx, persistence.NewTenantRepository())
			if err != nil {
				return withCode(exitDBWrite, err)
			}
			return writeJSONLine(cmd.OutOrStdout(), map[string]string{
				"id":     t.ID().String(),
				"name":   t.Name(),
				"status": string(t.Status()),
			})
		},
	}
}
