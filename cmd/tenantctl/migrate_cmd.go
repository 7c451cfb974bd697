package main

import (
	"github.com/spf13/cobra"

	"github.com/iota-uz/tenantguard/modules/core"
	"github.com/iota-uz/tenantguard/pkg/application"
)

func newMigrateCmd(global *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect the schema migrations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, closeDB, err := migrations(cmd, global, "migrate-up")
			if err != nil {
				return err
			}
			defer closeDB()
			if err := m.Up(cmd.Context()); err != nil {
				return withCode(exitDBWrite, err)
			}
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print the state of every migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, closeDB, err := migrations(cmd, global, "migrate-status")
			if err != nil {
				return err
			}
			defer closeDB()
			states, err := m.Status(cmd.Context())
			if err != nil {
				return withCode(exitDB, err)
			}
			for _, s := range states {
				if err := writeJSONLine(cmd.OutOrStdout(), s); err != nil {
					return err
				}
			}
			return nil
		},
	})
	return cmd
}

func migrations(cmd *cobra.Command, global *globalOptions, name string) (application.MigrationManager, func(), error) {
	conf, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger := commandLogger(conf, global, name)
	_, db, err := connect(cmd.Context(), conf, logger)
	if err != nil {
		return nil, nil, err
	}
	m := application.NewMigrationManager(db.DB, logger.Logger)
	m.RegisterSchema(core.Schema())
	return m, func() { _ = db.Close() }, nil
}
