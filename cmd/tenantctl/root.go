package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/iota-uz/tenantguard/pkg/composables"
	"github.com/iota-uz/tenantguard/pkg/configuration"
	"github.com/iota-uz/tenantguard/pkg/integrity"
	"github.com/iota-uz/tenantguard/pkg/repo"
)

type globalOptions struct {
	verbose bool
}

func newRootCmd() *cobra.Command {
	var opts globalOptions
	cmd := &cobra.Command{
		Use:           "tenantctl",
		Short:         "Tenant ownership backfill, verification, NOT NULL promotion and recovery seeding",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log progress at info level")

	cmd.AddCommand(newBackfillCmd(&opts))
	cmd.AddCommand(newVerifyCmd(&opts))
	cmd.AddCommand(newPromoteCmd(&opts))
	cmd.AddCommand(newSeedSuperuserCmd(&opts))
	cmd.AddCommand(newSeedTenantCmd(&opts))
	cmd.AddCommand(newMigrateCmd(&opts))
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(writeFailure(os.Stderr, err))
	}
}

// loadConfig reads configuration without the process singleton so a bad env file is an exit code, not a panic.
func loadConfig() (*configuration.Configuration, error) {
	conf, err := configuration.Load(".env", ".env.local")
	if err != nil {
		return nil, withCode(exitUsage, fmt.Errorf("load configuration: %w", err))
	}
	return conf, nil
}

func commandLogger(conf *configuration.Configuration, opts *globalOptions, name string) *logrus.Entry {
	logger := conf.Logger()
	if opts.verbose && logger.GetLevel() < logrus.InfoLevel {
		logger.SetLevel(logrus.InfoLevel)
	}
	return logger.WithField("cmd", name)
}

// connect opens the database and returns a context carrying it and the command logger.
func connect(ctx context.Context, conf *configuration.Configuration, logger *logrus.Entry) (context.Context, *sqlx.DB, error) {
	db, err := repo.Open(ctx, conf.Database.Opts)
	if err != nil {
		return nil, nil, withCode(exitDB, err)
	}
	ctx = composables.WithLogger(ctx, logger)
	ctx = composables.WithDB(ctx, db)
	return ctx, db, nil
}

func modeFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVar(target, "mode", string(integrity.ModeDryRun), "dry-run (no writes) or apply")
}

func parseModeFlag(raw string) (integrity.Mode, error) {
	mode, err := integrity.ParseMode(raw)
	if err != nil {
		return "", withCode(exitUsage, err)
	}
	return mode, nil
}
