package main

import (
	"context"
	"io"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/iota-uz/tenantguard/modules/core/domain/aggregates/user"
	"github.com/iota-uz/tenantguard/modules/core/infrastructure/persistence"
	"github.com/iota-uz/tenantguard/modules/core/services"
	"github.com/iota-uz/tenantguard/pkg/configuration"
)

type seedResult struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	Type   string `json:"type"`
}

func newSeedSuperuserCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-superuser",
		Short: "Create a platform principal out of band (requires SEED_SUPERUSER_ENABLED=true)",
		Long: "Reads SEED_SUPERUSER_EMAIL, SEED_SUPERUSER_PASSWORD and SEED_SUPERUSER_NAME. " +
			"Refuses when a platform principal exists or the email is taken; existing accounts are never promoted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := loadConfig()
			if err != nil {
				return err
			}
			logger := commandLogger(conf, global, "seed-superuser")
			// The gate is checked before touching the database.
			if !conf.Seed.Enabled {
				logger.Error("superuser seed refused: SEED_SUPERUSER_ENABLED is not set")
				return withCode(exitRefused, services.ErrSeedDisabled)
			}
			ctx, db, err := connect(cmd.Context(), conf, logger)
			if err != nil {
				return err
			}
			defer db.Close()
			return runSeed(ctx, cmd.OutOrStdout(), persistence.NewUserRepository(), conf.Seed)
		},
	}
}

func runSeed(ctx context.Context, out io.Writer, users user.Repository, opts configuration.SeedOptions) error {
	created, err := services.NewSuperuserSeedService(users, opts).Seed(ctx)
	if err != nil {
		var verr *services.ValidationError
		switch {
		case errors.Is(err, services.ErrSeedDisabled),
			errors.Is(err, services.ErrPlatformPrincipalExists),
			errors.Is(err, services.ErrSeedEmailExists):
			return withCode(exitRefused, err)
		case errors.As(err, &verr):
			return withCode(exitValidation, err)
		default:
			return withCode(exitDBWrite, err)
		}
	}
	return writeJSONLine(out, seedResult{
		UserID: created.ID(),
		Email:  created.Email(),
		Type:   string(created.Type()),
	})
}
