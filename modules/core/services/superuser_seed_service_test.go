package services_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/tenantguard/modules/core/domain/aggregates/user"
	"github.com/iota-uz/tenantguard/modules/core/services"
	"github.com/iota-uz/tenantguard/modules/core/testhelpers"
	"github.com/iota-uz/tenantguard/pkg/composables"
	"github.com/iota-uz/tenantguard/pkg/configuration"
)

const seedPassword = "s3cret-recovery-pass"

func seedContext(t *testing.T) (context.Context, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	logger := logrus.New()
	logger.SetOutput(buf)
	logger.SetLevel(logrus.DebugLevel)
	return composables.WithLogger(context.Background(), logrus.NewEntry(logger)), buf
}

func enabledSeed() configuration.SeedOptions {
	return configuration.SeedOptions{
		Enabled:  true,
		Email:    "recovery@example.com",
		Password: seedPassword,
		Name:     "Recovery Operator",
	}
}

func TestSuperuserSeedService_Seed(t *testing.T) {
	t.Run("Creates_Platform_Principal", func(t *testing.T) {
		ctx, logs := seedContext(t)
		repo := testhelpers.NewUserRepository(user.New("Jo", "Doe", "jo@example.com", user.WithTenantID(uuid.New())))

		u, err := services.NewSuperuserSeedService(repo, enabledSeed()).Seed(ctx)
		require.NoError(t, err)
		assert.True(t, u.IsPlatform())
		assert.Len(t, repo.All(), 2)
		assert.Contains(t, logs.String(), "platform principal created")
		assert.NotContains(t, logs.String(), seedPassword)
	})

	t.Run("Refuses_Without_Gate", func(t *testing.T) {
		ctx, logs := seedContext(t)
		repo := testhelpers.NewUserRepository()
		opts := enabledSeed()
		opts.Enabled = false

		_, err := services.NewSuperuserSeedService(repo, opts).Seed(ctx)
		require.ErrorIs(t, err, services.ErrSeedDisabled)
		assert.Empty(t, repo.All())
		assert.Contains(t, logs.String(), "SEED_SUPERUSER_ENABLED is not set")
	})

	t.Run("Refuses_When_Platform_Principal_Exists", func(t *testing.T) {
		ctx, logs := seedContext(t)
		repo := testhelpers.NewUserRepository(user.New("Root", "", "root@example.com", user.WithType(user.TypeSuperAdmin)))

		_, err := services.NewSuperuserSeedService(repo, enabledSeed()).Seed(ctx)
		require.ErrorIs(t, err, services.ErrPlatformPrincipalExists)
		assert.Len(t, repo.All(), 1)
		assert.Contains(t, logs.String(), "a platform principal already exists")
		assert.NotContains(t, logs.String(), seedPassword)
	})

	t.Run("Refuses_To_Promote_Existing_Email", func(t *testing.T) {
		ctx, logs := seedContext(t)
		existing := user.New("Recovery", "", "recovery@example.com", user.WithTenantID(uuid.New()))
		repo := testhelpers.NewUserRepository(existing)

		_, err := services.NewSuperuserSeedService(repo, enabledSeed()).Seed(ctx)
		require.ErrorIs(t, err, services.ErrSeedEmailExists)

		all := repo.All()
		require.Len(t, all, 1)
		assert.False(t, all[0].IsPlatform())
		assert.Contains(t, logs.String(), "use a fresh email")
		assert.NotContains(t, logs.String(), seedPassword)
	})

	t.Run("Rejects_Invalid_Input", func(t *testing.T) {
		ctx, logs := seedContext(t)
		repo := testhelpers.NewUserRepository()
		opts := enabledSeed()
		opts.Email = "not-an-email"

		_, err := services.NewSuperuserSeedService(repo, opts).Seed(ctx)
		var verr *services.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "Email")
		assert.Empty(t, repo.All())
		assert.NotContains(t, logs.String(), seedPassword)
	})
}
