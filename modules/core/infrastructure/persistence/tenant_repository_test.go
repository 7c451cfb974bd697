package persistence_test

import (
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/tenantguard/modules/core/domain/entities/tenant"
	"github.com/iota-uz/tenantguard/modules/core/infrastructure/persistence"
)

func TestTenantRepository_Exists(t *testing.T) {
	f := setupTest(t)
	id := uuid.New()
	f.Mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM tenants WHERE id = $1)`)).
		WithArgs(id.String()).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := persistence.NewTenantRepository().Exists(f.Ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTenantRepository_GetByID(t *testing.T) {
	t.Run("Maps_Row", func(t *testing.T) {
		f := setupTest(t)
		id := uuid.New()
		now := time.Now()
		f.Mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, domain, status, created_at, updated_at FROM tenants WHERE id = $1`)).
			WithArgs(id.String()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "domain", "status", "created_at", "updated_at"}).
				AddRow(id.String(), "Acme", "acme.example.com", "suspended", now, now))

		got, err := persistence.NewTenantRepository().GetByID(f.Ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, got.ID())
		assert.Equal(t, tenant.StatusSuspended, got.Status())
		assert.False(t, got.IsActive())
	})

	t.Run("Missing_Row", func(t *testing.T) {
		f := setupTest(t)
		f.Mock.ExpectQuery(regexp.QuoteMeta(`FROM tenants WHERE id = $1`)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "domain", "status", "created_at", "updated_at"}))

		_, err := persistence.NewTenantRepository().GetByID(f.Ctx, uuid.New())
		require.ErrorIs(t, err, persistence.ErrTenantNotFound)
	})
}

func TestTenantRepository_UpdateStatus_Missing(t *testing.T) {
	f := setupTest(t)
	f.Mock.ExpectExec(regexp.QuoteMeta(`UPDATE tenants SET status = $1`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := persistence.NewTenantRepository().UpdateStatus(f.Ctx, uuid.New(), tenant.StatusInactive)
	require.ErrorIs(t, err, persistence.ErrTenantNotFound)
}
