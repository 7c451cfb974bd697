package persistence_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/tenantguard/modules/superadmin/infrastructure/persistence"
	"github.com/iota-uz/tenantguard/pkg/composables"
)

func setup(t *testing.T) (context.Context, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return composables.WithDB(context.Background(), sqlx.NewDb(db, "pgx")), mock
}

func TestTenantDirectoryRepository_List(t *testing.T) {
	ctx, mock := setup(t)
	acme := uuid.New()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM tenants t")).WillReturnRows(
		sqlmock.NewRows([]string{"id", "name", "domain", "status", "user_count", "created_at", "updated_at"}).
			AddRow(acme.String(), "Acme", "acme.test", "active", 3, now, now),
	)

	infos, err := persistence.NewPgTenantDirectoryRepository().List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, acme, infos[0].ID)
	assert.Equal(t, 3, infos[0].UserCount)
	assert.Equal(t, "acme.test", infos[0].Domain)
}

func TestTenantDirectoryRepository_Metrics(t *testing.T) {
	ctx, mock := setup(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("AS active_session_count")).WithArgs(now).WillReturnRows(
		sqlmock.NewRows([]string{"tenant_count", "active_tenant_count", "user_count", "platform_user_count", "active_session_count"}).
			AddRow(4, 3, 20, 1, 7),
	)

	m, err := persistence.NewPgTenantDirectoryRepository().Metrics(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 4, m.TenantCount)
	assert.Equal(t, 3, m.ActiveTenantCount)
	assert.Equal(t, 1, m.PlatformUserCount)
	assert.Equal(t, 7, m.ActiveSessionCount)
}
