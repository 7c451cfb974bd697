package persistence_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/tenantguard/modules/core/domain/aggregates/user"
	"github.com/iota-uz/tenantguard/modules/core/infrastructure/persistence"
)

var userColumns = []string{"id", "tenant_id", "type", "email", "first_name", "last_name", "password", "created_at", "updated_at"}

func TestUserRepository_LockForBootstrap(t *testing.T) {
	t.Run("Locks_Then_Runs_Callback_In_Tx", func(t *testing.T) {
		f := setupTest(t)
		f.Mock.ExpectBegin()
		f.Mock.ExpectExec(regexp.QuoteMeta(`LOCK TABLE users IN EXCLUSIVE MODE`)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		f.Mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM users`)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		f.Mock.ExpectCommit()

		repo := persistence.NewUserRepository()
		var seen int
		err := repo.LockForBootstrap(f.Ctx, func(ctx context.Context) error {
			n, err := repo.Count(ctx)
			seen = n
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, 0, seen)
	})

	t.Run("Serialization_Failure_Maps_To_Conflict", func(t *testing.T) {
		f := setupTest(t)
		f.Mock.ExpectBegin()
		f.Mock.ExpectExec(regexp.QuoteMeta(`LOCK TABLE users IN EXCLUSIVE MODE`)).
			WillReturnError(&pgconn.PgError{Code: "40001"})
		f.Mock.ExpectRollback()

		repo := persistence.NewUserRepository()
		err := repo.LockForBootstrap(f.Ctx, func(ctx context.Context) error {
			t.Fatal("callback must not run without the lock")
			return nil
		})
		require.ErrorIs(t, err, user.ErrConflict)
	})

	t.Run("Callback_Error_Rolls_Back", func(t *testing.T) {
		f := setupTest(t)
		f.Mock.ExpectBegin()
		f.Mock.ExpectExec(regexp.QuoteMeta(`LOCK TABLE users IN EXCLUSIVE MODE`)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		f.Mock.ExpectRollback()

		sentinel := errors.New("closed")
		err := persistence.NewUserRepository().LockForBootstrap(f.Ctx, func(ctx context.Context) error {
			return sentinel
		})
		require.ErrorIs(t, err, sentinel)
	})
}

func TestUserRepository_Create(t *testing.T) {
	t.Run("Unique_Violation_Maps_To_EmailTaken", func(t *testing.T) {
		f := setupTest(t)
		f.Mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
			WillReturnError(&pgconn.PgError{Code: "23505"})

		u := user.New("Ada", "Lovelace", "ada@example.com", user.WithType(user.TypeSuperAdmin))
		_, err := persistence.NewUserRepository().Create(f.Ctx, u)
		require.ErrorIs(t, err, user.ErrEmailTaken)
	})

	t.Run("Platform_Principal_Stored_Without_Tenant", func(t *testing.T) {
		f := setupTest(t)
		now := time.Now()
		f.Mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
			WithArgs(nil, "superadmin", "ada@example.com", "Ada", "Lovelace", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
		f.Mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, tenant_id, type, email`)).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows(userColumns).
				AddRow(7, nil, "superadmin", "ada@example.com", "Ada", "Lovelace", nil, now, now))

		u := user.New("Ada", "Lovelace", " Ada@Example.com ", user.WithType(user.TypeSuperAdmin))
		created, err := persistence.NewUserRepository().Create(f.Ctx, u)
		require.NoError(t, err)
		assert.Equal(t, int64(7), created.ID())
		assert.True(t, created.IsPlatform())
		_, ok := created.HomeTenant()
		assert.False(t, ok)
	})
}

func TestUserRepository_GetByEmail_NotFound(t *testing.T) {
	f := setupTest(t)
	f.Mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, tenant_id, type, email`)).
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns))

	_, err := persistence.NewUserRepository().GetByEmail(f.Ctx, "Nobody@example.com")
	require.ErrorIs(t, err, user.ErrNotFound)
}
