package persistence_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/tenantguard/pkg/composables"
)

type fixture struct {
	Ctx  context.Context
	Mock sqlmock.Sqlmock
}

func setupTest(t *testing.T) *fixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return &fixture{
		Ctx:  composables.WithDB(context.Background(), sqlx.NewDb(db, "pgx")),
		Mock: mock,
	}
}
