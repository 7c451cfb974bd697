package repo

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// Tx is satisfied by both *sqlx.DB and *sqlx.Tx so repositories run the same with or without a transaction.
type Tx interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}
