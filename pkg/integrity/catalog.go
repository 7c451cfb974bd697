package integrity

import (
	"context"
	"database/sql"

	"github.com/go-faster/errors"
	"github.com/jmoiron/sqlx"
)

var ErrColumnNotFound = errors.New("column not found")

// Catalog reports column constraints from the database schema.
type Catalog interface {
	NotNull(ctx context.Context, q sqlx.QueryerContext, table, column string) (bool, error)
}

type PostgresCatalog struct{}

func (PostgresCatalog) NotNull(ctx context.Context, q sqlx.QueryerContext, table, column string) (bool, error) {
	var nullable string
	err := sqlx.GetContext(ctx, q, &nullable,
		`SELECT is_nullable FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = $1 AND column_name = $2`,
		table, column,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return false, errors.Wrapf(ErrColumnNotFound, "%s.%s", table, column)
	}
	if err != nil {
		return false, errors.Wrapf(err, "inspect %s.%s", table, column)
	}
	return nullable == "NO", nil
}
