// Package integrity repairs and locks down tenant ownership of rows in tenant-owned tables.
package integrity

import (
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type Mode string

const (
	ModeDryRun Mode = "dry-run"
	ModeApply  Mode = "apply"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeDryRun, ModeApply:
		return Mode(s), nil
	case "":
		return ModeDryRun, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want dry-run or apply)", s)
	}
}

type Options struct {
	Mode Mode
	// TxOptions for the transaction every tool runs in. Nil uses the driver default.
	TxOptions *sql.TxOptions
}

func (o Options) mode() Mode {
	if o.Mode == "" {
		return ModeDryRun
	}
	return o.Mode
}

// finish commits the transaction in apply mode and rolls it back otherwise.
func finish(tx *sqlx.Tx, mode Mode) error {
	if mode == ModeApply {
		return tx.Commit()
	}
	return tx.Rollback()
}
