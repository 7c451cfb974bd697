package main

import "github.com/go-faster/errors"

// Exit codes are part of tenantctl's contract with rollout scripts: a promote gated on
// backfill only needs to tell "fix the data" (6) apart from "fix the environment" (3, 4).
const (
	exitOK = 0
	// seed: email, password or name rejected; nothing was written.
	exitValidation = 2
	// Bad flag or unreadable configuration. No database work was attempted.
	exitUsage = 3
	// The database could not be reached or read. verify and dry-runs stop here.
	exitDB = 4
	// A write failed: backfill apply, promote apply, migrate up or a seed insert. Apply modes
	// run in one transaction, so the tables are left as they were.
	exitDBWrite = 5
	// backfill left rows it could not attribute, verify found rows without a tenant, or
	// promote refused to lock the column while such rows exist.
	exitBlocked = 6
	// seed: SEED_SUPERUSER_ENABLED is off, or a user already exists.
	exitRefused = 7
)

var exitReasons = map[int]string{
	exitOK:         "ok",
	exitValidation: "invalid_input",
	exitUsage:      "usage",
	exitDB:         "db_unavailable",
	exitDBWrite:    "db_write_failed",
	exitBlocked:    "unassigned_rows",
	exitRefused:    "seed_refused",
}

// exitReason names a code in the failure line tenantctl prints before exiting.
func exitReason(code int) string {
	if r, ok := exitReasons[code]; ok {
		return r
	}
	return "unexpected"
}

// codedError carries the process exit code through cobra's error return.
type codedError struct {
	code int
	err  error
}

func (e *codedError) Error() string {
	return e.err.Error()
}

func (e *codedError) Unwrap() error {
	return e.err
}

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &codedError{code: code, err: err}
}

// exitCode unwraps to the innermost code; uncategorized errors exit 1.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ce *codedError
	if errors.As(err, &ce) {
		return ce.code
	}
	return 1
}
