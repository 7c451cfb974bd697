package persistence

import (
	"context"
	"database/sql"

	"github.com/go-faster/errors"

	"github.com/iota-uz/tenantguard/modules/core/domain/aggregates/user"
	"github.com/iota-uz/tenantguard/modules/core/infrastructure/persistence/models"
	"github.com/iota-uz/tenantguard/pkg/composables"
)

const (
	userFindQuery = `SELECT id, tenant_id, type, email, first_name, last_name, password, created_at, updated_at FROM users`

	userInsertQuery = `
		INSERT INTO users (tenant_id, type, email, first_name, last_name, password, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	// EXCLUSIVE mode still admits plain reads but blocks every other writer and locker.
	userLockQuery = `LOCK TABLE users IN EXCLUSIVE MODE`
)

type UserRepository struct{}

func NewUserRepository() user.Repository {
	return &UserRepository{}
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	return r.queryUser(ctx, userFindQuery+" WHERE id = $1", id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.queryUser(ctx, userFindQuery+" WHERE email = $1", user.NormalizeEmail(email))
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get transaction")
	}
	var count int
	if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, errors.Wrap(err, "failed to count users")
	}
	return count, nil
}

func (r *UserRepository) CountByType(ctx context.Context, t user.Type) (int, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get transaction")
	}
	var count int
	if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM users WHERE type = $1`, string(t)); err != nil {
		return 0, errors.Wrap(err, "failed to count users by type")
	}
	return count, nil
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) (*user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	var password sql.NullString
	if u.Password() != "" {
		password = sql.NullString{String: u.Password(), Valid: true}
	}

	var id int64
	if err := tx.QueryRowxContext(ctx, userInsertQuery,
		tenantIDToSQL(u),
		string(u.Type()),
		u.Email(),
		u.FirstName(),
		u.LastName(),
		password,
		u.CreatedAt(),
		u.UpdatedAt(),
	).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return nil, user.ErrEmailTaken
		}
		if isSerializationFailure(err) {
			return nil, user.ErrConflict
		}
		return nil, errors.Wrap(err, "failed to insert user")
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepository) LockForBootstrap(ctx context.Context, fn func(ctx context.Context) error) error {
	err := composables.InTxWithOptions(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable}, func(txCtx context.Context) error {
		tx, err := composables.UseTx(txCtx)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(txCtx, userLockQuery); err != nil {
			return errors.Wrap(err, "failed to lock users table")
		}
		return fn(txCtx)
	})
	if err != nil && isSerializationFailure(err) {
		return user.ErrConflict
	}
	return err
}

func (r *UserRepository) queryUser(ctx context.Context, query string, args ...interface{}) (*user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	var row models.User
	if err := tx.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to query user")
	}
	return toDomainUser(&row)
}
