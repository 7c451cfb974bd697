package user

import "context"

type Repository interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Count(ctx context.Context) (int, error)
	CountByType(ctx context.Context, t Type) (int, error)
	Create(ctx context.Context, u *User) (*User, error)
	// LockForBootstrap runs fn in a serializable transaction holding an exclusive lock on users,
	// so count-then-insert sequences cannot interleave.
	LockForBootstrap(ctx context.Context, fn func(ctx context.Context) error) error
}
