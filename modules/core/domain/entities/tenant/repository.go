package tenant

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("tenant not found")

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context) ([]*Tenant, error)
	Create(ctx context.Context, t *Tenant) (*Tenant, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Tenant, error)
}
