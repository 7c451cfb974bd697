// Package testhelpers holds in-memory repositories for service, middleware and controller tests.
package testhelpers

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/iota-uz/tenantguard/modules/core/domain/aggregates/user"
	"github.com/iota-uz/tenantguard/modules/core/domain/entities/session"
	"github.com/iota-uz/tenantguard/modules/core/domain/entities/tenant"
	"github.com/iota-uz/tenantguard/modules/core/infrastructure/persistence"
)

// UserRepository serializes LockForBootstrap callers the way the table lock does in Postgres.
type UserRepository struct {
	lock   sync.Mutex
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*user.User
}

var _ user.Repository = (*UserRepository)(nil)

func NewUserRepository(users ...*user.User) *UserRepository {
	r := &UserRepository{byID: map[int64]*user.User{}}
	for _, u := range users {
		if _, err := r.Create(context.Background(), u); err != nil {
			panic(err)
		}
	}
	return r
}

func (r *UserRepository) GetByID(_ context.Context, id int64) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	email = user.NormalizeEmail(email)
	for _, u := range r.byID {
		if u.Email() == email {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (r *UserRepository) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID), nil
}

func (r *UserRepository) CountByType(_ context.Context, t user.Type) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, u := range r.byID {
		if u.Type() == t {
			n++
		}
	}
	return n, nil
}

func (r *UserRepository) Create(_ context.Context, u *user.User) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.Email() == u.Email() {
			return nil, user.ErrEmailTaken
		}
	}
	r.nextID++
	opts := []user.Option{
		user.WithID(r.nextID),
		user.WithType(u.Type()),
		user.WithPasswordHash(u.Password()),
		user.WithCreatedAt(u.CreatedAt()),
		user.WithUpdatedAt(u.UpdatedAt()),
	}
	if home, ok := u.HomeTenant(); ok {
		opts = append(opts, user.WithTenantID(home))
	}
	stored := user.New(u.FirstName(), u.LastName(), u.Email(), opts...)
	r.byID[stored.ID()] = stored
	return stored, nil
}

func (r *UserRepository) LockForBootstrap(ctx context.Context, fn func(ctx context.Context) error) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	return fn(ctx)
}

// All returns the stored users ordered by id.
func (r *UserRepository) All() []*user.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*user.User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

type TenantRepository struct {
	mu      sync.Mutex
	tenants map[uuid.UUID]*tenant.Tenant
}

var _ tenant.Repository = (*TenantRepository)(nil)

func NewTenantRepository(tenants ...*tenant.Tenant) *TenantRepository {
	r := &TenantRepository{tenants: map[uuid.UUID]*tenant.Tenant{}}
	for _, t := range tenants {
		r.tenants[t.ID()] = t
	}
	return r
}

func (r *TenantRepository) GetByID(_ context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tenants[id]
	if !ok {
		return nil, persistence.ErrTenantNotFound
	}
	return t, nil
}

func (r *TenantRepository) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tenants[id]
	return ok, nil
}

func (r *TenantRepository) List(_ context.Context) ([]*tenant.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*tenant.Tenant, 0, len(r.tenants))
	for _, t := range r.tenants {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out, nil
}

func (r *TenantRepository) Create(_ context.Context, t *tenant.Tenant) (*tenant.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tenants[t.ID()] = t
	return t, nil
}

func (r *TenantRepository) UpdateStatus(_ context.Context, id uuid.UUID, status tenant.Status) (*tenant.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tenants[id]
	if !ok {
		return nil, persistence.ErrTenantNotFound
	}
	t.SetStatus(status)
	return t, nil
}

// Delete simulates a tenant removed out from under an impersonating operator.
func (r *TenantRepository) Delete(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tenants, id)
}

type SessionRepository struct {
	mu       sync.Mutex
	sessions map[string]*session.Session
}

var _ session.Repository = (*SessionRepository)(nil)

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: map[string]*session.Session{}}
}

func (r *SessionRepository) Create(_ context.Context, s *session.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.Token] = s
	return nil
}

func (r *SessionRepository) GetByToken(_ context.Context, token string) (*session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[token]
	if !ok {
		return nil, persistence.ErrSessionNotFound
	}
	return s, nil
}

func (r *SessionRepository) Delete(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, token)
	return nil
}
