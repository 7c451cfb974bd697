package persistence

import (
	"database/sql"

	"github.com/google/uuid"

	"github.com/iota-uz/tenantguard/modules/core/domain/aggregates/user"
	"github.com/iota-uz/tenantguard/modules/core/domain/entities/session"
	"github.com/iota-uz/tenantguard/modules/core/domain/entities/tenant"
	"github.com/iota-uz/tenantguard/modules/core/infrastructure/persistence/models"
)

func toDomainTenant(t *models.Tenant) (*tenant.Tenant, error) {
	id, err := uuid.Parse(t.ID)
	if err != nil {
		return nil, err
	}
	status, err := tenant.NewStatus(t.Status)
	if err != nil {
		return nil, err
	}
	return tenant.New(
		t.Name,
		tenant.WithID(id),
		tenant.WithDomain(t.Domain.String),
		tenant.WithStatus(status),
		tenant.WithCreatedAt(t.CreatedAt),
		tenant.WithUpdatedAt(t.UpdatedAt),
	), nil
}

func toDomainUser(u *models.User) (*user.User, error) {
	typ, err := user.NewType(u.Type)
	if err != nil {
		return nil, err
	}
	opts := []user.Option{
		user.WithID(u.ID),
		user.WithType(typ),
		user.WithPasswordHash(u.Password.String),
		user.WithCreatedAt(u.CreatedAt),
		user.WithUpdatedAt(u.UpdatedAt),
	}
	if u.TenantID.Valid && u.TenantID.String != "" {
		tenantID, err := uuid.Parse(u.TenantID.String)
		if err != nil {
			return nil, err
		}
		opts = append(opts, user.WithTenantID(tenantID))
	}
	return user.New(u.FirstName, u.LastName, u.Email, opts...), nil
}

// Platform principals are stored with a NULL tenant whatever the aggregate holds.
func tenantIDToSQL(u *user.User) sql.NullString {
	home, ok := u.HomeTenant()
	if !ok {
		return sql.NullString{}
	}
	return sql.NullString{String: home.String(), Valid: true}
}

func toDomainSession(s *models.Session) *session.Session {
	return &session.Session{
		Token:     s.Token,
		UserID:    s.UserID,
		IP:        s.IP,
		UserAgent: s.UserAgent,
		ExpiresAt: s.ExpiresAt,
		CreatedAt: s.CreatedAt,
	}
}
