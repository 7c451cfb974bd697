package persistence

import (
	"context"
	"database/sql"

	"github.com/go-faster/errors"

	"github.com/iota-uz/tenantguard/modules/core/domain/entities/session"
	"github.com/iota-uz/tenantguard/modules/core/infrastructure/persistence/models"
	"github.com/iota-uz/tenantguard/pkg/composables"
)

var ErrSessionNotFound = errors.New("session not found")

type SessionRepository struct{}

func NewSessionRepository() session.Repository {
	return &SessionRepository{}
}

func (r *SessionRepository) Create(ctx context.Context, s *session.Session) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (token, user_id, ip, user_agent, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		s.Token, s.UserID, s.IP, s.UserAgent, s.ExpiresAt, s.CreatedAt,
	); err != nil {
		return errors.Wrap(err, "failed to insert session")
	}
	return nil
}

func (r *SessionRepository) GetByToken(ctx context.Context, token string) (*session.Session, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	var row models.Session
	if err := tx.GetContext(ctx, &row, `
		SELECT token, user_id, ip, user_agent, expires_at, created_at
		FROM sessions WHERE token = $1`, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, errors.Wrap(err, "failed to query session")
	}
	return toDomainSession(&row), nil
}

func (r *SessionRepository) Delete(ctx context.Context, token string) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE token = $1`, token); err != nil {
		return errors.Wrap(err, "failed to delete session")
	}
	return nil
}
