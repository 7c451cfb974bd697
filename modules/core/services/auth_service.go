package services

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/iota-uz/tenantguard/modules/core/domain/aggregates/user"
	"github.com/iota-uz/tenantguard/modules/core/domain/entities/session"
)

type AuthService struct {
	users    user.Repository
	sessions session.Repository
	ttl      time.Duration
	now      func() time.Time
}

func NewAuthService(users user.Repository, sessions session.Repository, ttl time.Duration) *AuthService {
	return &AuthService{users: users, sessions: sessions, ttl: ttl, now: time.Now}
}

// Login checks the password and opens a new session.
func (s *AuthService) Login(ctx context.Context, email, password, ip, userAgent string) (*user.User, *session.Session, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if !u.CheckPassword(password) {
		return nil, nil, ErrInvalidCredentials
	}

	token, err := session.NewToken()
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to generate session token")
	}
	now := s.now()
	sess := &session.Session{
		Token:     token,
		UserID:    u.ID(),
		IP:        ip,
		UserAgent: userAgent,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, nil, err
	}
	return u, sess, nil
}

// Authorize resolves a session token to its principal. The principal kind always comes from
// storage, never from the request.
func (s *AuthService) Authorize(ctx context.Context, token string) (*session.Session, *user.User, error) {
	sess, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	if !s.now().Before(sess.ExpiresAt) {
		return nil, nil, ErrSessionExpired
	}
	u, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		return nil, nil, err
	}
	return sess, u, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}
