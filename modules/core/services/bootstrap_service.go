package services

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/tenantguard/modules/core/domain/aggregates/user"
	"github.com/iota-uz/tenantguard/pkg/composables"
)

type BootstrapStatus struct {
	Available bool `json:"bootstrapAvailable"`
}

// BootstrapRegistration is everything the first registration accepts; the role is never an input.
type BootstrapRegistration struct {
	Email    string
	Password string
	Name     string
}

// BootstrapService guards the Empty -> FirstUserCreated transition of the user table.
type BootstrapService struct {
	users user.Repository
}

func NewBootstrapService(users user.Repository) *BootstrapService {
	return &BootstrapService{users: users}
}

func (s *BootstrapService) Status(ctx context.Context) (BootstrapStatus, error) {
	n, err := s.users.Count(ctx)
	if err != nil {
		return BootstrapStatus{}, errors.Wrap(err, "failed to count users")
	}
	return BootstrapStatus{Available: n == 0}, nil
}

// Register creates the first account as a platform principal. Once any user exists it returns
// ErrBootstrapClosed, including for the loser of a concurrent first-registration race.
func (s *BootstrapService) Register(ctx context.Context, reg BootstrapRegistration) (*user.User, error) {
	logger := composables.UseLogger(ctx)
	firstName, lastName := splitName(reg.Name)

	// Hash outside the lock; bcrypt is slow.
	candidate, err := user.New(firstName, lastName, reg.Email, user.WithType(user.TypeSuperAdmin)).SetPassword(reg.Password)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password")
	}

	var created *user.User
	err = s.users.LockForBootstrap(ctx, func(txCtx context.Context) error {
		n, err := s.users.Count(txCtx)
		if err != nil {
			return errors.Wrap(err, "failed to count users")
		}
		if n > 0 {
			return ErrBootstrapClosed
		}
		created, err = s.users.Create(txCtx, candidate)
		return err
	})
	switch {
	case err == nil:
	case errors.Is(err, ErrBootstrapClosed), errors.Is(err, user.ErrConflict):
		logger.WithField("email", candidate.Email()).Info("bootstrap registration refused: a user already exists")
		return nil, ErrBootstrapClosed
	case errors.Is(err, user.ErrEmailTaken):
		return nil, ErrEmailTaken
	default:
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"user_id": created.ID(),
		"email":   created.Email(),
	}).Info("bootstrap: first user created as platform principal")
	return created, nil
}

func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
