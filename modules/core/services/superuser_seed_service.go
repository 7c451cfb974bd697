package services

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/iota-uz/tenantguard/modules/core/domain/aggregates/user"
	"github.com/iota-uz/tenantguard/pkg/composables"
	"github.com/iota-uz/tenantguard/pkg/configuration"
	"github.com/iota-uz/tenantguard/pkg/constants"
)

type seedInput struct {
	Email    string `validate:"required,email,max=255"`
	Password string `validate:"required,min=8,max=72"`
	Name     string `validate:"required,max=255"`
}

// SuperuserSeedService is the out-of-band recovery path for creating a platform principal.
// It only ever inserts; an existing account is never promoted.
type SuperuserSeedService struct {
	users user.Repository
	opts  configuration.SeedOptions
}

func NewSuperuserSeedService(users user.Repository, opts configuration.SeedOptions) *SuperuserSeedService {
	return &SuperuserSeedService{users: users, opts: opts}
}

func (s *SuperuserSeedService) Seed(ctx context.Context) (*user.User, error) {
	logger := composables.UseLogger(ctx)
	if !s.opts.Enabled {
		logger.Error("superuser seed refused: SEED_SUPERUSER_ENABLED is not set")
		return nil, ErrSeedDisabled
	}

	in := seedInput{Email: s.opts.Email, Password: s.opts.Password, Name: s.opts.Name}
	if err := constants.Validate.Struct(in); err != nil {
		// Only field names are reported; the password value must never reach a log line.
		logger.WithField("email", s.opts.Email).Error("superuser seed refused: SEED_SUPERUSER_EMAIL, SEED_SUPERUSER_PASSWORD and SEED_SUPERUSER_NAME must be valid")
		fields, _ := validationFields(err)
		return nil, &ValidationError{Fields: fields}
	}

	firstName, lastName := splitName(in.Name)
	candidate, err := user.New(firstName, lastName, in.Email, user.WithType(user.TypeSuperAdmin)).SetPassword(in.Password)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password")
	}
	log := logger.WithField("email", candidate.Email())

	var created *user.User
	err = s.users.LockForBootstrap(ctx, func(txCtx context.Context) error {
		n, err := s.users.CountByType(txCtx, user.TypeSuperAdmin)
		if err != nil {
			return errors.Wrap(err, "failed to count platform principals")
		}
		if n > 0 {
			return ErrPlatformPrincipalExists
		}
		existing, err := s.users.GetByEmail(txCtx, candidate.Email())
		if err == nil {
			log.WithField("existing_type", string(existing.Type())).Error("superuser seed refused: email already belongs to an account; use a fresh email")
			return ErrSeedEmailExists
		}
		if !errors.Is(err, user.ErrNotFound) {
			return err
		}
		created, err = s.users.Create(txCtx, candidate)
		return err
	})
	switch {
	case err == nil:
	case errors.Is(err, ErrPlatformPrincipalExists):
		log.Error("superuser seed refused: a platform principal already exists")
		return nil, err
	case errors.Is(err, ErrSeedEmailExists):
		return nil, err
	case errors.Is(err, user.ErrEmailTaken):
		log.Error("superuser seed refused: email already belongs to an account; use a fresh email")
		return nil, ErrSeedEmailExists
	case errors.Is(err, user.ErrConflict):
		log.Error("superuser seed refused: concurrent user creation, retry")
		return nil, err
	default:
		return nil, err
	}

	log.WithField("user_id", created.ID()).Info("superuser seed: platform principal created")
	return created, nil
}
