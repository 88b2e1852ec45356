package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/storefront/catalog-api/internal/core/domain"
	"github.com/storefront/catalog-api/internal/core/ports"
)

type UserService struct {
	users  ports.UserRepository
	hasher ports.PasswordHasher
	log    zerolog.Logger
}

func NewUserService(users ports.UserRepository, hasher ports.PasswordHasher, log zerolog.Logger) *UserService {
	return &UserService{users: users, hasher: hasher, log: log}
}

func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	return s.users.List(ctx)
}

func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *UserService) Create(ctx context.Context, input ports.RegisterInput) (*domain.User, error) {
	user, err := newUser(input, s.hasher)
	if err != nil {
		return nil, err
	}
	return s.users.Create(ctx, user)
}

// Update applies a self-service profile change. The target must exist
// (ErrUserNotFound) before ownership is checked (ErrForbidden).
func (s *UserService) Update(ctx context.Context, actor domain.Identity, id int64, input ports.UpdateUserInput) (*domain.User, error) {
	user, err := s.ownedUser(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if input.Email != nil {
		if email := normalizeEmail(*input.Email); email != "" {
			user.Email = email
		}
	}
	if input.FullName != nil {
		if name := strings.TrimSpace(*input.FullName); name != "" {
			user.FullName = name
		}
	}
	if input.Password != nil && *input.Password != "" {
		hash, err := s.hasher.Hash(*input.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	user.UpdatedAt = time.Now().UTC()

	updated, err := s.users.Update(ctx, user)
	if err != nil {
		return nil, err
	}
	s.log.Info().Int64("user_id", id).Msg("user updated")
	return updated, nil
}

// Delete removes the actor's own account, with the same check order as Update.
func (s *UserService) Delete(ctx context.Context, actor domain.Identity, id int64) error {
	if _, err := s.ownedUser(ctx, actor, id); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Int64("user_id", id).Msg("user deleted")
	return nil
}

func (s *UserService) ownedUser(ctx context.Context, actor domain.Identity, id int64) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(user.ID) {
		s.log.Warn().Int64("actor_id", actor.ID).Int64("target_id", id).Msg("cross-user mutation rejected")
		return nil, domain.ErrForbidden
	}
	return user, nil
}
