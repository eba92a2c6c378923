package service

import (
	"context"
	"fmt"
	"log"

	"fsanano/mini-shop/internal/auth"
	"fsanano/mini-shop/internal/model"
	"fsanano/mini-shop/internal/repository"
)

type UserService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// ProfileUpdate carries the fields a user may change on their own account.
// Nil fields are left untouched.
type ProfileUpdate struct {
	Email    *string
	Password *string
}

func (s *UserService) Me(ctx context.Context, id auth.Identity) (*model.User, error) {
	return s.users.GetByID(ctx, id.UserID)
}

func (s *UserService) UpdateProfile(ctx context.Context, id auth.Identity, update ProfileUpdate) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id.UserID)
	if err != nil {
		return nil, err
	}

	if update.Email != nil {
		email := normalizeEmail(*update.Email)
		if email == "" {
			return nil, fmt.Errorf("%w: email must not be empty", model.ErrInvalidInput)
		}
		user.Email = email
	}
	if update.Password != nil {
		if *update.Password == "" {
			return nil, fmt.Errorf("%w: password must not be empty", model.ErrInvalidInput)
		}
		hash, err := auth.HashPassword(*update.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) DeleteSelf(ctx context.Context, id auth.Identity) (*model.User, error) {
	return s.delete(ctx, id.UserID)
}

func (s *UserService) List(ctx context.Context, id auth.Identity, page Page) ([]model.User, error) {
	if err := auth.RequireRole(id, model.RoleAdmin); err != nil {
		return nil, err
	}
	if err := page.validate(); err != nil {
		return nil, err
	}
	return s.users.List(ctx, page.Skip, page.Limit)
}

func (s *UserService) ChangeRole(ctx context.Context, id auth.Identity, userID int64, role string) (*model.User, error) {
	if err := auth.RequireRole(id, model.RoleAdmin); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	parsed, err := model.ParseRole(role)
	if err != nil {
		return nil, err
	}

	user.Role = parsed
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("User %d role changed to %s by admin %d", user.ID, user.Role, id.UserID)
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id auth.Identity, userID int64) (*model.User, error) {
	if err := auth.RequireRole(id, model.RoleAdmin); err != nil {
		return nil, err
	}
	return s.delete(ctx, userID)
}

func (s *UserService) delete(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return nil, err
	}
	return user, nil
}
