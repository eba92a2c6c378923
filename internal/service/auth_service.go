package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"fsanano/mini-shop/internal/auth"
	"fsanano/mini-shop/internal/model"
	"fsanano/mini-shop/internal/repository"
)

type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type AuthService struct {
	users  repository.UserRepository
	tokens *auth.TokenManager
}

func NewAuthService(users repository.UserRepository, tokens *auth.TokenManager) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Signup(ctx context.Context, email, password string) (*model.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", model.ErrInvalidInput)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: email already registered", model.ErrConflict)
	} else if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{Email: email, PasswordHash: hash, Role: model.RoleCustomer}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("New user signed up: id=%d", user.ID)
	return user, nil
}

var errBadCredentials = fmt.Errorf("%w: incorrect email or password", model.ErrUnauthorized)

// Login answers unknown emails and wrong passwords with the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Token, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, errBadCredentials
		}
		return nil, err
	}

	ok, err := auth.CheckPassword(user.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errBadCredentials
	}

	accessToken, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &Token{AccessToken: accessToken, TokenType: "bearer", ExpiresAt: expiresAt}, nil
}

// Authenticate resolves a bearer token to the caller as currently stored, so a
// deleted user or a changed role takes effect before the token expires.
func (s *AuthService) Authenticate(ctx context.Context, token string) (auth.Identity, error) {
	claimed, err := s.tokens.Parse(token)
	if err != nil {
		return auth.Identity{}, err
	}

	user, err := s.users.GetByID(ctx, claimed.UserID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return auth.Identity{}, fmt.Errorf("%w: user no longer exists", model.ErrUnauthorized)
		}
		return auth.Identity{}, err
	}

	return auth.Identity{UserID: user.ID, Email: user.Email, Role: user.Role}, nil
}
