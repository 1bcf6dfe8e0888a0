package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mrahman/messbook/internal/auth"
	"github.com/mrahman/messbook/internal/models"
)

// AuthService handles account registration and login, delegating
// credential work to the auth package.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
}

// NewAuthService creates a new AuthService.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
	}
}

// Session is an authenticated identity plus its bearer token.
type Session struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// Register creates a new account and returns a live session.
func (s *AuthService) Register(ctx context.Context, email, fullName, password string) (*Session, error) {
	if email == "" || fullName == "" {
		return nil, fmt.Errorf("email and full name required: %w", ErrInvalidInput)
	}

	user, err := s.authenticator.Register(ctx, email, fullName, password)
	if err != nil {
		slog.Warn("registration failed", "email", email, "error", err)
		if errors.Is(err, auth.ErrWeakPassword) {
			return nil, fmt.Errorf("%v: %w", err, ErrInvalidInput)
		}
		if errors.Is(err, auth.ErrEmailExists) {
			return nil, fmt.Errorf("%v: %w", err, ErrDuplicate)
		}
		return nil, err
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		return nil, err
	}

	slog.Info("user registered", "user_id", user.ID, "email", user.Email)
	return &Session{User: user, Token: token}, nil
}

// Login authenticates an existing account.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.authenticator.Authenticate(ctx, email, password)
	if err != nil {
		slog.Warn("login failed", "email", email)
		return nil, fmt.Errorf("%v: %w", auth.ErrInvalidCredentials, ErrUnauthenticated)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		return nil, err
	}

	slog.Info("user logged in", "user_id", user.ID)
	return &Session{User: user, Token: token}, nil
}
