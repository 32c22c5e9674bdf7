package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"rollcall/pkg/interfaces"
	"rollcall/pkg/types"
)

// Service implements signup, login and token-based account lookup against
// the user store.
type Service struct {
	users  interfaces.UserStore
	tokens *TokenService
}

func NewService(users interfaces.UserStore, tokens *TokenService) *Service {
	return &Service{users: users, tokens: tokens}
}

// Signup creates an account with a hashed password and returns it.
// The email must not already be registered.
func (s *Service) Signup(ctx context.Context, name, email, password, role string) (*types.User, error) {
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, interfaces.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing email: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &types.User{
		ID:       uuid.New().String(),
		Name:     name,
		Email:    email,
		Password: hash,
		Role:     role,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, interfaces.ErrEmailTaken) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Login verifies the credentials and returns a signed bearer token.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, interfaces.ErrUserNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to look up user: %w", err)
	}
	if !CheckPassword(user.Password, password) {
		return "", ErrInvalidCredentials
	}
	return s.tokens.Issue(user.ID, user.Role)
}

// Me resolves a bearer token to the full account behind it.
func (s *Service) Me(ctx context.Context, token string) (*types.User, error) {
	identity, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	return s.users.GetUser(ctx, identity.UserID)
}

// Tokens exposes the verifier for transport-level authentication.
func (s *Service) Tokens() *TokenService {
	return s.tokens
}
