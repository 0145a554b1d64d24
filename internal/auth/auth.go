// Package auth provides password hashing, session token issuance, and the
// register/login flows on top of the user store.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quizbank/internal/user"
)

var (
	// ErrInvalidCredentials is returned when a username or password is wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned when a token is malformed, tampered with,
	// or expired.
	ErrInvalidToken = errors.New("invalid token")
)

// Service implements the credential flows: register a new account, or
// authenticate an existing one, both returning a fresh session token.
type Service struct {
	users  user.Store
	tokens *Tokens
}

// NewService initializes a Service over the given user store and token issuer.
func NewService(users user.Store, tokens *Tokens) *Service {
	return &Service{users: users, tokens: tokens}
}

// Register creates a new user with a hashed password and returns a session
// token. Returns user.ErrUsernameTaken if the username exists.
func (s *Service) Register(ctx context.Context, username, password string) (string, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return "", err
	}

	err = s.users.Create(ctx, &user.User{
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create user: %w", err)
	}

	return s.tokens.Issue(username)
}

// Authenticate verifies a username/password pair and returns a fresh session
// token. An unknown username and a wrong password both map to
// ErrInvalidCredentials so callers cannot probe for registered names.
func (s *Service) Authenticate(ctx context.Context, username, password string) (string, error) {
	u, err := s.users.Get(ctx, username)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return "", ErrInvalidCredentials
		}

		return "", fmt.Errorf("failed to get user: %w", err)
	}

	if err = CheckPassword(password, u.PasswordHash); err != nil {
		return "", err
	}

	return s.tokens.Issue(username)
}
