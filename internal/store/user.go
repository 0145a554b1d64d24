package store

import (
	"context"
	"fmt"
	"log/slog"

	"quizbank/internal/jsonfile"
	"quizbank/internal/user"
)

// UserStore is a store for user accounts backed by a JSON document
// (users.json in the original layout).
type UserStore struct {
	file   *jsonfile.File[user.User]
	logger *slog.Logger
}

// NewUserStore initializes a UserStore over the document at path.
func NewUserStore(path string, logger *slog.Logger) *UserStore {
	return &UserStore{file: jsonfile.New[user.User](path), logger: logger}
}

// Ping checks that the backing document is readable.
func (s *UserStore) Ping(_ context.Context) error {
	return s.file.Ping()
}

// Create persists a new user.
// Returns user.ErrUsernameTaken if the username is already registered.
func (s *UserStore) Create(ctx context.Context, u *user.User) error {
	err := s.file.Update(func(users []user.User) ([]user.User, error) {
		for _, existing := range users {
			if existing.Username == u.Username {
				return nil, fmt.Errorf("%w: %q", user.ErrUsernameTaken, u.Username)
			}
		}

		return append(users, *u), nil
	})
	if err != nil {
		return err
	}

	s.logger.DebugContext(ctx, "user created", slog.String("username", u.Username))

	return nil
}

// Get returns a user by username.
// Returns user.ErrUserNotFound if the username is not registered.
func (s *UserStore) Get(_ context.Context, username string) (*user.User, error) {
	var found *user.User
	err := s.file.View(func(users []user.User) error {
		for _, u := range users {
			if u.Username == username {
				found = &user.User{
					Username:     u.Username,
					PasswordHash: u.PasswordHash,
					CreatedAt:    u.CreatedAt,
				}

				return nil
			}
		}

		return fmt.Errorf("%w: %q", user.ErrUserNotFound, username)
	})
	if err != nil {
		return nil, err
	}

	return found, nil
}

// List returns all registered usernames.
func (s *UserStore) List(_ context.Context) ([]string, error) {
	usernames := make([]string, 0)
	err := s.file.View(func(users []user.User) error {
		for _, u := range users {
			usernames = append(usernames, u.Username)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return usernames, nil
}

// Delete removes a user by username.
// Returns user.ErrUserNotFound if the username is not registered.
func (s *UserStore) Delete(ctx context.Context, username string) error {
	err := s.file.Update(func(users []user.User) ([]user.User, error) {
		for i, u := range users {
			if u.Username == username {
				return append(users[:i], users[i+1:]...), nil
			}
		}

		return nil, fmt.Errorf("%w: %q", user.ErrUserNotFound, username)
	})
	if err != nil {
		return err
	}

	s.logger.DebugContext(ctx, "user deleted", slog.String("username", username))

	return nil
}

// DeleteAll removes every user.
func (s *UserStore) DeleteAll(ctx context.Context) error {
	err := s.file.Update(func([]user.User) ([]user.User, error) {
		return nil, nil
	})
	if err != nil {
		return err
	}

	s.logger.DebugContext(ctx, "all users deleted")

	return nil
}
