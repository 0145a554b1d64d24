// Package user contains the user account domain.
package user

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUsernameTaken is returned when registering a username that already exists.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
)

// User represents a registered user account.
// PasswordHash is a bcrypt hash, never the plaintext password.
type User struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store represents a store for user accounts.
type Store interface {
	// Ping returns the status of the backing file.
	Ping(ctx context.Context) error
	// Create persists a new user. Returns ErrUsernameTaken if the username exists.
	Create(ctx context.Context, u *User) error
	// Get returns a user by username. Returns ErrUserNotFound if absent.
	Get(ctx context.Context, username string) (*User, error)
	// List returns all registered usernames.
	List(ctx context.Context) ([]string, error)
	// Delete removes a user by username. Returns ErrUserNotFound if absent.
	Delete(ctx context.Context, username string) error
	// DeleteAll removes every user.
	DeleteAll(ctx context.Context) error
}
