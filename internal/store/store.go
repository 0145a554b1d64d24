// Package store provides the application's file-backed data stores.
package store

import (
	"log/slog"

	"quizbank/internal/quiz"
	"quizbank/internal/user"
)

// Stores is a collection of stores for the application.
type Stores struct {
	Users   user.Store
	Quizzes quiz.Store
}

// New initializes the stores over the given backing documents.
func New(usersPath, dataPath string, logger *slog.Logger) *Stores {
	return &Stores{
		Users:   NewUserStore(usersPath, logger),
		Quizzes: NewQuizStore(dataPath, logger),
	}
}
