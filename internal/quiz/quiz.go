// Package quiz contains the quiz authoring domain: one document per user,
// holding named groups of four-answer multiple-choice questions.
package quiz

import (
	"context"
	"errors"
	"time"
)

// NumAnswers is the number of answers every question carries. Exactly one of
// them is marked correct.
const NumAnswers = 4

var (
	// ErrDocumentNotFound is returned when a user has no quiz document yet.
	ErrDocumentNotFound = errors.New("quiz document not found")
	// ErrGroupNotFound is returned when a group is not found in a document.
	ErrGroupNotFound = errors.New("group not found")
	// ErrGroupExists is returned when creating a group whose title is already
	// used within the same document.
	ErrGroupExists = errors.New("group already exists")
	// ErrCorrectIndexOutOfRange is returned when the 1-based correct answer
	// index is outside 1..NumAnswers.
	ErrCorrectIndexOutOfRange = errors.New("correct answer index out of range")
)

// Answer represents one of the four answers of a question.
type Answer struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// Question represents a multiple-choice question. Questions are immutable
// once created.
type Question struct {
	ID        int       `json:"id"`
	Text      string    `json:"text"`
	Answers   []Answer  `json:"answers"`
	Image     string    `json:"image,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Group represents a named collection of questions, e.g. a subject or topic.
// Titles are unique within the owning document, not globally.
type Group struct {
	ID        int        `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// Document represents the full nested quiz structure owned by one user.
type Document struct {
	ID        int     `json:"id"`
	UserID    int     `json:"user_id"`
	CreatedBy string  `json:"created_by"`
	Groups    []Group `json:"groups"`
}

// NewQuestion carries the fields of a question submission. CorrectIndex is
// 1-based, matching the form field of the HTTP surface.
type NewQuestion struct {
	Text         string
	Answers      [NumAnswers]string
	CorrectIndex int
	Image        string
}

// Store represents a store for quiz documents.
type Store interface {
	// Ping returns the status of the backing file.
	Ping(ctx context.Context) error
	// CreateGroup appends a group to the owner's document, lazily creating
	// the document on first use. Returns the new group id, or ErrGroupExists
	// if the owner already has a group with that title.
	CreateGroup(ctx context.Context, owner, title string) (int, error)
	// AddQuestion appends a question to the named group and returns the new
	// question id. Returns ErrDocumentNotFound or ErrGroupNotFound when the
	// target does not exist, ErrCorrectIndexOutOfRange on a bad index.
	AddQuestion(ctx context.Context, owner, groupTitle string, nq NewQuestion) (int, error)
	// ListAll returns the owner's full document including answers.
	ListAll(ctx context.Context, owner string) (*Document, error)
	// GetTest returns a copy of the named group's questions, optionally
	// shuffling question order and each question's answer order.
	GetTest(ctx context.Context, owner, groupTitle string, shuffleQuestions, shuffleAnswers bool) ([]Question, error)
	// DeleteDocument removes the owner's document. A missing document is not
	// an error.
	DeleteDocument(ctx context.Context, owner string) error
	// DeleteAll removes every document.
	DeleteAll(ctx context.Context) error
}
