package store

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"quizbank/internal/jsonfile"
	"quizbank/internal/quiz"
)

// QuizStore is a store for quiz documents backed by a single JSON document
// (data.json in the original layout). Every mutation rewrites the whole
// document; jsonfile serializes the read-modify-write sequence.
type QuizStore struct {
	file   *jsonfile.File[quiz.Document]
	logger *slog.Logger

	// shuffle permutes n elements via swap. Replaceable in tests.
	shuffle func(n int, swap func(i, j int))

	// now returns the current time. Replaceable in tests.
	now func() time.Time
}

// NewQuizStore initializes a QuizStore over the document at path.
func NewQuizStore(path string, logger *slog.Logger) *QuizStore {
	return &QuizStore{
		file:    jsonfile.New[quiz.Document](path),
		logger:  logger,
		shuffle: rand.Shuffle,
		now:     time.Now,
	}
}

// Ping checks that the backing document is readable.
func (s *QuizStore) Ping(_ context.Context) error {
	return s.file.Ping()
}

// CreateGroup appends a group to the owner's document and returns its id.
// The document is created lazily the first time an owner creates a group.
// Returns quiz.ErrGroupExists if the owner already has a group with that title.
func (s *QuizStore) CreateGroup(ctx context.Context, owner, title string) (int, error) {
	var groupID int
	err := s.file.Update(func(docs []quiz.Document) ([]quiz.Document, error) {
		doc := findDocument(docs, owner)
		if doc == nil {
			ordinal := nextDocumentOrdinal(docs)
			docs = append(docs, quiz.Document{
				ID:        ordinal,
				UserID:    ordinal,
				CreatedBy: owner,
			})
			doc = &docs[len(docs)-1]
		}

		for _, g := range doc.Groups {
			if g.Title == title {
				return nil, fmt.Errorf("%w: %q", quiz.ErrGroupExists, title)
			}
		}

		groupID = nextGroupID(doc)
		doc.Groups = append(doc.Groups, quiz.Group{ID: groupID, Title: title})

		return docs, nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.DebugContext(ctx, "group created",
		slog.String("owner", owner), slog.String("title", title), slog.Int("groupID", groupID))

	return groupID, nil
}

// AddQuestion appends a question to the named group of the owner's document
// and returns its id. Exactly the answer at the 1-based CorrectIndex is
// marked correct.
func (s *QuizStore) AddQuestion(ctx context.Context, owner, groupTitle string, nq quiz.NewQuestion) (int, error) {
	if nq.CorrectIndex < 1 || nq.CorrectIndex > quiz.NumAnswers {
		return 0, fmt.Errorf("%w: %d", quiz.ErrCorrectIndexOutOfRange, nq.CorrectIndex)
	}

	answers := make([]quiz.Answer, 0, quiz.NumAnswers)
	for i, text := range nq.Answers {
		answers = append(answers, quiz.Answer{Text: text, IsCorrect: i+1 == nq.CorrectIndex})
	}

	var questionID int
	err := s.file.Update(func(docs []quiz.Document) ([]quiz.Document, error) {
		doc := findDocument(docs, owner)
		if doc == nil {
			return nil, fmt.Errorf("%w: owner %q", quiz.ErrDocumentNotFound, owner)
		}

		group := findGroup(doc, groupTitle)
		if group == nil {
			return nil, fmt.Errorf("%w: %q", quiz.ErrGroupNotFound, groupTitle)
		}

		questionID = nextQuestionID(group)
		group.Questions = append(group.Questions, quiz.Question{
			ID:        questionID,
			Text:      nq.Text,
			Answers:   answers,
			Image:     nq.Image,
			CreatedAt: s.now().UTC(),
		})

		return docs, nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.DebugContext(ctx, "question added",
		slog.String("owner", owner), slog.String("group", groupTitle), slog.Int("questionID", questionID))

	return questionID, nil
}

// ListAll returns the owner's full document, answers included. The document
// is a copy; callers may modify it freely.
func (s *QuizStore) ListAll(_ context.Context, owner string) (*quiz.Document, error) {
	var found *quiz.Document
	err := s.file.View(func(docs []quiz.Document) error {
		doc := findDocument(docs, owner)
		if doc == nil {
			return fmt.Errorf("%w: owner %q", quiz.ErrDocumentNotFound, owner)
		}

		found = copyDocument(doc)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return found, nil
}

// GetTest returns a copy of the named group's questions. When shuffling,
// order is permuted uniformly at random; answer shuffling reorders the four
// answers of each question independently while the correct flag stays with
// its original answer text.
func (s *QuizStore) GetTest(_ context.Context, owner, groupTitle string, shuffleQuestions, shuffleAnswers bool) ([]quiz.Question, error) {
	var questions []quiz.Question
	err := s.file.View(func(docs []quiz.Document) error {
		doc := findDocument(docs, owner)
		if doc == nil {
			return fmt.Errorf("%w: owner %q", quiz.ErrDocumentNotFound, owner)
		}

		group := findGroup(doc, groupTitle)
		if group == nil {
			return fmt.Errorf("%w: %q", quiz.ErrGroupNotFound, groupTitle)
		}

		questions = copyQuestions(group.Questions)

		return nil
	})
	if err != nil {
		return nil, err
	}

	if shuffleQuestions {
		s.shuffle(len(questions), func(i, j int) {
			questions[i], questions[j] = questions[j], questions[i]
		})
	}

	if shuffleAnswers {
		for _, q := range questions {
			answers := q.Answers
			s.shuffle(len(answers), func(i, j int) {
				answers[i], answers[j] = answers[j], answers[i]
			})
		}
	}

	return questions, nil
}

// DeleteDocument removes the owner's document. Deleting an absent document
// is a no-op so the cascade on user deletion stays idempotent.
func (s *QuizStore) DeleteDocument(ctx context.Context, owner string) error {
	err := s.file.Update(func(docs []quiz.Document) ([]quiz.Document, error) {
		for i, doc := range docs {
			if doc.CreatedBy == owner {
				return append(docs[:i], docs[i+1:]...), nil
			}
		}

		return docs, nil
	})
	if err != nil {
		return err
	}

	s.logger.DebugContext(ctx, "quiz document deleted", slog.String("owner", owner))

	return nil
}

// DeleteAll removes every quiz document.
func (s *QuizStore) DeleteAll(ctx context.Context) error {
	err := s.file.Update(func([]quiz.Document) ([]quiz.Document, error) {
		return nil, nil
	})
	if err != nil {
		return err
	}

	s.logger.DebugContext(ctx, "all quiz documents deleted")

	return nil
}

func findDocument(docs []quiz.Document, owner string) *quiz.Document {
	for i := range docs {
		if docs[i].CreatedBy == owner {
			return &docs[i]
		}
	}

	return nil
}

func findGroup(doc *quiz.Document, title string) *quiz.Group {
	for i := range doc.Groups {
		if doc.Groups[i].Title == title {
			return &doc.Groups[i]
		}
	}

	return nil
}

// nextDocumentOrdinal returns the next document ordinal. Ids grow
// monotonically and are never reused after a deletion.
func nextDocumentOrdinal(docs []quiz.Document) int {
	next := 1
	for _, doc := range docs {
		if doc.ID >= next {
			next = doc.ID + 1
		}
		if doc.UserID >= next {
			next = doc.UserID + 1
		}
	}

	return next
}

func nextGroupID(doc *quiz.Document) int {
	next := 1
	for _, g := range doc.Groups {
		if g.ID >= next {
			next = g.ID + 1
		}
	}

	return next
}

func nextQuestionID(group *quiz.Group) int {
	next := 1
	for _, q := range group.Questions {
		if q.ID >= next {
			next = q.ID + 1
		}
	}

	return next
}

func copyDocument(doc *quiz.Document) *quiz.Document {
	out := &quiz.Document{
		ID:        doc.ID,
		UserID:    doc.UserID,
		CreatedBy: doc.CreatedBy,
		Groups:    make([]quiz.Group, 0, len(doc.Groups)),
	}
	for _, g := range doc.Groups {
		out.Groups = append(out.Groups, quiz.Group{
			ID:        g.ID,
			Title:     g.Title,
			Questions: copyQuestions(g.Questions),
		})
	}

	return out
}

func copyQuestions(questions []quiz.Question) []quiz.Question {
	out := make([]quiz.Question, 0, len(questions))
	for _, q := range questions {
		c := q
		c.Answers = make([]quiz.Answer, len(q.Answers))
		copy(c.Answers, q.Answers)
		out = append(out, c)
	}

	return out
}
