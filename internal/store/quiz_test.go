package store_test

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sync/errgroup"

	"quizbank/internal/quiz"
	. "quizbank/internal/store"
)

func newTestQuizStore(t *testing.T) *QuizStore {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewQuizStore(filepath.Join(t.TempDir(), "data.json"), logger)
}

func newTestQuestion(correctIndex int) quiz.NewQuestion {
	return quiz.NewQuestion{
		Text:         "What is 2+2?",
		Answers:      [quiz.NumAnswers]string{"3", "4", "5", "6"},
		CorrectIndex: correctIndex,
	}
}

func TestQuizStore_CreateGroup(t *testing.T) {
	t.Parallel()

	t.Run("lazily creates the document", func(t *testing.T) {
		t.Parallel()

		quizzes := newTestQuizStore(t)

		groupID, err := quizzes.CreateGroup(t.Context(), "alice", "Math")
		if err != nil {
			t.Fatalf("failed to create group: %v", err)
		}
		if groupID != 1 {
			t.Errorf("groupID = %d, want 1", groupID)
		}

		doc, err := quizzes.ListAll(t.Context(), "alice")
		if err != nil {
			t.Fatalf("failed to list document: %v", err)
		}
		if doc.ID != 1 || doc.UserID != 1 || doc.CreatedBy != "alice" {
			t.Errorf("document = %+v, want ordinal 1 created by alice", doc)
		}
	})

	t.Run("group ids grow within the document", func(t *testing.T) {
		t.Parallel()

		quizzes := newTestQuizStore(t)

		for i, title := range []string{"Math", "Physics", "History"} {
			groupID, err := quizzes.CreateGroup(t.Context(), "alice", title)
			if err != nil {
				t.Fatalf("failed to create group %q: %v", title, err)
			}
			if want := i + 1; groupID != want {
				t.Errorf("groupID = %d, want %d", groupID, want)
			}
		}
	})

	t.Run("duplicate title conflicts", func(t *testing.T) {
		t.Parallel()

		quizzes := newTestQuizStore(t)

		if _, err := quizzes.CreateGroup(t.Context(), "alice", "Algebra"); err != nil {
			t.Fatalf("failed to create group: %v", err)
		}

		_, err := quizzes.CreateGroup(t.Context(), "alice", "Algebra")
		if !errors.Is(err, quiz.ErrGroupExists) {
			t.Errorf("got %v, want ErrGroupExists", err)
		}
	})

	t.Run("title uniqueness is scoped per user", func(t *testing.T) {
		t.Parallel()

		quizzes := newTestQuizStore(t)

		if _, err := quizzes.CreateGroup(t.Context(), "alice", "Algebra"); err != nil {
			t.Fatalf("failed to create group for alice: %v", err)
		}
		if _, err := quizzes.CreateGroup(t.Context(), "bob", "Algebra"); err != nil {
			t.Errorf("creating the same title for bob failed: %v", err)
		}
	})
}

func TestQuizStore_AddQuestion(t *testing.T) {
	t.Parallel()

	t.Run("marks exactly the chosen answer correct", func(t *testing.T) {
		t.Parallel()

		for _, correctIndex := range []int{1, 2, 3, 4} {
			quizzes := newTestQuizStore(t)

			if _, err := quizzes.CreateGroup(t.Context(), "alice", "Math"); err != nil {
				t.Fatalf("failed to create group: %v", err)
			}

			nq := newTestQuestion(correctIndex)
			questionID, err := quizzes.AddQuestion(t.Context(), "alice", "Math", nq)
			if err != nil {
				t.Fatalf("failed to add question: %v", err)
			}
			if questionID != 1 {
				t.Errorf("questionID = %d, want 1", questionID)
			}

			doc, err := quizzes.ListAll(t.Context(), "alice")
			if err != nil {
				t.Fatalf("failed to list document: %v", err)
			}

			answers := doc.Groups[0].Questions[0].Answers
			if len(answers) != quiz.NumAnswers {
				t.Fatalf("got %d answers, want %d", len(answers), quiz.NumAnswers)
			}
			correct := 0
			for i, a := range answers {
				if a.Text != nq.Answers[i] {
					t.Errorf("answer %d text = %q, want %q", i, a.Text, nq.Answers[i])
				}
				if a.IsCorrect {
					correct++
					if want := nq.Answers[correctIndex-1]; a.Text != want {
						t.Errorf("correct answer text = %q, want %q", a.Text, want)
					}
				}
			}
			if correct != 1 {
				t.Errorf("got %d correct answers, want exactly 1", correct)
			}
		}
	})

	t.Run("records a creation timestamp", func(t *testing.T) {
		t.Parallel()

		quizzes := newTestQuizStore(t)
		now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		quizzes.SetNow(func() time.Time { return now })

		if _, err := quizzes.CreateGroup(t.Context(), "alice", "Math"); err != nil {
			t.Fatalf("failed to create group: %v", err)
		}
		if _, err := quizzes.AddQuestion(t.Context(), "alice", "Math", newTestQuestion(1)); err != nil {
			t.Fatalf("failed to add question: %v", err)
		}

		doc, err := quizzes.ListAll(t.Context(), "alice")
		if err != nil {
			t.Fatalf("failed to list document: %v", err)
		}
		if got := doc.Groups[0].Questions[0].CreatedAt; !got.Equal(now) {
			t.Errorf("CreatedAt = %v, want %v", got, now)
		}
	})

	t.Run("correct index out of range", func(t *testing.T) {
		t.Parallel()

		quizzes := newTestQuizStore(t)

		if _, err := quizzes.CreateGroup(t.Context(), "alice", "Math"); err != nil {
			t.Fatalf("failed to create group: %v", err)
		}

		for _, correctIndex := range []int{0, -1, 5} {
			_, err := quizzes.AddQuestion(t.Context(), "alice", "Math", newTestQuestion(correctIndex))
			if !errors.Is(err, quiz.ErrCorrectIndexOutOfRange) {
				t.Errorf("correctIndex %d: got %v, want ErrCorrectIndexOutOfRange", correctIndex, err)
			}
		}
	})

	t.Run("missing document", func(t *testing.T) {
		t.Parallel()

		quizzes := newTestQuizStore(t)

		_, err := quizzes.AddQuestion(t.Context(), "nobody", "Math", newTestQuestion(1))
		if !errors.Is(err, quiz.ErrDocumentNotFound) {
			t.Errorf("got %v, want ErrDocumentNotFound", err)
		}
	})

	t.Run("missing group", func(t *testing.T) {
		t.Parallel()

		quizzes := newTestQuizStore(t)

		if _, err := quizzes.CreateGroup(t.Context(), "alice", "Math"); err != nil {
			t.Fatalf("failed to create group: %v", err)
		}

		_, err := quizzes.AddQuestion(t.Context(), "alice", "Physics", newTestQuestion(1))
		if !errors.Is(err, quiz.ErrGroupNotFound) {
			t.Errorf("got %v, want ErrGroupNotFound", err)
		}
	})
}

// Concurrent writers to the same group must all succeed and receive
// distinct, gapless question ids.
func TestQuizStore_AddQuestion_Concurrent(t *testing.T) {
	t.Parallel()

	const writers = 16

	quizzes := newTestQuizStore(t)

	if _, err := quizzes.CreateGroup(t.Context(), "alice", "Math"); err != nil {
		t.Fatalf("failed to create group: %v", err)
	}

	ids := make([]int, writers)
	var g errgroup.Group
	for i := range writers {
		g.Go(func() error {
			id, err := quizzes.AddQuestion(t.Context(), "alice", "Math", newTestQuestion(1))
			ids[i] = id

			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent add failed: %v", err)
	}

	sort.Ints(ids)
	for i, id := range ids {
		if want := i + 1; id != want {
			t.Fatalf("ids = %v, want gapless 1..%d", ids, writers)
		}
	}
}

func TestQuizStore_ListAll(t *testing.T) {
	t.Parallel()

	t.Run("missing document", func(t *testing.T) {
		t.Parallel()

		quizzes := newTestQuizStore(t)

		_, err := quizzes.ListAll(t.Context(), "nobody")
		if !errors.Is(err, quiz.ErrDocumentNotFound) {
			t.Errorf("got %v, want ErrDocumentNotFound", err)
		}
	})

	t.Run("returns the full nested document", func(t *testing.T) {
		t.Parallel()

		quizzes := newTestQuizStore(t)
		now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		quizzes.SetNow(func() time.Time { return now })

		if _, err := quizzes.CreateGroup(t.Context(), "alice", "Math"); err != nil {
			t.Fatalf("failed to create group: %v", err)
		}
		if _, err := quizzes.AddQuestion(t.Context(), "alice", "Math", newTestQuestion(2)); err != nil {
			t.Fatalf("failed to add question: %v", err)
		}

		got, err := quizzes.ListAll(t.Context(), "alice")
		if err != nil {
			t.Fatalf("failed to list document: %v", err)
		}

		want := &quiz.Document{
			ID:        1,
			UserID:    1,
			CreatedBy: "alice",
			Groups: []quiz.Group{
				{
					ID:    1,
					Title: "Math",
					Questions: []quiz.Question{
						{
							ID:   1,
							Text: "What is 2+2?",
							Answers: []quiz.Answer{
								{Text: "3"},
								{Text: "4", IsCorrect: true},
								{Text: "5"},
								{Text: "6"},
							},
							CreatedAt: now,
						},
					},
				},
			},
		}
		if diff := cmp.Diff(got, want); diff != "" {
			t.Errorf("document diff (-got +want):\n%s", diff)
		}
	})
}

func TestQuizStore_GetTest(t *testing.T) {
	t.Parallel()

	seed := func(t *testing.T, quizzes *QuizStore) {
		t.Helper()

		if _, err := quizzes.CreateGroup(t.Context(), "alice", "Math"); err != nil {
			t.Fatalf("failed to create group: %v", err)
		}
		for i, text := range []string{"Q1", "Q2", "Q3"} {
			nq := quiz.NewQuestion{
				Text:         text,
				Answers:      [quiz.NumAnswers]string{"A", "B", "C", "D"},
				CorrectIndex: i + 1,
			}
			if _, err := quizzes.AddQuestion(t.Context(), "alice", "Math", nq); err != nil {
				t.Fatalf("failed to add question: %v", err)
			}
		}
	}

	t.Run("missing group", func(t *testing.T) {
		t.Parallel()

		quizzes := newTestQuizStore(t)
		seed(t, quizzes)

		_, err := quizzes.GetTest(t.Context(), "alice", "Physics", false, false)
		if !errors.Is(err, quiz.ErrGroupNotFound) {
			t.Errorf("got %v, want ErrGroupNotFound", err)
		}
	})

	t.Run("missing document", func(t *testing.T) {
		t.Parallel()

		quizzes := newTestQuizStore(t)

		_, err := quizzes.GetTest(t.Context(), "nobody", "Math", false, false)
		if !errors.Is(err, quiz.ErrDocumentNotFound) {
			t.Errorf("got %v, want ErrDocumentNotFound", err)
		}
	})

	t.Run("no shuffle keeps insertion order", func(t *testing.T) {
		t.Parallel()

		quizzes := newTestQuizStore(t)
		seed(t, quizzes)

		questions, err := quizzes.GetTest(t.Context(), "alice", "Math", false, false)
		if err != nil {
			t.Fatalf("failed to get test: %v", err)
		}

		for i, want := range []string{"Q1", "Q2", "Q3"} {
			if questions[i].Text != want {
				t.Errorf("questions[%d].Text = %q, want %q", i, questions[i].Text, want)
			}
			for j, text := range []string{"A", "B", "C", "D"} {
				if questions[i].Answers[j].Text != text {
					t.Errorf("questions[%d].Answers[%d].Text = %q, want %q", i, j, questions[i].Answers[j].Text, text)
				}
			}
		}
	})

	t.Run("question shuffle applies the injected permutation", func(t *testing.T) {
		t.Parallel()

		quizzes := newTestQuizStore(t)
		seed(t, quizzes)

		// Reverse the slice by swapping ends towards the middle.
		quizzes.SetShuffle(func(n int, swap func(i, j int)) {
			for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
				swap(i, j)
			}
		})

		questions, err := quizzes.GetTest(t.Context(), "alice", "Math", true, false)
		if err != nil {
			t.Fatalf("failed to get test: %v", err)
		}

		for i, want := range []string{"Q3", "Q2", "Q1"} {
			if questions[i].Text != want {
				t.Errorf("questions[%d].Text = %q, want %q", i, questions[i].Text, want)
			}
		}
	})

	t.Run("answer shuffle keeps correctness with its text", func(t *testing.T) {
		t.Parallel()

		quizzes := newTestQuizStore(t)
		seed(t, quizzes)

		// Many rounds with the real random source: the answers must always
		// be a permutation of the original four texts, and the correct flag
		// must always sit on the originally designated text.
		for range 50 {
			questions, err := quizzes.GetTest(t.Context(), "alice", "Math", false, true)
			if err != nil {
				t.Fatalf("failed to get test: %v", err)
			}

			for i, q := range questions {
				texts := make([]string, 0, quiz.NumAnswers)
				correct := make([]string, 0, 1)
				for _, a := range q.Answers {
					texts = append(texts, a.Text)
					if a.IsCorrect {
						correct = append(correct, a.Text)
					}
				}
				sort.Strings(texts)
				if diff := cmp.Diff(texts, []string{"A", "B", "C", "D"}); diff != "" {
					t.Fatalf("answer texts diff (-got +want):\n%s", diff)
				}

				// seed marks answer i+1 correct for question i.
				wantCorrect := []string{"ABCD"[i : i+1]}
				if diff := cmp.Diff(correct, wantCorrect); diff != "" {
					t.Fatalf("correct answers diff (-got +want):\n%s", diff)
				}
			}
		}
	})

	t.Run("shuffle does not mutate the stored document", func(t *testing.T) {
		t.Parallel()

		quizzes := newTestQuizStore(t)
		seed(t, quizzes)

		for range 10 {
			if _, err := quizzes.GetTest(t.Context(), "alice", "Math", true, true); err != nil {
				t.Fatalf("failed to get test: %v", err)
			}
		}

		questions, err := quizzes.GetTest(t.Context(), "alice", "Math", false, false)
		if err != nil {
			t.Fatalf("failed to get test: %v", err)
		}

		for i, want := range []string{"Q1", "Q2", "Q3"} {
			if questions[i].Text != want {
				t.Errorf("questions[%d].Text = %q, want %q", i, questions[i].Text, want)
			}
		}
	})
}

func TestQuizStore_DeleteDocument(t *testing.T) {
	t.Parallel()

	quizzes := newTestQuizStore(t)

	if _, err := quizzes.CreateGroup(t.Context(), "alice", "Math"); err != nil {
		t.Fatalf("failed to create group: %v", err)
	}

	if err := quizzes.DeleteDocument(t.Context(), "alice"); err != nil {
		t.Fatalf("failed to delete document: %v", err)
	}

	_, err := quizzes.ListAll(t.Context(), "alice")
	if !errors.Is(err, quiz.ErrDocumentNotFound) {
		t.Errorf("got %v, want ErrDocumentNotFound", err)
	}

	// Deleting again is a no-op, keeping the user-delete cascade idempotent.
	if err = quizzes.DeleteDocument(t.Context(), "alice"); err != nil {
		t.Errorf("second delete failed: %v", err)
	}
}

func TestQuizStore_DocumentOrdinals(t *testing.T) {
	t.Parallel()

	quizzes := newTestQuizStore(t)

	for i, owner := range []string{"alice", "bob", "carol"} {
		if _, err := quizzes.CreateGroup(t.Context(), owner, "Math"); err != nil {
			t.Fatalf("failed to create group for %s: %v", owner, err)
		}

		doc, err := quizzes.ListAll(t.Context(), owner)
		if err != nil {
			t.Fatalf("failed to list document for %s: %v", owner, err)
		}
		if want := i + 1; doc.ID != want || doc.UserID != want {
			t.Errorf("%s document ordinal = %d/%d, want %d", owner, doc.ID, doc.UserID, want)
		}
	}

	// A deleted ordinal below the maximum is never handed out again.
	if err := quizzes.DeleteDocument(t.Context(), "bob"); err != nil {
		t.Fatalf("failed to delete bob's document: %v", err)
	}
	if _, err := quizzes.CreateGroup(t.Context(), "dave", "Math"); err != nil {
		t.Fatalf("failed to create group for dave: %v", err)
	}
	doc, err := quizzes.ListAll(t.Context(), "dave")
	if err != nil {
		t.Fatalf("failed to list document for dave: %v", err)
	}
	if doc.ID != 4 {
		t.Errorf("dave document ordinal = %d, want 4", doc.ID)
	}
}
