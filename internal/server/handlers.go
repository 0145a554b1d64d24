package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"quizbank/internal/auth"
	"quizbank/internal/httputil"
	"quizbank/internal/logging"
	"quizbank/internal/quiz"
	"quizbank/internal/store"
	"quizbank/internal/upload"
)

var validate = validator.New()

// tokenResponse is the shape returned by both register and login.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Username    string `json:"username"`
}

type credentialsForm struct {
	Username string `validate:"required,max=64"`
	Password string `validate:"required,max=128"`
}

// handleRegister registers a new user and returns a session token.
func handleRegister(logger *slog.Logger, authService *auth.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		form := credentialsForm{
			Username: r.FormValue("username"),
			Password: r.FormValue("password"),
		}
		if err := validate.Struct(form); err != nil {
			respondError(w, r, logger, err)

			return
		}

		token, err := authService.Register(r.Context(), form.Username, form.Password)
		if err != nil {
			respondError(w, r, logger, err)

			return
		}

		logger.InfoContext(r.Context(), "user registered", slog.String("username", form.Username))

		res := tokenResponse{AccessToken: token, TokenType: "bearer", Username: form.Username}
		if err = httputil.EncodeJSON(w, http.StatusCreated, res); err != nil {
			logger.ErrorContext(r.Context(), "error encoding tokenResponse", logging.ErrAttr(err))
		}
	})
}

// handleLogin authenticates a user and returns a fresh session token.
func handleLogin(logger *slog.Logger, authService *auth.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		form := credentialsForm{
			Username: r.FormValue("username"),
			Password: r.FormValue("password"),
		}
		if err := validate.Struct(form); err != nil {
			respondError(w, r, logger, err)

			return
		}

		token, err := authService.Authenticate(r.Context(), form.Username, form.Password)
		if err != nil {
			logger.InfoContext(r.Context(), "login failed", slog.String("username", form.Username))
			respondError(w, r, logger, err)

			return
		}

		logger.InfoContext(r.Context(), "user logged in", slog.String("username", form.Username))

		res := tokenResponse{AccessToken: token, TokenType: "bearer", Username: form.Username}
		if err = httputil.EncodeJSON(w, http.StatusOK, res); err != nil {
			logger.ErrorContext(r.Context(), "error encoding tokenResponse", logging.ErrAttr(err))
		}
	})
}

// handleListUsers returns all registered usernames.
func handleListUsers(logger *slog.Logger, stores *store.Stores) http.Handler {
	type userResponse struct {
		Username string `json:"username"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		usernames, err := stores.Users.List(r.Context())
		if err != nil {
			respondError(w, r, logger, err)

			return
		}

		res := make([]userResponse, 0, len(usernames))
		for _, username := range usernames {
			res = append(res, userResponse{Username: username})
		}

		if err = httputil.EncodeJSON(w, http.StatusOK, res); err != nil {
			logger.ErrorContext(r.Context(), "error encoding userResponse list", logging.ErrAttr(err))
		}
	})
}

// handleDeleteUser deletes the authenticated user's own account together
// with their quiz document.
func handleDeleteUser(logger *slog.Logger, stores *store.Stores) http.Handler {
	type deleteResponse struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username := r.PathValue("username")

		if _, err := stores.Users.Get(r.Context(), username); err != nil {
			respondError(w, r, logger, err)

			return
		}

		if username != usernameFromContext(r.Context()) {
			err := httputil.ErrorJSON(w, http.StatusForbidden, "you can only delete your own account")
			if err != nil {
				logger.ErrorContext(r.Context(), "error encoding forbidden response", logging.ErrAttr(err))
			}

			return
		}

		if err := stores.Quizzes.DeleteDocument(r.Context(), username); err != nil {
			respondError(w, r, logger, err)

			return
		}
		if err := stores.Users.Delete(r.Context(), username); err != nil {
			respondError(w, r, logger, err)

			return
		}

		logger.InfoContext(r.Context(), "user deleted", slog.String("username", username))

		res := deleteResponse{Message: fmt.Sprintf("user %q deleted", username)}
		if err := httputil.EncodeJSON(w, http.StatusOK, res); err != nil {
			logger.ErrorContext(r.Context(), "error encoding deleteResponse", logging.ErrAttr(err))
		}
	})
}

// handleDeleteAllUsers clears both stores.
func handleDeleteAllUsers(logger *slog.Logger, stores *store.Stores) http.Handler {
	type deleteResponse struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := stores.Users.DeleteAll(r.Context()); err != nil {
			respondError(w, r, logger, err)

			return
		}
		if err := stores.Quizzes.DeleteAll(r.Context()); err != nil {
			respondError(w, r, logger, err)

			return
		}

		logger.InfoContext(r.Context(), "all users and quiz data deleted")

		res := deleteResponse{Message: "all users and questions deleted"}
		if err := httputil.EncodeJSON(w, http.StatusOK, res); err != nil {
			logger.ErrorContext(r.Context(), "error encoding deleteResponse", logging.ErrAttr(err))
		}
	})
}

// handleCreateGroup creates a named question group for the authenticated user.
func handleCreateGroup(logger *slog.Logger, stores *store.Stores) http.Handler {
	type groupForm struct {
		Title string `validate:"required,max=128"`
	}

	type groupResponse struct {
		Message string `json:"message"`
		GroupID int    `json:"group_id"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		form := groupForm{Title: r.FormValue("title")}
		if err := validate.Struct(form); err != nil {
			respondError(w, r, logger, err)

			return
		}

		owner := usernameFromContext(r.Context())
		groupID, err := stores.Quizzes.CreateGroup(r.Context(), owner, form.Title)
		if err != nil {
			respondError(w, r, logger, err)

			return
		}

		res := groupResponse{
			Message: fmt.Sprintf("group %q created", form.Title),
			GroupID: groupID,
		}
		if err = httputil.EncodeJSON(w, http.StatusCreated, res); err != nil {
			logger.ErrorContext(r.Context(), "error encoding groupResponse", logging.ErrAttr(err))
		}
	})
}

// handleCreateQuestion adds a question, with an optional image upload, to one
// of the authenticated user's groups.
func handleCreateQuestion(logger *slog.Logger, stores *store.Stores, saver *upload.Saver) http.Handler {
	type questionForm struct {
		GroupTitle    string `validate:"required"`
		Text          string `validate:"required"`
		Answer1       string `validate:"required"`
		Answer2       string `validate:"required"`
		Answer3       string `validate:"required"`
		Answer4       string `validate:"required"`
		CorrectAnswer int    `validate:"required,min=1,max=4"`
	}

	type questionResponse struct {
		Message    string `json:"message"`
		QuestionID int    `json:"question_id"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		correctAnswer, err := strconv.Atoi(r.FormValue("correct_answer"))
		if err != nil {
			respondError(w, r, logger, fmt.Errorf("%w: %q", quiz.ErrCorrectIndexOutOfRange, r.FormValue("correct_answer")))

			return
		}

		form := questionForm{
			GroupTitle:    r.FormValue("group_title"),
			Text:          r.FormValue("text"),
			Answer1:       r.FormValue("answer1"),
			Answer2:       r.FormValue("answer2"),
			Answer3:       r.FormValue("answer3"),
			Answer4:       r.FormValue("answer4"),
			CorrectAnswer: correctAnswer,
		}
		if err = validate.Struct(form); err != nil {
			respondError(w, r, logger, err)

			return
		}

		imagePath, err := saveImage(r, saver)
		if err != nil {
			respondError(w, r, logger, err)

			return
		}

		owner := usernameFromContext(r.Context())
		questionID, err := stores.Quizzes.AddQuestion(r.Context(), owner, form.GroupTitle, quiz.NewQuestion{
			Text:         form.Text,
			Answers:      [quiz.NumAnswers]string{form.Answer1, form.Answer2, form.Answer3, form.Answer4},
			CorrectIndex: form.CorrectAnswer,
			Image:        imagePath,
		})
		if err != nil {
			respondError(w, r, logger, err)

			return
		}

		res := questionResponse{
			Message:    fmt.Sprintf("question added to group %q", form.GroupTitle),
			QuestionID: questionID,
		}
		if err = httputil.EncodeJSON(w, http.StatusCreated, res); err != nil {
			logger.ErrorContext(r.Context(), "error encoding questionResponse", logging.ErrAttr(err))
		}
	})
}

// saveImage stores the optional "image" part of the multipart form and
// returns its public relative path, or "" when no image was uploaded.
func saveImage(r *http.Request, saver *upload.Saver) (string, error) {
	file, fh, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "", nil
		}

		return "", fmt.Errorf("failed to read image form file: %w", err)
	}
	_ = file.Close()

	return saver.Save(fh)
}

// handleListAll returns the authenticated user's full quiz document,
// answers included. This endpoint serves the question author, who is trusted
// to see which answers are correct.
func handleListAll(logger *slog.Logger, stores *store.Stores) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner := usernameFromContext(r.Context())
		doc, err := stores.Quizzes.ListAll(r.Context(), owner)
		if err != nil {
			respondError(w, r, logger, err)

			return
		}

		if err = httputil.EncodeJSON(w, http.StatusOK, doc); err != nil {
			logger.ErrorContext(r.Context(), "error encoding document", logging.ErrAttr(err))
		}
	})
}

// handleGetTest returns a test set from one group, shuffled by default.
func handleGetTest(logger *slog.Logger, stores *store.Stores) http.Handler {
	type testForm struct {
		GroupTitle string `validate:"required"`
	}

	type testResponse struct {
		GroupTitle       string          `json:"group_title"`
		TotalQuestions   int             `json:"total_questions"`
		ShuffleQuestions bool            `json:"shuffle_questions"`
		ShuffleAnswers   bool            `json:"shuffle_answers"`
		Questions        []quiz.Question `json:"questions"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		form := testForm{GroupTitle: r.URL.Query().Get("group_title")}
		if err := validate.Struct(form); err != nil {
			respondError(w, r, logger, err)

			return
		}

		shuffleQuestions := boolQuery(r, "shuffle_questions", true)
		shuffleAnswers := boolQuery(r, "shuffle_answers", true)

		owner := usernameFromContext(r.Context())
		questions, err := stores.Quizzes.GetTest(r.Context(), owner, form.GroupTitle, shuffleQuestions, shuffleAnswers)
		if err != nil {
			respondError(w, r, logger, err)

			return
		}

		res := testResponse{
			GroupTitle:       form.GroupTitle,
			TotalQuestions:   len(questions),
			ShuffleQuestions: shuffleQuestions,
			ShuffleAnswers:   shuffleAnswers,
			Questions:        questions,
		}
		if err = httputil.EncodeJSON(w, http.StatusOK, res); err != nil {
			logger.ErrorContext(r.Context(), "error encoding testResponse", logging.ErrAttr(err))
		}
	})
}

// boolQuery parses a boolean query parameter, returning def when the
// parameter is absent or unparsable.
func boolQuery(r *http.Request, key string, def bool) bool {
	val := r.URL.Query().Get(key)
	if val == "" {
		return def
	}

	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return def
	}

	return parsed
}

// handleHealthz reports the server status and per-store checks.
func handleHealthz(logger *slog.Logger, stores *store.Stores) http.Handler {
	type healthStatus struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks,omitempty"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		httpStatus := http.StatusOK
		health := healthStatus{
			Status: "ok",
			Checks: make(map[string]string),
		}

		checks := map[string]func() error{
			"users":   func() error { return stores.Users.Ping(ctx) },
			"quizzes": func() error { return stores.Quizzes.Ping(ctx) },
		}
		for name, check := range checks {
			if err := check(); err != nil {
				health.Status = "degraded"
				health.Checks[name] = fmt.Sprintf("unhealthy: %v", err)
				httpStatus = http.StatusServiceUnavailable
			} else {
				health.Checks[name] = "healthy"
			}
		}

		if err := httputil.EncodeJSON(w, httpStatus, health); err != nil {
			logger.ErrorContext(ctx, "error encoding healthStatus", logging.ErrAttr(err))
		}
	})
}
