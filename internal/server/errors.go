package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"quizbank/internal/auth"
	"quizbank/internal/httputil"
	"quizbank/internal/logging"
	"quizbank/internal/quiz"
	"quizbank/internal/upload"
	"quizbank/internal/user"
)

// respondError maps a store or service error to its HTTP status. Unmapped
// errors are logged and surfaced as a generic 500.
func respondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var validationErrs validator.ValidationErrors

	status := http.StatusInternalServerError
	detail := "internal server error"

	switch {
	case errors.Is(err, user.ErrUsernameTaken),
		errors.Is(err, quiz.ErrGroupExists):
		status = http.StatusConflict
		detail = err.Error()
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken):
		status = http.StatusUnauthorized
		detail = "invalid credentials"
	case errors.Is(err, user.ErrUserNotFound),
		errors.Is(err, quiz.ErrDocumentNotFound),
		errors.Is(err, quiz.ErrGroupNotFound):
		status = http.StatusNotFound
		detail = err.Error()
	case errors.Is(err, quiz.ErrCorrectIndexOutOfRange),
		errors.Is(err, upload.ErrImageTooLarge),
		errors.Is(err, upload.ErrImageTypeNotAllowed),
		errors.As(err, &validationErrs):
		status = http.StatusUnprocessableEntity
		detail = err.Error()
	}

	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed", logging.ErrAttr(err))
	}

	if encErr := httputil.ErrorJSON(w, status, detail); encErr != nil {
		logger.ErrorContext(r.Context(), "error encoding error response", logging.ErrAttr(encErr))
	}
}
