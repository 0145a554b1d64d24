package server

import (
	"log/slog"
	"net/http"

	"quizbank/internal/auth"
	"quizbank/internal/client"
	"quizbank/internal/config"
	"quizbank/internal/store"
	"quizbank/internal/upload"
)

func addRoutes(
	mux *http.ServeMux,
	logger *slog.Logger,
	cfg *config.Config,
	stores *store.Stores,
	authService *auth.Service,
	tokens *auth.Tokens,
	saver *upload.Saver,
) {
	authed := func(next http.Handler) http.Handler {
		return requireAuth(logger, tokens, cfg.MaxUploadBytes, next)
	}

	mux.Handle("POST /register", handleRegister(logger, authService))
	mux.Handle("POST /login", handleLogin(logger, authService))

	mux.Handle("GET /users", authed(handleListUsers(logger, stores)))
	mux.Handle("DELETE /users/{username}", authed(handleDeleteUser(logger, stores)))
	mux.Handle("DELETE /users", authed(handleDeleteAllUsers(logger, stores)))

	mux.Handle("POST /groups", authed(handleCreateGroup(logger, stores)))
	mux.Handle("POST /questions", authed(handleCreateQuestion(logger, stores, saver)))
	mux.Handle("GET /questions/all", authed(handleListAll(logger, stores)))
	mux.Handle("GET /questions/test", authed(handleGetTest(logger, stores)))

	mux.Handle("GET /healthz", handleHealthz(logger, stores))
	mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(saver.Dir()))))
	mux.Handle("GET /client/", client.Handler(cfg))
	mux.Handle("/", http.NotFoundHandler())
}
