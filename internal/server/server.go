// Package server contains everything related to the HTTP server.
package server

import (
	"net/http"

	"log/slog"

	"quizbank/internal/auth"
	"quizbank/internal/config"
	"quizbank/internal/store"
	"quizbank/internal/upload"
)

// New creates the application handler with all routes and middleware wired.
func New(
	logger *slog.Logger,
	cfg *config.Config,
	stores *store.Stores,
	authService *auth.Service,
	tokens *auth.Tokens,
	saver *upload.Saver,
) http.Handler {
	mux := http.NewServeMux()
	addRoutes(mux, logger, cfg, stores, authService, tokens, saver)

	var handler http.Handler = mux
	handler = corsMiddleware(cfg.AllowedOrigins, handler)

	return handler
}
