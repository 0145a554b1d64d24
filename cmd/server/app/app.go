// Package app contains the main entrypoint for the server.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	"quizbank/internal/auth"
	"quizbank/internal/config"
	"quizbank/internal/logging"
	"quizbank/internal/server"
	"quizbank/internal/store"
	"quizbank/internal/upload"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Run starts the application server: parses configuration, opens the
// file-backed stores, and listens for incoming requests until ctx is
// canceled or an interrupt arrives. When ln is nil, Run listens on the
// configured host and port.
func Run(
	ctx context.Context,
	getenv func(string) string,
	stdout io.Writer,
	ln net.Listener,
) error {
	var err error
	mainCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	var cfg *config.Config
	if cfg, err = config.Parse(getenv); err != nil {
		return fmt.Errorf("error parsing config: %w", err)
	}

	logger := logging.New(stdout, cfg.IsProduction())

	stores := store.New(cfg.UsersFile, cfg.DataFile, logger)
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	authService := auth.NewService(stores.Users, tokens)

	saver, err := upload.NewSaver(cfg.UploadsDir, cfg.MaxUploadBytes, cfg.AllowedImageTypes)
	if err != nil {
		msg := "error preparing uploads directory"
		logger.ErrorContext(ctx, msg, logging.ErrAttr(err))

		return fmt.Errorf("%s: %w", msg, err)
	}

	srv := server.New(logger, cfg, stores, authService, tokens, saver)
	if ln == nil {
		listenConfig := &net.ListenConfig{}
		ln, err = listenConfig.Listen(mainCtx, "tcp", net.JoinHostPort(cfg.Host, cfg.Port))
		if err != nil {
			return fmt.Errorf("error listening on %s:%s: %w", cfg.Host, cfg.Port, err)
		}
	}

	httpServer := &http.Server{
		ReadHeaderTimeout: readHeaderTimeout,
		Handler:           srv,
	}
	go func() {
		logger.InfoContext(ctx, "listening on "+ln.Addr().String(), slog.String("addr", ln.Addr().String()))
		logger.InfoContext(ctx, fmt.Sprintf("visit http://%s/client/ for endpoint documentation", ln.Addr().String()))
		httpErr := httpServer.Serve(ln)
		if httpErr != nil && !errors.Is(httpErr, http.ErrServerClosed) {
			logger.ErrorContext(ctx, "error listening and serving", logging.ErrAttr(httpErr))
		}
	}()
	var wg sync.WaitGroup
	wg.Go(func() {
		<-mainCtx.Done()
		// make a new context for the Shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, shutdownTimeout)
		defer shutdownCancel()
		if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.ErrorContext(shutdownCtx, "error shutting down server", logging.ErrAttr(shutdownErr))
		}
	})
	wg.Wait()

	return nil
}
