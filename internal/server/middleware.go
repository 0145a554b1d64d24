package server

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"quizbank/internal/auth"
	"quizbank/internal/httputil"
	"quizbank/internal/logging"
)

type contextKey int

const usernameContextKey contextKey = iota

// formBodySlack is added on top of the upload limit when capping request
// bodies, leaving room for the non-file form fields and multipart framing.
const formBodySlack = 1 << 20

// requireAuth verifies the bearer token and stores the authenticated
// username in the request context. The token is taken from the
// Authorization header, falling back to a "token" form or query value.
func requireAuth(logger *slog.Logger, tokens *auth.Tokens, maxUploadBytes int64, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+formBodySlack)

		tokenString := bearerToken(r)
		if tokenString == "" {
			tokenString = r.FormValue("token")
		}
		if tokenString == "" {
			respondUnauthorized(w, r, logger, "missing bearer token")

			return
		}

		username, err := tokens.Verify(tokenString)
		if err != nil {
			logger.DebugContext(r.Context(), "token rejected", logging.ErrAttr(err))
			respondUnauthorized(w, r, logger, "invalid or expired token")

			return
		}

		ctx := context.WithValue(r.Context(), usernameContextKey, username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// usernameFromContext returns the authenticated username stored by requireAuth.
func usernameFromContext(ctx context.Context) string {
	username, _ := ctx.Value(usernameContextKey).(string)

	return username
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}

	return ""
}

func respondUnauthorized(w http.ResponseWriter, r *http.Request, logger *slog.Logger, detail string) {
	if err := httputil.ErrorJSON(w, http.StatusUnauthorized, detail); err != nil {
		logger.ErrorContext(r.Context(), "error encoding unauthorized response", logging.ErrAttr(err))
	}
}

// corsMiddleware handles CORS preflight and response headers for the
// configured origins.
func corsMiddleware(allowedOrigins []string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && slices.Contains(allowedOrigins, origin) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			h.Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)

			return
		}

		next.ServeHTTP(w, r)
	})
}
