package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/muntakson/salama/internal/sessions"
)

// AdminAuth guards admin routes with a session token
type AdminAuth struct {
	store sessions.Store
}

// NewAdminAuth creates admin auth middleware backed by store
func NewAdminAuth(store sessions.Store) *AdminAuth {
	return &AdminAuth{store: store}
}

// Authenticate verifies the session token from the Authorization header.
// Supports formats: "Bearer <token>" or a raw token.
func (m *AdminAuth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractSessionToken(r)
		if token == "" {
			respondError(w, http.StatusUnauthorized, "missing_session", "provide Authorization header with Bearer session token")
			return
		}

		if err := m.store.Valid(r.Context(), token); err != nil {
			if errors.Is(err, sessions.ErrInvalidSession) {
				slog.Warn("invalid admin session", "token_prefix", maskToken(token), "remote_addr", r.RemoteAddr)
				respondError(w, http.StatusUnauthorized, "invalid_session", "session expired or invalid")
				return
			}
			slog.Error("failed to validate admin session", "error", err, "token_prefix", maskToken(token))
			respondError(w, http.StatusInternalServerError, "internal_error", "authentication error")
			return
		}

		ctx := ContextWithSessionToken(r.Context(), token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractSessionToken extracts the session token from request headers
func extractSessionToken(r *http.Request) string {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return authHeader
}

// maskToken returns the first 8 chars of a token for safe logging
func maskToken(token string) string {
	if len(token) < 8 {
		return "***"
	}
	return token[:8] + "..."
}
