package api

import (
	"errors"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/muntakson/salama/internal/models"
	"github.com/muntakson/salama/internal/sessions"
)

// --- Admin session handlers ---

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	if len(s.deps.AdminPasswordHash) == 0 {
		respondError(w, http.StatusServiceUnavailable, "admin_disabled", "admin login is not configured")
		return
	}

	if err := bcrypt.CompareHashAndPassword(s.deps.AdminPasswordHash, []byte(req.Password)); err != nil {
		slog.Warn("failed admin login", "remote_addr", r.RemoteAddr)
		respondError(w, http.StatusUnauthorized, "invalid_password", "Invalid password")
		return
	}

	session, err := s.deps.Sessions.Create(r.Context())
	if err != nil {
		slog.Error("failed to create admin session", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to create session")
		return
	}

	slog.Info("admin logged in", "session", maskToken(session.Token), "expires_at", session.ExpiresAt)
	respondJSON(w, http.StatusOK, models.LoginResponse{Success: true, SessionToken: session.Token})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req models.SessionRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	if err := s.deps.Sessions.Valid(r.Context(), req.SessionToken); err != nil {
		if !errors.Is(err, sessions.ErrInvalidSession) {
			slog.Error("failed to verify admin session", "error", err)
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to verify session")
			return
		}
		respondJSON(w, http.StatusUnauthorized, models.VerifyResponse{Valid: false})
		return
	}

	respondJSON(w, http.StatusOK, models.VerifyResponse{Valid: true})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req models.SessionRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	token := req.SessionToken
	if token == "" {
		token = extractSessionToken(r)
	}

	if token != "" {
		if err := s.deps.Sessions.Revoke(r.Context(), token); err != nil {
			slog.Error("failed to revoke admin session", "error", err, "session", maskToken(token))
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to revoke session")
			return
		}
		slog.Info("admin logged out", "session", maskToken(token))
	}

	respondJSON(w, http.StatusOK, models.MessageResponse{Success: true})
}
