package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/muntakson/salama/internal/metrics"
	"github.com/muntakson/salama/internal/models"
	"github.com/muntakson/salama/internal/objectstore"
	"github.com/muntakson/salama/internal/storage"
)

// --- Visitor engagement: likes, comments and AI questions ---

func (s *Server) handleLikeCard(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "card")
	if !ok {
		return
	}

	var req models.LikeRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	resp, err := s.deps.Repo.LikeCard(r.Context(), id, req.UserIdentifier)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "card not found")
			return
		}
		slog.Error("failed to like card", "error", err, "id", id)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to like card")
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "card")
	if !ok {
		return
	}

	comments, err := s.deps.Repo.ListComments(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "card not found")
			return
		}
		slog.Error("failed to list comments", "error", err, "id", id)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list comments")
		return
	}
	respondJSON(w, http.StatusOK, comments)
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "card")
	if !ok {
		return
	}

	var req models.CommentInput
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	comment, err := s.deps.Repo.AddComment(r.Context(), id, req)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "card not found")
			return
		}
		slog.Error("failed to add comment", "error", err, "id", id)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to add comment")
		return
	}
	respondJSON(w, http.StatusCreated, comment)
}

func (s *Server) handleAIChat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	if s.deps.Assistant == nil {
		s.deps.Metrics.ObserveAI(metrics.OutcomeUnavailable)
		respondError(w, http.StatusServiceUnavailable, "ai_unavailable", "AI assistant is not configured")
		return
	}

	answer, err := s.deps.Assistant.Answer(r.Context(), req)
	if err != nil {
		// A failed completion is a well-formed answer, not a transport error
		slog.Error("AI chat failed", "error", err, "card", req.CardContext.Title)
		s.deps.Metrics.ObserveAI(metrics.OutcomeFailed)
		respondJSON(w, http.StatusOK, models.ChatResponse{Success: false, Error: "AI service error"})
		return
	}

	s.deps.Metrics.ObserveAI(metrics.OutcomeAnswered)
	respondJSON(w, http.StatusOK, models.ChatResponse{Success: true, Answer: answer})
}

// --- Admin uploads ---

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	kind := models.UploadKind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		respondError(w, http.StatusBadRequest, "validation_error", "upload kind must be one of: image, video, audio, pdf")
		return
	}

	if s.deps.Uploader == nil {
		respondError(w, http.StatusServiceUnavailable, "uploads_disabled", "object storage is not configured")
		return
	}

	if s.deps.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.deps.MaxUploadBytes)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "too_large", "file exceeds the upload size limit")
			return
		}
		respondError(w, http.StatusBadRequest, "validation_error", "multipart field 'file' is required")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "no file selected")
		return
	}

	url, err := s.deps.Uploader.Upload(r.Context(), kind, header.Filename, file)
	if err != nil {
		if errors.Is(err, objectstore.ErrExtensionNotAllowed) {
			respondError(w, http.StatusBadRequest, "validation_error", "file type not allowed")
			return
		}
		slog.Error("failed to store upload", "error", err, "kind", kind, "filename", header.Filename)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to store file")
		return
	}

	slog.Info("file uploaded", "kind", kind, "url", url, "bytes", header.Size)
	respondJSON(w, http.StatusOK, models.UploadResponse{URL: url})
}
