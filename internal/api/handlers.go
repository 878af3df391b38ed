package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/muntakson/salama/internal/health"
	"github.com/muntakson/salama/internal/models"
	"github.com/muntakson/salama/internal/storage"
)

// Response helpers

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(apiError{Error: code, Message: message}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// newValidator reports field errors by their JSON names
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
// It writes the error response itself and reports whether the handler may continue.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fe.Field()+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}

func idParam(w http.ResponseWriter, r *http.Request, what string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "validation_error", what+" id must be a positive integer")
		return 0, false
	}
	return id, true
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	results := s.deps.Health.HealthCheckAll(r.Context())

	checks := make(map[string]string, len(results))
	for name, err := range results {
		if err != nil {
			slog.Warn("readiness check failed", "check", name, "error", err)
			checks[name] = err.Error()
			continue
		}
		checks[name] = "ok"
	}

	if !health.Healthy(results) {
		respondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "not_ready",
			"checks": checks,
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ready",
		"checks": checks,
	})
}

// Category handlers

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.deps.Repo.ListCategories(r.Context())
	if err != nil {
		slog.Error("failed to list categories", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list categories")
		return
	}
	respondJSON(w, http.StatusOK, categories)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req models.CategoryInput
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	category, err := s.deps.Repo.CreateCategory(r.Context(), req)
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			respondError(w, http.StatusConflict, "conflict", "a category with this name already exists")
			return
		}
		slog.Error("failed to create category", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to create category")
		return
	}

	slog.Info("category created", "id", category.ID, "name", category.Name,
		"session", maskToken(SessionTokenFromContext(r.Context())))
	respondJSON(w, http.StatusCreated, category)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "category")
	if !ok {
		return
	}

	var req models.CategoryInput
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	category, err := s.deps.Repo.UpdateCategory(r.Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			respondError(w, http.StatusNotFound, "not_found", "category not found")
		case errors.Is(err, storage.ErrConflict):
			respondError(w, http.StatusConflict, "conflict", "a category with this name already exists")
		default:
			slog.Error("failed to update category", "error", err, "id", id)
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to update category")
		}
		return
	}

	respondJSON(w, http.StatusOK, category)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "category")
	if !ok {
		return
	}

	if err := s.deps.Repo.DeleteCategory(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, storage.ErrProtectedCategory):
			respondError(w, http.StatusForbidden, "protected_category", "the default category cannot be deleted")
		case errors.Is(err, storage.ErrNotFound):
			respondError(w, http.StatusNotFound, "not_found", "category not found")
		default:
			slog.Error("failed to delete category", "error", err, "id", id)
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to delete category")
		}
		return
	}

	slog.Info("category deleted", "id", id, "session", maskToken(SessionTokenFromContext(r.Context())))
	respondJSON(w, http.StatusOK, models.MessageResponse{Success: true, Message: "category deleted"})
}

// Card handlers

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	filter := models.CardFilter{Search: strings.TrimSpace(r.URL.Query().Get("search"))}

	if raw := r.URL.Query().Get("category_id"); raw != "" {
		categoryID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "validation_error", "category_id must be an integer")
			return
		}
		filter.CategoryID = categoryID
	}

	cards, err := s.deps.Repo.ListCards(r.Context(), filter)
	if err != nil {
		slog.Error("failed to list cards", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list cards")
		return
	}
	respondJSON(w, http.StatusOK, cards)
}

func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "card")
	if !ok {
		return
	}

	card, err := s.deps.Repo.GetCard(r.Context(), id, true)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "card not found")
			return
		}
		slog.Error("failed to get card", "error", err, "id", id)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to get card")
		return
	}
	respondJSON(w, http.StatusOK, card)
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var req models.CardInput
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	card, err := s.deps.Repo.CreateCard(r.Context(), req)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusBadRequest, "validation_error", "category_id does not exist")
			return
		}
		slog.Error("failed to create card", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to create card")
		return
	}

	slog.Info("card created", "id", card.ID, "title", card.Title,
		"session", maskToken(SessionTokenFromContext(r.Context())))
	respondJSON(w, http.StatusCreated, card)
}

func (s *Server) handleUpdateCard(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "card")
	if !ok {
		return
	}

	var req models.CardInput
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	card, err := s.deps.Repo.UpdateCard(r.Context(), id, req)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "card or category not found")
			return
		}
		slog.Error("failed to update card", "error", err, "id", id)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update card")
		return
	}
	respondJSON(w, http.StatusOK, card)
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "card")
	if !ok {
		return
	}

	if err := s.deps.Repo.DeleteCard(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "card not found")
			return
		}
		slog.Error("failed to delete card", "error", err, "id", id)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to delete card")
		return
	}

	slog.Info("card deleted", "id", id, "session", maskToken(SessionTokenFromContext(r.Context())))
	respondJSON(w, http.StatusOK, models.MessageResponse{Success: true, Message: "card deleted"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.Repo.Stats(r.Context(), storage.TopCardsLimit)
	if err != nil {
		slog.Error("failed to compute stats", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to compute stats")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
