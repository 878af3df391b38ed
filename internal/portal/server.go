// Package portal serves the viewer catalog and the admin dashboard as
// server-rendered pages backed by the collaborator API.
package portal

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/muntakson/salama/internal/config"
	"github.com/muntakson/salama/internal/i18n"
	"github.com/muntakson/salama/internal/metrics"
	"github.com/muntakson/salama/internal/presenter"
	"github.com/muntakson/salama/internal/settings"
	"github.com/muntakson/salama/pkg/client"
)

//go:embed templates/*.html
var templateFS embed.FS

// defaultMaxUploadBytes bounds an admin card form when no limit is configured
const defaultMaxUploadBytes = 500 << 20

// Options are the portal's collaborators
type Options struct {
	API            *client.Client
	Workspace      *presenter.Workspace
	Preferences    *settings.Store
	Metrics        *metrics.Metrics
	MaxUploadBytes int64
}

// Server represents the portal HTTP server
type Server struct {
	config    config.PortalConfig
	router    *chi.Mux
	api       *client.Client
	workspace *presenter.Workspace
	prefs     *settings.Store
	metrics   *metrics.Metrics
	templates *template.Template
	maxUpload int64
}

// NewServer creates a new portal server
func NewServer(cfg config.PortalConfig, opts Options) *Server {
	s := &Server{
		config:    cfg,
		api:       opts.API,
		workspace: opts.Workspace,
		prefs:     opts.Preferences,
		metrics:   opts.Metrics,
		maxUpload: opts.MaxUploadBytes,
	}
	if s.workspace == nil {
		s.workspace = presenter.NewWorkspace(s.api, cfg.WorkspaceTTL)
	}
	if s.prefs == nil {
		s.prefs = settings.NewStore(cfg.CookieSecure)
	}
	if s.metrics == nil {
		s.metrics = metrics.New("portal")
	}
	if s.maxUpload <= 0 {
		s.maxUpload = defaultMaxUploadBytes
	}

	s.templates = template.Must(template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html"))
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// Workspace exposes the presenter workspace for the cleanup worker
func (s *Server) Workspace() *presenter.Workspace {
	return s.workspace
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(s.metrics.Middleware)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.prefs.Middleware)

		r.Get("/", s.handleIndex)
		r.Post("/settings", s.handleSettings)

		r.Route("/cards/{id}", func(r chi.Router) {
			r.Get("/", s.handleCardPage)
			r.Post("/toggle", s.handleToggleSection)
			r.Post("/like", s.handleLike)
			r.Post("/comments/toggle", s.handleToggleComments)
			r.Post("/comments", s.handleSubmitComment)
			r.Post("/ask", s.handleAsk)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Get("/", s.handleAdmin)
			r.Post("/login", s.handleAdminLogin)
			r.Post("/logout", s.handleAdminLogout)

			r.Post("/categories", s.handleCreateCategory)
			r.Get("/categories/{id}/edit", s.handleEditCategory)
			r.Post("/categories/{id}", s.handleUpdateCategory)
			r.Post("/categories/{id}/delete", s.handleDeleteCategory)

			r.Get("/cards/new", s.handleNewCard)
			r.Post("/cards", s.handleCreateCard)
			r.Get("/cards/{id}/edit", s.handleEditCard)
			r.Post("/cards/{id}", s.handleUpdateCard)
			r.Post("/cards/{id}/delete", s.handleDeleteCard)
		})
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

var templateFuncs = template.FuncMap{
	"langLabel": i18n.Label,
	"join":      strings.Join,
	"add":       func(a, b int) int { return a + b },
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := s.api.Health(r.Context()); err != nil {
		slog.Warn("collaborator API unhealthy", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"degraded"}`))
		return
	}
	w.Write([]byte(`{"status":"healthy"}`))
}
