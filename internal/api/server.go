package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	"github.com/muntakson/salama/internal/assistant"
	"github.com/muntakson/salama/internal/config"
	"github.com/muntakson/salama/internal/health"
	"github.com/muntakson/salama/internal/metrics"
	"github.com/muntakson/salama/internal/objectstore"
	"github.com/muntakson/salama/internal/sessions"
	"github.com/muntakson/salama/internal/storage"
)

// Deps are the collaborators the API serves from. Assistant and Uploader may be nil,
// in which case the AI and upload endpoints answer 503.
type Deps struct {
	Repo              storage.Repository
	Sessions          sessions.Store
	Assistant         assistant.Answerer
	Uploader          objectstore.Uploader
	Health            *health.Registry
	Metrics           *metrics.Metrics
	AdminPasswordHash []byte
	MaxUploadBytes    int64
}

// Server represents the HTTP API server
type Server struct {
	config    config.ServerConfig
	router    *chi.Mux
	deps      Deps
	validate  *validator.Validate
	adminAuth *AdminAuth
}

// NewServer creates a new API server
func NewServer(cfg config.ServerConfig, deps Deps) *Server {
	if deps.Health == nil {
		deps.Health = health.NewRegistry()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New("api")
	}

	s := &Server{
		config:    cfg,
		deps:      deps,
		validate:  newValidator(),
		adminAuth: NewAdminAuth(deps.Sessions),
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	timeout := s.config.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	origins := s.config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(s.deps.Metrics.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	// Operational endpoints
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Method(http.MethodGet, "/metrics", s.deps.Metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", s.handleListCategories)
			r.With(s.adminAuth.Authenticate).Post("/", s.handleCreateCategory)
			r.With(s.adminAuth.Authenticate).Put("/{id}", s.handleUpdateCategory)
			r.With(s.adminAuth.Authenticate).Delete("/{id}", s.handleDeleteCategory)
		})

		r.Route("/cards", func(r chi.Router) {
			r.Get("/", s.handleListCards)
			r.With(s.adminAuth.Authenticate).Post("/", s.handleCreateCard)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetCard)
				r.With(s.adminAuth.Authenticate).Put("/", s.handleUpdateCard)
				r.With(s.adminAuth.Authenticate).Delete("/", s.handleDeleteCard)
				r.Post("/like", s.handleLikeCard)
				r.Get("/comments", s.handleListComments)
				r.Post("/comments", s.handleAddComment)
			})
		})

		r.With(s.adminAuth.Authenticate).Get("/stats", s.handleStats)
		r.With(s.adminAuth.Authenticate).Post("/upload/{kind}", s.handleUpload)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", s.handleLogin)
			r.Post("/verify", s.handleVerify)
			r.Post("/logout", s.handleLogout)
		})

		r.Post("/ai/chat", s.handleAIChat)
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
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
