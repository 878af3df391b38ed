package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/muntakson/salama/internal/api"
	"github.com/muntakson/salama/internal/assistant"
	"github.com/muntakson/salama/internal/cleanup"
	"github.com/muntakson/salama/internal/config"
	"github.com/muntakson/salama/internal/health"
	"github.com/muntakson/salama/internal/metrics"
	"github.com/muntakson/salama/internal/objectstore"
	"github.com/muntakson/salama/internal/seed"
	"github.com/muntakson/salama/internal/sessions"
	"github.com/muntakson/salama/internal/storage"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.Info("starting salama-api",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	registry := health.NewRegistry()

	repo, err := openRepository(initCtx, cfg.Database)
	if err != nil {
		slog.Error("failed to open catalog repository", "error", err)
		os.Exit(1)
	}
	registry.Register("database", health.CheckerFunc(repo.Ping))

	// Seed the default categories and, on an empty catalog, the sample cards
	loader := seed.NewLoader()
	if err := loader.LoadFromFile(cfg.Seed.File); err != nil {
		slog.Warn("failed to load seed catalog", "file", cfg.Seed.File, "error", err)
	} else if err := loader.Apply(initCtx, repo, cfg.Seed.SampleCards); err != nil {
		slog.Error("failed to apply seed catalog", "error", err)
		os.Exit(1)
	}

	cleaner := cleanup.NewCleaner(cfg.Cleanup.Interval)

	var sessionStore sessions.Store
	if cfg.Redis.Address != "" {
		redisStore, err := sessions.NewRedisStore(initCtx, sessions.RedisOptions{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cfg.Admin.SessionTTL)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer redisStore.Close()
		registry.Register("sessions", redisStore)
		sessionStore = redisStore
	} else {
		memStore := sessions.NewMemoryStore(cfg.Admin.SessionTTL)
		cleaner.Add("admin_sessions", memStore)
		registry.Register("sessions", memStore)
		sessionStore = memStore
	}

	deps := api.Deps{
		Repo:           repo,
		Sessions:       sessionStore,
		Health:         registry,
		Metrics:        metrics.New("api"),
		MaxUploadBytes: cfg.Upload.MaxBytes,
	}

	if deps.AdminPasswordHash, err = adminPasswordHash(cfg.Admin); err != nil {
		slog.Error("failed to prepare admin password", "error", err)
		os.Exit(1)
	}
	if deps.AdminPasswordHash == nil {
		slog.Warn("no admin password configured, admin login disabled")
	}

	gcs, err := objectstore.NewGCS(initCtx, cfg.Upload.Bucket, cfg.Upload.PublicBaseURL)
	switch {
	case errors.Is(err, objectstore.ErrNotConfigured):
		slog.Warn("no upload bucket configured, uploads disabled")
	case err != nil:
		slog.Error("failed to create object storage", "error", err)
		os.Exit(1)
	default:
		defer gcs.Close()
		registry.Register("storage", gcs)
		deps.Uploader = gcs
	}

	answerer, err := assistant.New(assistant.Config{
		APIKey:      cfg.AI.APIKey,
		BaseURL:     cfg.AI.BaseURL,
		Model:       cfg.AI.Model,
		Temperature: cfg.AI.Temperature,
		MaxTokens:   cfg.AI.MaxTokens,
		Timeout:     cfg.AI.Timeout,
	})
	switch {
	case errors.Is(err, assistant.ErrNotConfigured):
		slog.Warn("no AI API key configured, AI assistant disabled")
	case err != nil:
		slog.Error("failed to create AI assistant", "error", err)
		os.Exit(1)
	default:
		deps.Assistant = answerer
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start cleanup worker
	cleaner.Start(ctx)

	// Setup HTTP server
	server := api.NewServer(cfg.Server, deps)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           server.Router(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")

	// Cancel context to stop background workers
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	if err := repo.Close(); err != nil {
		slog.Error("repository close error", "error", err)
	}

	slog.Info("salama-api stopped")
}

// openRepository connects to PostgreSQL and migrates it, or falls back to
// the in-memory catalog when no DSN is configured
func openRepository(ctx context.Context, cfg config.DatabaseConfig) (storage.Repository, error) {
	if cfg.DSN == "" {
		slog.Warn("no database DSN configured, using in-memory catalog")
		return storage.NewMemoryRepository(), nil
	}

	repo, err := storage.NewPostgresRepository(ctx, storage.PostgresConfig{
		DSN:          cfg.DSN,
		MaxOpenConns: int32(cfg.MaxOpenConns),
		MaxIdleConns: int32(cfg.MaxIdleConns),
	})
	if err != nil {
		return nil, err
	}
	slog.Info("database connected successfully")

	slog.Info("running database migrations", "dir", cfg.MigrationsDir)
	if err := storage.RunMigrations(ctx, repo.Pool(), cfg.MigrationsDir); err != nil {
		repo.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return repo, nil
}

// adminPasswordHash prefers a configured bcrypt hash and otherwise hashes the plain password
func adminPasswordHash(cfg config.AdminConfig) ([]byte, error) {
	if cfg.PasswordHash != "" {
		if _, err := bcrypt.Cost([]byte(cfg.PasswordHash)); err != nil {
			return nil, fmt.Errorf("invalid ADMIN_PASSWORD_HASH: %w", err)
		}
		return []byte(cfg.PasswordHash), nil
	}
	if cfg.Password == "" {
		return nil, nil
	}
	return bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
}
