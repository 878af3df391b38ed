package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/muntakson/salama/internal/cleanup"
	"github.com/muntakson/salama/internal/config"
	"github.com/muntakson/salama/internal/metrics"
	"github.com/muntakson/salama/internal/portal"
	"github.com/muntakson/salama/internal/presenter"
	"github.com/muntakson/salama/internal/settings"
	"github.com/muntakson/salama/pkg/client"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.Info("starting salama-portal",
		"host", cfg.Portal.Host,
		"port", cfg.Portal.Port,
		"api", cfg.Portal.APIBaseURL,
	)

	api := client.NewClient(cfg.Portal.APIBaseURL, client.WithTimeout(cfg.Portal.APITimeout))
	workspace := presenter.NewWorkspace(api, cfg.Portal.WorkspaceTTL)

	server := portal.NewServer(cfg.Portal, portal.Options{
		API:            api,
		Workspace:      workspace,
		Preferences:    settings.NewStore(cfg.Portal.CookieSecure),
		Metrics:        metrics.New("portal"),
		MaxUploadBytes: cfg.Upload.MaxBytes,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Evict presenters of visitors who went idle
	cleaner := cleanup.NewCleaner(cfg.Cleanup.Interval)
	cleaner.Add("visitor_workspace", workspace)
	cleaner.Start(ctx)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Portal.Host, cfg.Portal.Port),
		Handler:           server.Router(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("salama-portal stopped")
}
