package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"brokerdash/internal/app"
	"brokerdash/internal/config"
	"brokerdash/internal/handlers"
	"brokerdash/internal/logging"
	"brokerdash/internal/scheduler"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx := context.Background()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	// Prewarm tokens before the market opens
	prewarmer, err := scheduler.NewPrewarmer(a, cfg.PrewarmSchedule, logger)
	if err != nil {
		logger.Error("Invalid prewarm schedule", "schedule", cfg.PrewarmSchedule, "error", err)
		os.Exit(1)
	}
	prewarmer.Start()

	deps := handlers.NewDependencies().
		WithDashboard(a.Dashboard).
		WithTokens(a.Tokens).
		WithLogger(logger)

	// Create server
	server := &http.Server{
		Addr:         cfg.Address(),
		Handler:      handlers.NewRouter(deps, cfg.CORSOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Server starting", "addr", cfg.Address())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	select {
	case <-prewarmer.Stop().Done():
	case <-shutdownCtx.Done():
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server stopped")
}
