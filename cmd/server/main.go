package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"filehub/internal/server/api"
	"filehub/internal/server/config"
	"filehub/internal/server/database"
	"filehub/internal/server/retention"
	"filehub/internal/server/service"
)

func main() {
	// Load config
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logging
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	slog.Info("configuration loaded",
		"port", cfg.Port,
		"storage_capacity", cfg.StorageCapacity,
		"retention", cfg.Retention(),
		"purge_interval", cfg.PurgeInterval(),
	)

	ctx := context.Background()
	repo, health, closeDB, err := openRepository(ctx, cfg)
	if err != nil {
		slog.Error("failed to open repository", "error", err)
		os.Exit(1)
	}
	defer closeDB()

	svc := service.NewFileService(repo, cfg.StorageCapacity, service.WithMaxFileSize(cfg.MaxFileSize))

	// Start retention service
	bgCtx, bgCancel := context.WithCancel(context.Background())
	purger := retention.NewService(repo, cfg.Retention(), cfg.PurgeInterval())
	purger.Start(bgCtx)

	// Setup HTTP router
	handler := api.NewHandler(svc, health)
	e := api.SetupRouter(bgCtx, handler, cfg)

	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		slog.Info("starting server", "addr", addr, "base_url", cfg.BaseURL)
		if err := e.Start(addr); err != nil {
			slog.Info("server stopped", "reason", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutting down", "signal", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	// Stop background work
	bgCancel()
	purger.Wait()

	slog.Info("server exited cleanly")
}

// openRepository connects to PostgreSQL and runs migrations, or returns an
// in-memory repository when database_url is "memory".
func openRepository(ctx context.Context, cfg *config.Config) (service.Repository, api.HealthChecker, func(), error) {
	if cfg.DatabaseURL == database.MemoryURL {
		slog.Warn("using in-memory repository, data will not survive a restart")
		repo := database.NewMemoryRepository()
		return repo, repo, func() {}, nil
	}

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}

	if err := db.RunMigrations(ctx); err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("database migrations complete")

	return database.NewRepository(db), db, db.Close, nil
}
