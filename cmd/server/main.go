package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/app"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/config"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/db"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/handlers"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/metrics"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/repository"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/router"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/services"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/storage"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/web"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger := app.NewLogger(cfg)
	metrics.Init()

	// Run migrations
	if err := db.RunMigrations(cfg.DBPath); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	// Initialize database
	database, err := db.NewSQLiteDB(cfg.DBPath)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer database.Close()

	store, err := storage.New(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize storage", "error", err, "backend", cfg.StorageBackend)
	}

	processor, cleanup, err := app.NewProcessor(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize pipeline", "error", err)
	}
	defer cleanup()

	templates, err := web.NewTemplates()
	if err != nil {
		logger.Fatal("Failed to load templates", "error", err)
	}

	if cfg.LoginPassword == "" && cfg.LoginPasswordHash == "" {
		logger.Warn("No LOGIN_PASSWORD or LOGIN_PASSWORD_HASH set; login is disabled")
	}

	// Initialize project service
	projectRepo := repository.NewProjectRepository(database)
	projectService := services.NewProjectService(projectRepo, store, processor, cfg.Scan.ThumbnailDPI, logger)

	// Setup HTTP router
	handler := router.NewRouter(projectService, router.Options{
		Auth:        handlers.NewAuthenticator(cfg.LoginUsername, cfg.LoginPassword, cfg.LoginPasswordHash),
		Templates:   templates,
		MaxFileSize: cfg.MaxFileSize,
	}, logger)

	// Uploads are processed synchronously, so the write timeout has to cover
	// a full document run.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("Starting server",
			"port", cfg.Port,
			"provider", cfg.Classifier.Provider,
			"storage", cfg.StorageBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}
