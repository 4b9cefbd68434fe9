package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timmy/reelscout/internal/api"
	"github.com/timmy/reelscout/internal/api/handler"
	"github.com/timmy/reelscout/internal/api/middleware"
	"github.com/timmy/reelscout/internal/config"
	"github.com/timmy/reelscout/internal/logger"
	"github.com/timmy/reelscout/internal/media"
	"github.com/timmy/reelscout/internal/places"
	"github.com/timmy/reelscout/internal/queue"
	"github.com/timmy/reelscout/internal/repository"
)

func main() {
	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger := logger.NewDefault()
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize repositories
	reelRepo := repository.NewReelRepository(db)
	placeRepo := repository.NewPlaceRepository(db)
	extractedRepo := repository.NewExtractedPlaceRepository(db)
	jobRepo := repository.NewJobRepository(db)

	jobQueue := queue.New(jobRepo)
	prober := media.NewFFProbe(cfg.Media.FFprobeBin)

	// Place details are optional; without an API key the endpoint reports
	// itself unconfigured.
	var detailer handler.PlaceDetailer
	if cfg.Places.APIKey != "" {
		detailer = places.NewClient(&places.Config{
			APIKey:  cfg.Places.APIKey,
			BaseURL: cfg.Places.BaseURL,
		})
	}

	handlers := api.Handlers{
		Reel: handler.NewReelHandler(
			reelRepo, extractedRepo, jobQueue, prober,
			media.UploadPolicy{
				MaxDuration:      time.Duration(cfg.Media.MaxDurationSecs) * time.Second,
				MaxBytes:         cfg.Media.MaxFileSizeBytes,
				SupportedFormats: cfg.Media.SupportedFormats,
			},
			cfg.Media.UploadDir,
		),
		Place: handler.NewPlaceHandler(placeRepo, extractedRepo, detailer),
		Job:   handler.NewJobHandler(jobQueue),
	}

	router := api.SetupRouter(handlers, appLogger, cfg.Server.Mode, middleware.CORSConfig{
		AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		appLogger.Infof("Starting API server on port %d (mode: %s)", cfg.Server.Port, cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatalf("Server forced to shutdown: %v", err)
	}

	appLogger.Info("Server exited")
}
