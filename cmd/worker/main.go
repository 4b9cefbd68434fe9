package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timmy/reelscout/internal/config"
	"github.com/timmy/reelscout/internal/extract"
	"github.com/timmy/reelscout/internal/logger"
	"github.com/timmy/reelscout/internal/media"
	"github.com/timmy/reelscout/internal/pipeline"
	"github.com/timmy/reelscout/internal/places"
	"github.com/timmy/reelscout/internal/queue"
	"github.com/timmy/reelscout/internal/repository"
	"github.com/timmy/reelscout/internal/resolve"
	"github.com/timmy/reelscout/internal/storage"
	"github.com/timmy/reelscout/internal/vision"
)

func main() {
	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger := logger.NewDefault().WithField(logger.FieldComponent, "worker")
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

	// Media collaborators
	prober := media.NewFFProbe(cfg.Media.FFprobeBin)
	downloader := media.NewDownloader(
		cfg.Media.YTDLPBin,
		prober,
		time.Duration(cfg.Media.MaxDurationSecs)*time.Second,
		cfg.Media.MaxFileSizeBytes,
	)
	audioExtractor := media.NewAudioExtractor(cfg.Media.FFmpegBin)
	frameExtractor := media.NewFrameExtractor(cfg.Media.FFmpegBin)

	// Analysis collaborators
	transcriber := extract.NewTranscriber(&extract.TranscriberConfig{
		Model:   cfg.Transcription.Model,
		APIKey:  cfg.Transcription.APIKey,
		BaseURL: cfg.Transcription.BaseURL,
	})
	recognizer := vision.NewVLMRecognizer(&vision.Config{
		Model:   cfg.OCR.Model,
		APIKey:  cfg.OCR.APIKey,
		BaseURL: cfg.OCR.BaseURL,
	})
	entityExtractor := extract.NewEntityExtractor(&extract.EntityConfig{
		Model:   cfg.Entity.Model,
		APIKey:  cfg.Entity.APIKey,
		BaseURL: cfg.Entity.BaseURL,
	})
	placesClient := places.NewClient(&places.Config{
		APIKey:  cfg.Places.APIKey,
		BaseURL: cfg.Places.BaseURL,
	})
	resolver := resolve.NewResolver(placesClient)

	// Optional video archival
	var archiver pipeline.VideoArchiver
	if cfg.Archive.Enabled {
		s3store, err := storage.NewS3Storage(&storage.S3Config{
			Endpoint:  cfg.Archive.Endpoint,
			AccessKey: cfg.Archive.AccessKey,
			SecretKey: cfg.Archive.SecretKey,
			UseSSL:    cfg.Archive.UseSSL,
			Bucket:    cfg.Archive.Bucket,
			Region:    cfg.Archive.Region,
			PublicURL: cfg.Archive.PublicURL,
		})
		if err != nil {
			appLogger.Fatalf("Failed to initialize archive storage: %v", err)
		}
		if err := s3store.EnsureBucket(context.Background()); err != nil {
			appLogger.Fatalf("Failed to ensure archive bucket: %v", err)
		}
		archiver = storage.NewArchiver(s3store)
	}

	proc := pipeline.New(
		reelRepo, placeRepo, extractedRepo,
		downloader, audioExtractor, frameExtractor,
		transcriber, recognizer, entityExtractor, resolver, archiver,
		pipeline.Options{
			UploadDir: cfg.Media.UploadDir,
			FrameFPS:  cfg.Media.FrameFPS,
			OCR: vision.BatchOptions{
				BatchSize:     cfg.OCR.BatchSize,
				MinConfidence: cfg.OCR.MinConfidence,
			},
		},
	)

	runner := queue.NewRunner(jobRepo, proc, queue.Policy{
		MaxAttempts:        cfg.Queue.MaxAttempts,
		InitialBackoff:     cfg.Queue.InitialBackoff,
		Concurrency:        cfg.Queue.Concurrency,
		RateLimit:          cfg.Queue.RateLimit,
		RateWindow:         cfg.Queue.RateWindow,
		CompletedRetention: cfg.Queue.CompletedRetention,
		FailedRetention:    cfg.Queue.FailedRetention,
		PollInterval:       cfg.Queue.PollInterval,
	})

	// Run until interrupted; in-flight jobs finish before exit.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appLogger.Infof("Starting worker (concurrency: %d)", cfg.Queue.Concurrency)
	runner.Run(ctx)
	appLogger.Info("Worker exited")
}
