// Package app builds the processing components from configuration. It is
// shared by the HTTP server and the command-line tool.
package app

import (
	"context"
	"fmt"

	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/cache"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/classifier"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/config"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/extractor"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/pipeline"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/render"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/utils"
)

// memoryCacheSize bounds the in-process classification cache used when no
// Redis URL is configured.
const memoryCacheSize = 1024

func NewLogger(cfg *config.Config) *utils.Logger {
	return utils.NewLoggerWithFile(cfg.LogLevel, utils.FileOptions{
		Path:       cfg.LogFile.Path,
		MaxSizeMB:  cfg.LogFile.MaxSizeMB,
		MaxBackups: cfg.LogFile.MaxBackups,
		MaxAgeDays: cfg.LogFile.MaxAgeDays,
		Compress:   cfg.LogFile.Compress,
	})
}

func NewScanner(scan config.ScanConfig, logger *utils.Logger) (*extractor.Scanner, error) {
	anchor, err := extractor.ParseAnchor(scan.RegionAnchor)
	if err != nil {
		return nil, err
	}

	region := extractor.Region{Width: scan.RegionWidth, Height: scan.RegionHeight, Anchor: anchor}
	return extractor.NewScanner(region, scan.SheetPattern, logger)
}

// NewModel returns the vision model for the configured provider.
func NewModel(ctx context.Context, cfg config.ClassifierConfig, logger *utils.Logger) (classifier.Model, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return classifier.NewOpenAIModel(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, cfg.MaxTokens, logger), nil
	case config.ProviderGemini:
		return classifier.NewGeminiModel(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.MaxTokens)
	default:
		return nil, fmt.Errorf("unsupported classifier provider %q", cfg.Provider)
	}
}

// NewCache connects to Redis when redisURL is set and falls back to an
// in-memory cache otherwise.
func NewCache(redisURL string, logger *utils.Logger) (cache.Client, error) {
	if redisURL == "" {
		logger.Info("Using in-memory classification cache", "max_entries", memoryCacheSize)
		return cache.NewMemoryClient(memoryCacheSize), nil
	}

	client, err := cache.NewRedisClient(redisURL, "")
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	logger.Info("Using redis classification cache")
	return client, nil
}

// NewProcessor assembles scanner, renderer and classifier into a pipeline.
// The returned cleanup func releases the cache connection.
func NewProcessor(ctx context.Context, cfg *config.Config, logger *utils.Logger) (pipeline.Processor, func(), error) {
	scanner, err := NewScanner(cfg.Scan, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create scanner: %w", err)
	}

	model, err := NewModel(ctx, cfg.Classifier, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create classifier: %w", err)
	}

	cacheClient, err := NewCache(cfg.Classifier.RedisURL, logger)
	if err != nil {
		return nil, nil, err
	}

	cls := classifier.New(model, classifier.Options{
		Timeout:      cfg.Classifier.Timeout,
		MaxImageSide: cfg.Classifier.MaxImageSide,
		Cache:        cacheClient,
		CacheTTL:     cfg.Classifier.CacheTTL,
	}, logger)

	renderer := render.NewRenderer(cfg.Scan.RenderDPI, logger)
	processor := pipeline.NewProcessor(scanner, renderer, cls, cfg.Classifier.Concurrency, logger)

	cleanup := func() {
		if err := cacheClient.Close(); err != nil {
			logger.Warn("Failed to close cache", "error", err)
		}
	}

	return processor, cleanup, nil
}
