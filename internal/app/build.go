// Package app wires the configuration layer (internal/config) to the
// concrete engine components (store, throttler, dispatcher) — the
// assembly step both cmd/polycrawl and pkg/polycrawl share.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/IshaanNene/polycrawl/internal/config"
	"github.com/IshaanNene/polycrawl/internal/crawler"
	"github.com/IshaanNene/polycrawl/internal/frontier"
	"github.com/IshaanNene/polycrawl/internal/model"
	"github.com/IshaanNene/polycrawl/internal/processor"
	"github.com/IshaanNene/polycrawl/internal/store"
	"github.com/IshaanNene/polycrawl/internal/throttle"
)

// BuildStore constructs the result store selected by cfg.
func BuildStore(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (store.CrawlingResultStore, error) {
	switch cfg.Type {
	case "", "memory":
		return store.NewMemory(), nil
	case "file":
		return store.NewFile(cfg.FileDir, logger)
	case "mongo":
		return store.NewMongo(ctx, cfg.MongoURI, cfg.MongoDB, cfg.MongoColl, logger)
	default:
		return nil, fmt.Errorf("app: unknown store type %q", cfg.Type)
	}
}

// BuildThrottler constructs the throttling variant selected by cfg.
func BuildThrottler(cfg config.ThrottleConfig) (throttle.Throttler, error) {
	switch cfg.Mode {
	case "", "none":
		return throttle.NoOp{}, nil
	case "fixed":
		return throttle.NewFixed(cfg.Delay), nil
	case "per_processor":
		var fallback throttle.Throttler = throttle.NoOp{}
		if cfg.FallbackDelay > 0 {
			fallback = throttle.NewFixed(cfg.FallbackDelay)
		}
		return throttle.NewPerProcessor(cfg.PerProcessor, fallback), nil
	default:
		return nil, fmt.Errorf("app: unknown throttle mode %q", cfg.Mode)
	}
}

// BuildAlgorithm maps the configured traversal order name to a
// frontier.Algorithm.
func BuildAlgorithm(name string) (frontier.Algorithm, error) {
	switch name {
	case "", "bfs":
		return frontier.BFS, nil
	case "dfs":
		return frontier.DFS, nil
	default:
		return 0, fmt.Errorf("app: unknown traversal algorithm %q", name)
	}
}

// BuildCrawler assembles a *crawler.Crawler from a resolved Config, the
// processor bank, and an optional crawler-event listener.
func BuildCrawler(ctx context.Context, cfg *config.Config, processors []processor.InputProcessor, logger *slog.Logger, listener func(model.CrawlerEvent)) (*crawler.Crawler, error) {
	if logger == nil {
		logger = slog.Default()
	}

	resultStore, err := BuildStore(ctx, cfg.Store, logger)
	if err != nil {
		return nil, fmt.Errorf("app: building store: %w", err)
	}

	throttler, err := BuildThrottler(cfg.Throttle)
	if err != nil {
		return nil, fmt.Errorf("app: building throttler: %w", err)
	}

	algorithm, err := BuildAlgorithm(cfg.Dispatcher.Algorithm)
	if err != nil {
		return nil, fmt.Errorf("app: building algorithm: %w", err)
	}

	return crawler.New(crawler.Config{
		Processors:         processors,
		Store:              resultStore,
		SessionParallelism: cfg.Dispatcher.SessionParallelism,
		BatchSize:          cfg.Dispatcher.BatchSize,
		MaxCrawlDepth:      cfg.Dispatcher.MaxCrawlDepth,
		Algorithm:          algorithm,
		Throttler:          throttler,
		Listener:           listener,
		Logger:             logger,
		ShutdownGrace:      cfg.Dispatcher.ShutdownGrace,
	})
}

// NewLoggerFrom builds the slog.Logger every entry point uses.
func NewLoggerFrom(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}
