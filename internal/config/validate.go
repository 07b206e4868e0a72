package config

import "fmt"

// Validate checks the configuration for invalid values synchronously, at
// construction time, so a bad setting fails fast instead of surfacing
// mid-crawl.
func Validate(cfg *Config) error {
	if cfg.Dispatcher.SessionParallelism < 1 {
		return fmt.Errorf("dispatcher.session_parallelism must be >= 1, got %d", cfg.Dispatcher.SessionParallelism)
	}
	if cfg.Dispatcher.BatchSize < 1 {
		return fmt.Errorf("dispatcher.batch_size must be >= 1, got %d", cfg.Dispatcher.BatchSize)
	}
	if cfg.Dispatcher.MaxCrawlDepth < 0 {
		return fmt.Errorf("dispatcher.max_crawl_depth must be >= 0 (0 means no limit), got %d", cfg.Dispatcher.MaxCrawlDepth)
	}
	switch cfg.Dispatcher.Algorithm {
	case "bfs", "dfs":
	default:
		return fmt.Errorf("dispatcher.algorithm must be 'bfs' or 'dfs', got %q", cfg.Dispatcher.Algorithm)
	}
	if cfg.Dispatcher.ShutdownGrace < 0 {
		return fmt.Errorf("dispatcher.shutdown_grace must be >= 0")
	}

	switch cfg.Throttle.Mode {
	case "none":
	case "fixed":
		if cfg.Throttle.Delay <= 0 {
			return fmt.Errorf("throttle.delay must be > 0 when throttle.mode is 'fixed'")
		}
	case "per_processor":
		if len(cfg.Throttle.PerProcessor) == 0 {
			return fmt.Errorf("throttle.per_processor must be non-empty when throttle.mode is 'per_processor'")
		}
		for id, d := range cfg.Throttle.PerProcessor {
			if d <= 0 {
				return fmt.Errorf("throttle.per_processor[%q] must be > 0", id)
			}
		}
	default:
		return fmt.Errorf("throttle.mode must be 'none', 'fixed', or 'per_processor', got %q", cfg.Throttle.Mode)
	}

	switch cfg.Store.Type {
	case "memory":
	case "file":
		if cfg.Store.FileDir == "" {
			return fmt.Errorf("store.file_dir is required when store.type is 'file'")
		}
	case "mongo":
		if cfg.Store.MongoURI == "" || cfg.Store.MongoDB == "" || cfg.Store.MongoColl == "" {
			return fmt.Errorf("store.mongo_uri, store.mongo_db, and store.mongo_coll are all required when store.type is 'mongo'")
		}
	default:
		return fmt.Errorf("store.type must be 'memory', 'file', or 'mongo', got %q", cfg.Store.Type)
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	return nil
}
