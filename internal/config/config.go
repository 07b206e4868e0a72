package config

import "time"

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for polycrawl.
type Config struct {
	Dispatcher DispatcherConfig `mapstructure:"dispatcher" yaml:"dispatcher"`
	Throttle   ThrottleConfig   `mapstructure:"throttle"   yaml:"throttle"`
	Store      StoreConfig      `mapstructure:"store"      yaml:"store"`
	Logging    LoggingConfig    `mapstructure:"logging"    yaml:"logging"`
}

// DispatcherConfig controls the top-level session dispatcher.
type DispatcherConfig struct {
	SessionParallelism int           `mapstructure:"session_parallelism" yaml:"session_parallelism"`
	BatchSize          int           `mapstructure:"batch_size"          yaml:"batch_size"`
	MaxCrawlDepth      int           `mapstructure:"max_crawl_depth"     yaml:"max_crawl_depth"`
	Algorithm          string        `mapstructure:"algorithm"           yaml:"algorithm"` // "bfs" or "dfs"
	ShutdownGrace      time.Duration `mapstructure:"shutdown_grace"      yaml:"shutdown_grace"`
}

// ThrottleConfig selects and configures the throttling variant.
type ThrottleConfig struct {
	Mode          string                   `mapstructure:"mode"           yaml:"mode"` // "none", "fixed", "per_processor"
	Delay         time.Duration            `mapstructure:"delay"          yaml:"delay"`
	PerProcessor  map[string]time.Duration `mapstructure:"per_processor"  yaml:"per_processor"`
	FallbackDelay time.Duration            `mapstructure:"fallback_delay" yaml:"fallback_delay"`
}

// StoreConfig selects and configures the result store backend.
type StoreConfig struct {
	Type       string `mapstructure:"type"        yaml:"type"` // "memory", "file", "mongo"
	FileDir    string `mapstructure:"file_dir"    yaml:"file_dir"`
	MongoURI   string `mapstructure:"mongo_uri"   yaml:"mongo_uri"`
	MongoDB    string `mapstructure:"mongo_db"    yaml:"mongo_db"`
	MongoColl  string `mapstructure:"mongo_coll"  yaml:"mongo_coll"`
}

// LoggingConfig controls slog setup.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // text, json
}

// DefaultConfig returns the configuration used when no file, env var, or
// flag overrides a field.
func DefaultConfig() *Config {
	return &Config{
		Dispatcher: DispatcherConfig{
			SessionParallelism: 10,
			BatchSize:          10,
			MaxCrawlDepth:      0, // 0 is resolved to "no limit" by withDefaults
			Algorithm:          "bfs",
			ShutdownGrace:      10 * time.Second,
		},
		Throttle: ThrottleConfig{
			Mode: "none",
		},
		Store: StoreConfig{
			Type:    "memory",
			FileDir: "./results",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
