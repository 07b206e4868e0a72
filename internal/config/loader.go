package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file and environment over the defaults.
// Priority (highest to lowest): env vars > config file > defaults. CLI
// flags are not read here; callers apply them to the returned Config.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("POLYCRAWL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("polycrawl")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".polycrawl"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	return Load(path)
}

// setDefaults registers default values in viper so AutomaticEnv and the
// config file layer correctly over them.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("dispatcher.session_parallelism", cfg.Dispatcher.SessionParallelism)
	v.SetDefault("dispatcher.batch_size", cfg.Dispatcher.BatchSize)
	v.SetDefault("dispatcher.max_crawl_depth", cfg.Dispatcher.MaxCrawlDepth)
	v.SetDefault("dispatcher.algorithm", cfg.Dispatcher.Algorithm)
	v.SetDefault("dispatcher.shutdown_grace", cfg.Dispatcher.ShutdownGrace)

	v.SetDefault("throttle.mode", cfg.Throttle.Mode)
	v.SetDefault("throttle.delay", cfg.Throttle.Delay)
	v.SetDefault("throttle.fallback_delay", cfg.Throttle.FallbackDelay)

	v.SetDefault("store.type", cfg.Store.Type)
	v.SetDefault("store.file_dir", cfg.Store.FileDir)
	v.SetDefault("store.mongo_uri", cfg.Store.MongoURI)
	v.SetDefault("store.mongo_db", cfg.Store.MongoDB)
	v.SetDefault("store.mongo_coll", cfg.Store.MongoColl)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
}
