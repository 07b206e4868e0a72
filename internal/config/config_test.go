package config

import "testing"

func TestDefaultConfigValidates(t *testing.T) {
	if err := Validate(DefaultConfig()); err != nil {
		t.Fatalf("default config should validate, got: %v", err)
	}
}

func TestValidateRejectsBadDispatcherValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Dispatcher.SessionParallelism = 0
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for session_parallelism = 0")
	}

	cfg = DefaultConfig()
	cfg.Dispatcher.BatchSize = -1
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for negative batch_size")
	}

	cfg = DefaultConfig()
	cfg.Dispatcher.Algorithm = "sideways"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for unknown algorithm")
	}
}

func TestValidateThrottleModes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Throttle.Mode = "fixed"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error: fixed mode requires a positive delay")
	}
	cfg.Throttle.Delay = 0
	cfg.Throttle.Mode = "per_processor"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error: per_processor mode requires a non-empty map")
	}
}

func TestValidateStoreTypes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store.Type = "file"
	cfg.Store.FileDir = ""
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error: file store requires file_dir")
	}

	cfg = DefaultConfig()
	cfg.Store.Type = "mongo"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error: mongo store requires uri/db/collection")
	}

	cfg = DefaultConfig()
	cfg.Store.Type = "nope"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for unknown store type")
	}
}
