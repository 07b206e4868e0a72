package session

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/IshaanNene/polycrawl/internal/frontier"
	"github.com/IshaanNene/polycrawl/internal/model"
	"github.com/IshaanNene/polycrawl/internal/processor"
	"github.com/IshaanNene/polycrawl/internal/store"
	"github.com/IshaanNene/polycrawl/internal/throttle"
)

// NoDepthLimit expresses "no limit" as the largest representable depth,
// per the config's maxCrawlDepth contract.
const NoDepthLimit = math.MaxInt

// Config is a session's immutable construction-time configuration.
type Config struct {
	InitialInputs []string
	BatchSize     int
	Processors    []processor.InputProcessor
	Store         store.CrawlingResultStore
	Throttler     throttle.Throttler
	Algorithm     frontier.Algorithm
	MaxCrawlDepth int
	Logger        *slog.Logger
}

// normalizedSeeds trims, rejects blanks, and deduplicates c.InitialInputs,
// preserving first-seen order.
func (c Config) normalizedSeeds() ([]string, error) {
	seen := make(map[string]struct{}, len(c.InitialInputs))
	out := make([]string, 0, len(c.InitialInputs))
	for _, raw := range c.InitialInputs {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			return nil, fmt.Errorf("session: config: blank seed after trimming")
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("session: config: at least one initial input is required")
	}
	return out, nil
}

// validate checks that a session config is complete enough to run:
// normalized seeds, a positive batch size, and at least one processor.
func (c Config) validate() error {
	if _, err := c.normalizedSeeds(); err != nil {
		return err
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("session: config: batch size must be >= 1, got %d", c.BatchSize)
	}
	if len(c.Processors) == 0 {
		return fmt.Errorf("session: config: at least one processor is required")
	}
	if c.Store == nil {
		return fmt.Errorf("session: config: a result store is required")
	}
	if c.MaxCrawlDepth < 1 {
		return fmt.Errorf("session: config: max crawl depth must be >= 1, got %d", c.MaxCrawlDepth)
	}
	return nil
}

// withDefaults fills optional fields left zero-valued by the caller.
func (c Config) withDefaults() Config {
	if c.Throttler == nil {
		c.Throttler = throttle.NoOp{}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.MaxCrawlDepth == 0 {
		c.MaxCrawlDepth = NoDepthLimit
	}
	return c
}

func rootInput(raw string) model.CrawlingInput {
	return model.CrawlingInput{Source: model.RootSource, RawInput: raw}
}
