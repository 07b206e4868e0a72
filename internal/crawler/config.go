package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/IshaanNene/polycrawl/internal/frontier"
	"github.com/IshaanNene/polycrawl/internal/model"
	"github.com/IshaanNene/polycrawl/internal/processor"
	"github.com/IshaanNene/polycrawl/internal/session"
	"github.com/IshaanNene/polycrawl/internal/store"
	"github.com/IshaanNene/polycrawl/internal/throttle"
)

// NoDepthLimit expresses "no limit" as the largest representable depth.
const NoDepthLimit = math.MaxInt

const (
	defaultSessionParallelism = 10
	defaultBatchSize          = 10
)

// Session is the narrow surface the dispatcher drives. *session.Session
// satisfies it directly; tests supply fakes through SessionFactory.
type Session interface {
	ID() string
	Init()
	Destroy()
	Wait(ctx context.Context) error
	SetEventListener(fn func(model.SessionEvent))
}

// SessionFactory builds a Session from a resolved per-submission config,
// the dependency-injection seam that lets tests supply deterministic
// fakes instead of real sessions.
type SessionFactory func(cfg session.Config) (Session, error)

func defaultSessionFactory(cfg session.Config) (Session, error) {
	return session.New(cfg)
}

// Config is the dispatcher's immutable construction-time configuration.
type Config struct {
	Processors         []processor.InputProcessor
	Store              store.CrawlingResultStore
	SessionParallelism int
	BatchSize          int
	MaxCrawlDepth      int
	Algorithm          frontier.Algorithm
	Throttler          throttle.Throttler
	Listener           func(model.CrawlerEvent)
	Logger             *slog.Logger
	SessionFactory     SessionFactory

	// ShutdownGrace bounds how long Shutdown awaits in-flight sessions
	// before returning regardless, favoring a bounded await over
	// fire-and-forget destroy. Zero means "don't wait at all" (destroy
	// and return immediately).
	ShutdownGrace time.Duration
}

func (c Config) validate() error {
	if len(c.Processors) == 0 {
		return fmt.Errorf("crawler: config: at least one processor is required")
	}
	if c.Store == nil {
		return fmt.Errorf("crawler: config: a result store is required")
	}
	if c.SessionParallelism < 1 {
		return fmt.Errorf("crawler: config: session parallelism must be >= 1, got %d", c.SessionParallelism)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("crawler: config: batch size must be >= 1, got %d", c.BatchSize)
	}
	if c.MaxCrawlDepth < 1 {
		return fmt.Errorf("crawler: config: max crawl depth must be >= 1, got %d", c.MaxCrawlDepth)
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.SessionParallelism == 0 {
		c.SessionParallelism = defaultSessionParallelism
	}
	if c.BatchSize == 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.MaxCrawlDepth == 0 {
		c.MaxCrawlDepth = NoDepthLimit
	}
	if c.Throttler == nil {
		c.Throttler = throttle.NoOp{}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.SessionFactory == nil {
		c.SessionFactory = defaultSessionFactory
	}
	return c
}
