// Package polycrawl provides a public SDK for embedding the crawling
// engine as a library: functional options to configure it, Use to
// register processors, and Submit/Wait to drive and observe crawls.
//
// Example usage:
//
//	c := polycrawl.New(
//	    polycrawl.WithParallelism(5),
//	    polycrawl.WithMaxDepth(3),
//	    polycrawl.WithFileStore("./results"),
//	)
//	c.Use(webfetch.New(webfetch.Config{}, nil))
//
//	id, _ := c.Submit("https://example.com")
//	c.Wait(context.Background())
package polycrawl

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/IshaanNene/polycrawl/internal/app"
	"github.com/IshaanNene/polycrawl/internal/config"
	"github.com/IshaanNene/polycrawl/internal/model"
	"github.com/IshaanNene/polycrawl/internal/processor"
)

// Option configures a Crawler's underlying config.Config before the
// dispatcher is built.
type Option func(*config.Config)

// WithParallelism sets the maximum number of concurrently running
// sessions.
func WithParallelism(n int) Option {
	return func(c *config.Config) { c.Dispatcher.SessionParallelism = n }
}

// WithMaxDepth sets the maximum crawl depth; 0 means unlimited.
func WithMaxDepth(depth int) Option {
	return func(c *config.Config) { c.Dispatcher.MaxCrawlDepth = depth }
}

// WithBatchSize sets how many frontier items one traversal round
// processes concurrently.
func WithBatchSize(n int) Option {
	return func(c *config.Config) { c.Dispatcher.BatchSize = n }
}

// WithAlgorithm selects the traversal order: "bfs" or "dfs".
func WithAlgorithm(algo string) Option {
	return func(c *config.Config) { c.Dispatcher.Algorithm = algo }
}

// WithFixedDelay applies one global per-processor-identity delay.
func WithFixedDelay(d time.Duration) Option {
	return func(c *config.Config) {
		c.Throttle.Mode = "fixed"
		c.Throttle.Delay = d
	}
}

// WithMemoryStore keeps results in an in-process map (the default).
func WithMemoryStore() Option {
	return func(c *config.Config) { c.Store.Type = "memory" }
}

// WithFileStore persists one JSON file per result under dir.
func WithFileStore(dir string) Option {
	return func(c *config.Config) {
		c.Store.Type = "file"
		c.Store.FileDir = dir
	}
}

// WithMongoStore persists results to a MongoDB collection.
func WithMongoStore(uri, database, collection string) Option {
	return func(c *config.Config) {
		c.Store.Type = "mongo"
		c.Store.MongoURI = uri
		c.Store.MongoDB = database
		c.Store.MongoColl = collection
	}
}

// WithShutdownGrace bounds how long Close will block for in-flight
// sessions to settle after destroying them. Wait is bounded only by its
// own ctx.
func WithShutdownGrace(d time.Duration) Option {
	return func(c *config.Config) { c.Dispatcher.ShutdownGrace = d }
}

// WithVerbose enables debug-level logging.
func WithVerbose() Option {
	return func(c *config.Config) { c.Logging.Level = "debug" }
}

// Crawler is the high-level API for using polycrawl as a library.
type Crawler struct {
	cfg        *config.Config
	logger     *slog.Logger
	processors []processor.InputProcessor

	mu        sync.Mutex
	built     bool
	inner     innerCrawler
	pending   sync.WaitGroup
	onFinish  func(model.CrawlingFinished)
	onFailure func(model.CrawlingFailed)
}

// innerCrawler is the narrow surface of *crawler.Crawler this package
// depends on, kept behind an interface so the SDK's own tests can stub it
// without standing up a real dispatcher.
type innerCrawler interface {
	Submit(seed string, extraSeeds ...string) (string, error)
	Shutdown(ctx context.Context) error
	ActiveCount() int
	PendingCount() int
}

// New creates a new Crawler with the given options. Register processors
// with Use before the first Submit call.
func New(opts ...Option) *Crawler {
	cfg := config.DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	level := slog.LevelInfo
	if cfg.Logging.Level == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	return &Crawler{cfg: cfg, logger: logger}
}

// Use registers a processor. Must be called before the first Submit.
func (c *Crawler) Use(p processor.InputProcessor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.processors = append(c.processors, p)
}

// OnFinish registers a callback invoked whenever a submitted session
// completes successfully.
func (c *Crawler) OnFinish(fn func(model.CrawlingFinished)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onFinish = fn
}

// OnFailure registers a callback invoked whenever a submitted session
// fails.
func (c *Crawler) OnFailure(fn func(model.CrawlingFailed)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onFailure = fn
}

// Submit starts (or queues, if at the parallelism limit) a crawling
// session rooted at seed, returning the session id if it started at once,
// or "" if it was accepted into the pending queue.
func (c *Crawler) Submit(seed string, extraSeeds ...string) (string, error) {
	inner, err := c.ensureBuilt()
	if err != nil {
		return "", err
	}
	c.pending.Add(1)
	id, err := inner.Submit(seed, extraSeeds...)
	if err != nil {
		c.pending.Done()
		return "", err
	}
	return id, nil
}

// Wait blocks until every submitted session has reached a terminal state,
// or ctx is done first.
func (c *Crawler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close shuts down the dispatcher, destroying any still-running sessions,
// waiting up to the configured shutdown grace period for them to settle.
func (c *Crawler) Close(ctx context.Context) error {
	c.mu.Lock()
	inner := c.inner
	c.mu.Unlock()
	if inner == nil {
		return nil
	}
	return inner.Shutdown(ctx)
}

// Stats reports how many sessions are currently active versus queued.
func (c *Crawler) Stats() (active, pending int) {
	c.mu.Lock()
	inner := c.inner
	c.mu.Unlock()
	if inner == nil {
		return 0, 0
	}
	return inner.ActiveCount(), inner.PendingCount()
}

func (c *Crawler) ensureBuilt() (innerCrawler, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.built {
		return c.inner, nil
	}
	if len(c.processors) == 0 {
		return nil, fmt.Errorf("polycrawl: at least one processor must be registered via Use before Submit")
	}

	listener := func(ev model.CrawlerEvent) {
		defer c.pending.Done()
		switch e := ev.(type) {
		case model.CrawlingFinished:
			if c.onFinish != nil {
				c.onFinish(e)
			}
		case model.CrawlingFailed:
			if c.onFailure != nil {
				c.onFailure(e)
			}
		}
	}

	built, err := app.BuildCrawler(context.Background(), c.cfg, c.processors, c.logger, listener)
	if err != nil {
		return nil, err
	}
	c.inner = built
	c.built = true
	return c.inner, nil
}
