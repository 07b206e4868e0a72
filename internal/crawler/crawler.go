// Package crawler implements the dispatcher ("Crawler"): the top-level
// object that accepts submissions, bounds active session concurrency,
// queues overflow, and forwards translated session events to a client
// listener.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/IshaanNene/polycrawl/internal/model"
	"github.com/IshaanNene/polycrawl/internal/session"
)

// ErrShutdown is returned by Submit once the dispatcher has been shut
// down.
var ErrShutdown = errors.New("crawler: dispatcher has been shut down")

// pendingSubmission is one FIFO-queued set of normalized seeds awaiting a
// free session slot.
type pendingSubmission struct {
	seeds []string
}

// Crawler is the dispatcher. All public operations are thread-safe.
type Crawler struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	active   map[string]Session
	pending  []pendingSubmission
	shutdown bool

	wg sync.WaitGroup
}

// New validates cfg and returns a ready-to-use dispatcher.
func New(cfg Config) (*Crawler, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Crawler{
		cfg:    cfg,
		logger: cfg.Logger.With("component", "crawler"),
		active: make(map[string]Session),
	}, nil
}

// Submit validates and normalizes seed plus extraSeeds (non-blank after
// trimming, deduplicated into a set, order preserved), then either starts
// a new session immediately or enqueues the submission if the dispatcher
// is already running SessionParallelism sessions. Returns the assigned
// session's id once it is actually started; a queued submission's id is
// assigned only when it is promoted, so Submit returns "" for queued
// submissions. The listener receives only terminal events (finished or
// failed); no event reports a queued submission's promotion.
func (c *Crawler) Submit(seed string, extraSeeds ...string) (string, error) {
	seeds, err := normalizeSeeds(append([]string{seed}, extraSeeds...))
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.shutdown {
		return "", ErrShutdown
	}

	if len(c.active) >= c.cfg.SessionParallelism {
		c.pending = append(c.pending, pendingSubmission{seeds: seeds})
		c.logger.Info("submission queued", "seeds", seeds, "pending", len(c.pending))
		return "", nil
	}

	return c.startSession(seeds)
}

func normalizeSeeds(raw []string) ([]string, error) {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		trimmed := strings.TrimSpace(s)
		if trimmed == "" {
			return nil, fmt.Errorf("crawler: submit: blank seed after trimming")
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("crawler: submit: at least one seed is required")
	}
	return out, nil
}

// startSession must be called with c.mu held. It constructs, registers,
// wires, and starts a new session for seeds, returning its id.
func (c *Crawler) startSession(seeds []string) (string, error) {
	sess, err := c.cfg.SessionFactory(session.Config{
		InitialInputs: seeds,
		BatchSize:     c.cfg.BatchSize,
		Processors:    c.cfg.Processors,
		Store:         c.cfg.Store,
		Throttler:     c.cfg.Throttler,
		Algorithm:     c.cfg.Algorithm,
		MaxCrawlDepth: c.cfg.MaxCrawlDepth,
		Logger:        c.cfg.Logger,
	})
	if err != nil {
		return "", fmt.Errorf("crawler: starting session: %w", err)
	}

	id := sess.ID()
	sess.SetEventListener(func(ev model.SessionEvent) {
		c.onSessionEvent(id, ev)
	})

	c.active[id] = sess
	c.wg.Add(1)
	sess.Init()

	c.logger.Info("session started", "session_id", id, "seeds", seeds, "active", len(c.active))
	return id, nil
}

// onSessionEvent runs on whichever goroutine the session delivers its
// terminal event from. It removes the session from the active map under
// the dispatcher's lock, then destroys it and forwards a translated client
// event with the lock released, and finally promotes the next queued
// submission under the lock again. Promotion re-checks the active count,
// so active <= parallelism holds at every observable point; a Submit that
// arrives between the removal and the promotion can take the freed slot
// before the head of the queue.
func (c *Crawler) onSessionEvent(sessionID string, ev model.SessionEvent) {
	var clientEvent model.CrawlerEvent
	switch e := ev.(type) {
	case model.SessionStarted:
		return // no client-visible equivalent; internal bookkeeping only
	case model.SessionFinished:
		clientEvent = model.CrawlingFinished{
			InitialInputs:    e.InitialInputs,
			CrawlingResultID: e.ResultID,
			CrawlingDuration: e.Duration,
		}
	case model.SessionFailed:
		clientEvent = model.CrawlingFailed{
			InitialInputs:    e.InitialInputs,
			Err:              e.Err,
			CrawlingDuration: e.Duration,
		}
	default:
		return
	}
	defer c.wg.Done()

	c.mu.Lock()
	sess, ok := c.active[sessionID]
	if ok {
		delete(c.active, sessionID)
	}
	c.mu.Unlock()
	if ok {
		sess.Destroy()
	}

	if c.cfg.Listener != nil {
		c.cfg.Listener(clientEvent)
	}

	c.promoteNext()
}

// promoteNext starts the head of the pending queue, if any and if a slot
// is free. Queued submissions are never promoted ahead of arrival order.
func (c *Crawler) promoteNext() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.shutdown || len(c.pending) == 0 || len(c.active) >= c.cfg.SessionParallelism {
		return
	}
	next := c.pending[0]
	c.pending = c.pending[1:]

	if _, err := c.startSession(next.seeds); err != nil {
		c.logger.Error("failed to promote queued submission", "seeds", next.seeds, "error", err)
	}
}

// Shutdown is idempotent: it clears the pending queue, destroys every
// currently active session (snapshotting the id list first), and marks
// the dispatcher shut down so further Submit calls fail fast. If
// cfg.ShutdownGrace is positive, Shutdown awaits in-flight session
// completion up to that long before returning; ctx may also bound the
// wait.
func (c *Crawler) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	if c.shutdown {
		c.mu.Unlock()
		return nil
	}
	c.shutdown = true
	c.pending = nil

	ids := make([]string, 0, len(c.active))
	sessions := make([]Session, 0, len(c.active))
	for id, s := range c.active {
		ids = append(ids, id)
		sessions = append(sessions, s)
	}
	c.mu.Unlock()

	c.logger.Info("dispatcher shutting down", "active_sessions", len(ids))
	for _, s := range sessions {
		s.Destroy()
	}

	if c.cfg.ShutdownGrace <= 0 {
		return nil
	}

	graceCtx, cancel := context.WithTimeout(ctx, c.cfg.ShutdownGrace)
	defer cancel()

	done := make(chan struct{})
	go func() {
		for _, s := range sessions {
			_ = s.Wait(graceCtx)
		}
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-graceCtx.Done():
		return fmt.Errorf("crawler: shutdown: grace period exceeded: %w", graceCtx.Err())
	}
}

// ActiveCount reports the number of currently running sessions.
func (c *Crawler) ActiveCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.active)
}

// PendingCount reports the number of queued submissions awaiting a slot.
func (c *Crawler) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
