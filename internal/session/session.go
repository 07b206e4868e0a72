// Package session drives one traversal task per submission: it owns a
// frontier, a crawling context, and a processor-invocation guard, and
// cyclically applies the configured processor bank until the frontier
// drains or depth caps cut it off.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IshaanNene/polycrawl/internal/frontier"
	"github.com/IshaanNene/polycrawl/internal/guard"
	"github.com/IshaanNene/polycrawl/internal/idutil"
	"github.com/IshaanNene/polycrawl/internal/model"
)

// Stats is a snapshot of one session's progress counters.
type Stats struct {
	InputsProcessed int64
	OutputsCommitted int64
	MaxDepthReached int64
}

// Session is a bounded-lifetime task executing one traversal for one
// submission.
type Session struct {
	id  string
	cfg Config

	frontier frontier.Frontier
	ctx      *model.CrawlingContext
	guard    *guard.Guard

	logger *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}

	listenerMu sync.RWMutex
	listener   func(model.SessionEvent)

	inputsProcessed  atomic.Int64
	outputsCommitted atomic.Int64
	maxDepthReached  atomic.Int64

	startOnce sync.Once
	destroyed atomic.Bool
}

// New validates cfg and constructs a Session, but does not start it —
// call Init to begin the traversal task.
func New(cfg Config) (*Session, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Session{
		id:       idutil.New(),
		cfg:      cfg,
		frontier: frontier.New(cfg.Algorithm),
		ctx:      model.NewCrawlingContext(),
		guard:    guard.New(),
		logger:   cfg.Logger.With("component", "session"),
		done:     make(chan struct{}),
	}, nil
}

// ID returns the session's opaque identifier.
func (s *Session) ID() string { return s.id }

// SetEventListener installs fn as the sink for this session's lifecycle
// events. Safe to call before or after Init.
func (s *Session) SetEventListener(fn func(model.SessionEvent)) {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	s.listener = fn
}

func (s *Session) emit(ev model.SessionEvent) {
	s.listenerMu.RLock()
	fn := s.listener
	s.listenerMu.RUnlock()
	if fn == nil {
		return
	}
	fn(ev)
}

// Stats returns a point-in-time snapshot of this session's counters.
func (s *Session) Stats() Stats {
	return Stats{
		InputsProcessed:  s.inputsProcessed.Load(),
		OutputsCommitted: s.outputsCommitted.Load(),
		MaxDepthReached:  s.maxDepthReached.Load(),
	}
}

// Init starts the background traversal task. Non-blocking; emits
// SessionStarted synchronously before returning. Calling Init more than
// once has no additional effect.
func (s *Session) Init() {
	s.startOnce.Do(func() {
		seeds, err := s.cfg.normalizedSeeds()
		if err != nil {
			// validate() already guarantees this never happens; defensive
			// only so Init never panics on a Session built outside New.
			seeds = s.cfg.InitialInputs
		}
		for _, raw := range seeds {
			s.frontier.Add(frontier.Item{Depth: 0, Input: rootInput(raw)})
		}

		runCtx, cancel := context.WithCancel(context.Background())
		s.cancel = cancel

		s.emit(model.SessionStarted{SessionID: s.id, InitialInputs: seeds})
		s.logger.Info("session started", "session_id", s.id, "seeds", len(seeds))

		go s.run(runCtx, seeds)
	})
}

// Destroy cancels the traversal task cooperatively and releases
// resources. Idempotent; after Destroy, no further events are delivered.
func (s *Session) Destroy() {
	if !s.destroyed.CompareAndSwap(false, true) {
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
}

// Wait blocks until the traversal task has terminated or ctx is done,
// whichever comes first.
func (s *Session) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) run(ctx context.Context, seeds []string) {
	defer close(s.done)
	start := time.Now()

	err := s.traverse(ctx)

	duration := model.Duration{
		StartMs: start.UnixMilli(),
		EndMs:   time.Now().UnixMilli(),
	}
	if duration.EndMs <= duration.StartMs {
		duration.EndMs = duration.StartMs + 1
	}

	if s.destroyed.Load() && err == nil {
		// destroy() raced the loop finishing normally: no client event is
		// delivered for a destroyed session either way, so stop here
		// rather than saving a result against an already-cancelled ctx.
		s.logger.Info("session destroyed after traversal drained", "session_id", s.id)
		return
	}

	if err != nil {
		if s.destroyed.Load() {
			s.logger.Info("session destroyed mid-traversal", "session_id", s.id)
			return
		}
		s.logger.Error("session failed", "session_id", s.id, "error", err)
		s.emit(model.SessionFailed{
			SessionID:     s.id,
			InitialInputs: seeds,
			Err:           err,
			Duration:      duration,
		})
		return
	}

	result := model.CrawlingResult{
		InitialInputs: seeds,
		Context:       s.ctx.All(),
		Duration:      duration,
	}

	resultID, saveErr := s.cfg.Store.Save(ctx, result)
	if saveErr != nil {
		wrapped := fmt.Errorf("session: result store save: %w", saveErr)
		s.logger.Error("session failed to persist result", "session_id", s.id, "error", wrapped)
		s.emit(model.SessionFailed{
			SessionID:     s.id,
			InitialInputs: seeds,
			Err:           wrapped,
			Duration:      duration,
		})
		return
	}

	s.logger.Info("session finished", "session_id", s.id, "result_id", resultID,
		"outputs", s.outputsCommitted.Load())
	s.emit(model.SessionFinished{
		SessionID:     s.id,
		InitialInputs: seeds,
		ResultID:      resultID,
		Duration:      duration,
	})
}
