package session

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/IshaanNene/polycrawl/internal/frontier"
	"github.com/IshaanNene/polycrawl/internal/model"
	"github.com/IshaanNene/polycrawl/internal/processor"
)

// depthOutput pairs a produced Output with the depth its frontier
// re-enqueues (if any) should be recorded at — inputDepth + 1.
type depthOutput struct {
	depth  int
	output model.Output
}

// traverse runs the batch-parallel loop until the frontier drains or ctx
// is cancelled. Cancellation is not itself a failure: it simply halts the
// loop early, and the caller (run) distinguishes "destroyed" from
// "failed" via the destroyed flag.
func (s *Session) traverse(ctx context.Context) error {
	for !s.frontier.IsEmpty() {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		batch, err := s.frontier.RemoveBatch(s.cfg.BatchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			break
		}

		for _, ro := range s.processBatch(ctx, batch) {
			s.commitAndExpand(ro)
		}
	}
	return nil
}

// processBatch spawns one sub-task per item, and within each, one
// sub-task per processor, awaiting all of them before returning — the
// next batch is never removed until this one fully completes.
// A slow or failing processor never cancels its siblings: both fan-out
// layers use a plain errgroup.Group (no derived context), since
// individual sub-task outcomes are absorbed inside invoke, not returned
// as errgroup errors.
func (s *Session) processBatch(ctx context.Context, batch []frontier.Item) []depthOutput {
	var (
		mu      sync.Mutex
		results []depthOutput
		outer   errgroup.Group
	)

	seenInBatch := make(map[string]struct{}, len(batch))
	for _, item := range batch {
		item := item
		// The guard is only marked once an invocation returns, so a raw
		// input repeated within one batch is fanned out once only.
		if _, dup := seenInBatch[item.Input.RawInput]; dup {
			continue
		}
		seenInBatch[item.Input.RawInput] = struct{}{}
		outer.Go(func() error {
			s.inputsProcessed.Add(1)

			var inner errgroup.Group
			for _, p := range s.cfg.Processors {
				p := p
				inner.Go(func() error {
					out, ok := s.invoke(ctx, p, item.Input)
					if !ok {
						return nil
					}
					mu.Lock()
					results = append(results, depthOutput{depth: item.Depth + 1, output: out})
					mu.Unlock()
					return nil
				})
			}
			_ = inner.Wait()
			return nil
		})
	}
	_ = outer.Wait()
	return results
}

// invoke runs the per-(processor, input) sequence: guard check,
// canProcess, throttle, process, mark guard. Panics from
// canProcess/process are swallowed and logged, and leave the guard
// unmarked so a future identical input could still be retried.
func (s *Session) invoke(ctx context.Context, p processor.InputProcessor, input model.CrawlingInput) (model.Output, bool) {
	id := processor.Identity(p)

	if s.guard.Contains(id, input.RawInput) {
		return model.Output{}, false
	}

	can, panicked := s.safeCanProcess(ctx, p, input, id)
	if panicked || !can {
		return model.Output{}, false
	}

	s.cfg.Throttler.Throttle(ctx, id)

	out, err, panicked := s.safeProcess(ctx, p, input, id)
	if panicked {
		return model.Output{}, false
	}

	s.guard.Mark(id, input.RawInput)
	if err != nil {
		s.logger.Warn("processor failed", "processor", id, "input", input.RawInput, "error", err)
		return model.Output{}, false
	}
	return out, true
}

func (s *Session) safeCanProcess(ctx context.Context, p processor.InputProcessor, input model.CrawlingInput, id string) (result, panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("processor canProcess panicked", "processor", id, "input", input.RawInput, "panic", r)
			result, panicked = false, true
		}
	}()
	return p.CanProcess(ctx, input, s.ctx), false
}

func (s *Session) safeProcess(ctx context.Context, p processor.InputProcessor, input model.CrawlingInput, id string) (out model.Output, err error, panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("processor process panicked", "processor", id, "input", input.RawInput, "panic", r)
			out, err, panicked = model.Output{}, nil, true
		}
	}()
	result, procErr := p.Process(ctx, input, s.ctx)
	return result, procErr, false
}

// commitAndExpand stores ro's output in the context and, depth
// permitting, re-enqueues its crawlable values for further traversal.
func (s *Session) commitAndExpand(ro depthOutput) {
	out := ro.output
	stored := out.Store()

	s.ctx.Commit(stored)
	s.outputsCommitted.Add(1)
	if int64(ro.depth) > s.maxDepthReached.Load() {
		s.maxDepthReached.Store(int64(ro.depth))
	}

	if ro.depth >= s.cfg.MaxCrawlDepth {
		return
	}
	for _, rec := range out.Data {
		for _, f := range rec {
			if !f.Value.Crawlable {
				continue
			}
			input, err := model.NewCrawlingInput(out.Source, f.Value.Value)
			if err != nil {
				continue
			}
			s.frontier.Add(frontier.Item{Depth: ro.depth, Input: input})
		}
	}
}
