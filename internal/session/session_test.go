package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/IshaanNene/polycrawl/internal/model"
	"github.com/IshaanNene/polycrawl/internal/processor"
	"github.com/IshaanNene/polycrawl/internal/store"
)

// wrapAll upcasts a list of *fakeProcessor to the InputProcessor
// interface slice Config.Processors expects.
func wrapAll(ps ...*fakeProcessor) []processor.InputProcessor {
	out := make([]processor.InputProcessor, len(ps))
	for i, p := range ps {
		out[i] = p
	}
	return out
}

// fakeProcessor is a minimal InputProcessor stand-in for deterministic
// concurrency tests: no mock framework, a hand-rolled struct satisfying
// the narrow interface.
type fakeProcessor struct {
	name    string
	matches func(input string) bool
	emit    func(input string) (model.Output, error)

	mu    sync.Mutex
	calls []string
}

func (f *fakeProcessor) Source() model.Source {
	return model.Source{Name: f.name, ID: f.name}
}

func (f *fakeProcessor) CanProcess(ctx context.Context, input model.CrawlingInput, view model.ContextView) bool {
	return f.matches(input.RawInput)
}

func (f *fakeProcessor) Process(ctx context.Context, input model.CrawlingInput, view model.ContextView) (model.Output, error) {
	f.mu.Lock()
	f.calls = append(f.calls, input.RawInput)
	f.mu.Unlock()
	return f.emit(input.RawInput)
}

func (f *fakeProcessor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func outputFor(p *fakeProcessor, input string, fields ...model.Field) model.Output {
	return model.Output{
		Source:    p.Source(),
		StartedBy: model.RootSource,
		Input:     input,
		Data:      []model.Record{fields},
		Timestamp: time.Now().UnixMilli(),
	}
}

// collectEvents records the terminal events (SessionFinished,
// SessionFailed) s delivers; the SessionStarted that Init emits is not
// recorded.
func collectEvents(s *Session) (*[]model.SessionEvent, func()) {
	events := &[]model.SessionEvent{}
	var mu sync.Mutex
	s.SetEventListener(func(ev model.SessionEvent) {
		if _, started := ev.(model.SessionStarted); started {
			return
		}
		mu.Lock()
		*events = append(*events, ev)
		mu.Unlock()
	})
	return events, func() {}
}

func waitFinished(t *testing.T, s *Session) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Wait(ctx); err != nil {
		t.Fatalf("session did not finish in time: %v", err)
	}
}

func TestDepthBoundedFanOut(t *testing.T) {
	p1 := &fakeProcessor{
		name:    "p1",
		matches: func(in string) bool { return in == "S0" },
		emit: func(in string) (model.Output, error) {
			return outputFor(&fakeProcessor{name: "p1"}, in,
				model.Field{Key: "url", Value: model.Crawlable("S1")},
				model.Field{Key: "url", Value: model.Crawlable("S2")},
				model.Field{Key: "url", Value: model.Crawlable("S3")},
			), nil
		},
	}
	p2 := &fakeProcessor{
		name: "p2",
		matches: func(in string) bool {
			return in == "S1" || in == "S2" || in == "S3"
		},
		emit: func(in string) (model.Output, error) {
			return outputFor(&fakeProcessor{name: "p2"}, in,
				model.Field{Key: "url", Value: model.Crawlable("S4")},
				model.Field{Key: "url", Value: model.Crawlable("S5")},
				model.Field{Key: "url", Value: model.Crawlable("S6")},
			), nil
		},
	}
	p3 := &fakeProcessor{
		name: "p3",
		matches: func(in string) bool {
			return in == "S4" || in == "S5" || in == "S6"
		},
		emit: func(in string) (model.Output, error) {
			return outputFor(&fakeProcessor{name: "p3"}, in,
				model.Field{Key: "url", Value: model.Crawlable("S7")},
				model.Field{Key: "url", Value: model.Crawlable("S8")},
				model.Field{Key: "url", Value: model.Crawlable("S9")},
			), nil
		},
	}
	p4 := &fakeProcessor{
		name: "p4",
		matches: func(in string) bool {
			return in == "S7" || in == "S8" || in == "S9"
		},
		emit: func(in string) (model.Output, error) {
			return outputFor(&fakeProcessor{name: "p4"}, in), nil
		},
	}

	st := store.NewMemory()
	s, err := New(Config{
		InitialInputs: []string{"S0"},
		BatchSize:     10,
		Processors:    wrapAll(p1, p2, p3, p4),
		Store:         st,
		MaxCrawlDepth: 3,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.Init()
	waitFinished(t, s)

	if got := s.ctx.Len(); got != 7 {
		t.Fatalf("expected 7 stored outputs, got %d", got)
	}
	if p4.callCount() != 0 {
		t.Fatalf("fourth processor should never succeed at depth >= maxCrawlDepth, got %d calls", p4.callCount())
	}
}

func TestFaultyProcessorIsolation(t *testing.T) {
	ok := &fakeProcessor{
		name:    "namer",
		matches: func(in string) bool { return true },
		emit: func(in string) (model.Output, error) {
			return outputFor(&fakeProcessor{name: "namer"}, in,
				model.Field{Key: "full_name", Value: model.Uncrawlable("John Smith")},
			), nil
		},
	}
	faulty := &fakeProcessor{
		name:    "faulty",
		matches: func(in string) bool { return in == "johny123" },
		emit: func(in string) (model.Output, error) {
			return model.Output{}, errors.New("boom")
		},
	}

	st := store.NewMemory()
	s, err := New(Config{
		InitialInputs: []string{"johny123"},
		BatchSize:     2,
		Processors:    wrapAll(ok, faulty),
		Store:         st,
		MaxCrawlDepth: 5,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	events, _ := collectEvents(s)
	s.Init()
	waitFinished(t, s)

	if len(*events) != 1 {
		t.Fatalf("expected exactly one terminal event, got %d", len(*events))
	}
	if _, ok := (*events)[0].(model.SessionFinished); !ok {
		t.Fatalf("expected SessionFinished, got %T", (*events)[0])
	}
	values := s.ctx.Values("full_name")
	if len(values) != 1 || values[0] != "John Smith" {
		t.Fatalf("expected full_name=[John Smith], got %v", values)
	}
}

func TestStoreFailurePropagatesAsSessionFailed(t *testing.T) {
	p := &fakeProcessor{
		name:    "p",
		matches: func(in string) bool { return true },
		emit: func(in string) (model.Output, error) {
			return outputFor(&fakeProcessor{name: "p"}, in), nil
		},
	}
	s, err := New(Config{
		InitialInputs: []string{"seed"},
		BatchSize:     1,
		Processors:    wrapAll(p),
		Store:         failingStore{},
		MaxCrawlDepth: 1,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	events, _ := collectEvents(s)
	s.Init()
	waitFinished(t, s)

	if len(*events) != 1 {
		t.Fatalf("expected exactly one terminal event, got %d", len(*events))
	}
	failed, ok := (*events)[0].(model.SessionFailed)
	if !ok {
		t.Fatalf("expected SessionFailed, got %T", (*events)[0])
	}
	if failed.Err == nil {
		t.Fatal("expected a non-nil error on SessionFailed")
	}
}

func TestCrawlabilityRouting(t *testing.T) {
	first := &fakeProcessor{
		name:    "first",
		matches: func(in string) bool { return in == "seed" },
		emit: func(in string) (model.Output, error) {
			return outputFor(&fakeProcessor{name: "first"}, in,
				model.Field{Key: "full_name", Value: model.Crawlable("John")},
				model.Field{Key: "profile_pic_url", Value: model.Uncrawlable("https://x/johnny.jpg")},
			), nil
		},
	}
	second := &fakeProcessor{
		name:    "second",
		matches: func(in string) bool { return in == "John" },
		emit: func(in string) (model.Output, error) {
			return outputFor(&fakeProcessor{name: "second"}, in,
				model.Field{Key: "profile_id", Value: model.Crawlable("abc")},
			), nil
		},
	}
	third := &fakeProcessor{
		name:    "third",
		matches: func(in string) bool { return in == "https://x/johnny.jpg" },
		emit: func(in string) (model.Output, error) {
			return outputFor(&fakeProcessor{name: "third"}, in,
				model.Field{Key: "file_path", Value: model.Uncrawlable("/tmp/johnny.jpg")},
			), nil
		},
	}

	s, err := New(Config{
		InitialInputs: []string{"seed"},
		BatchSize:     5,
		Processors:    wrapAll(first, second, third),
		Store:         store.NewMemory(),
		MaxCrawlDepth: 10,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.Init()
	waitFinished(t, s)

	if got := s.ctx.Values("profile_id"); len(got) != 1 || got[0] != "abc" {
		t.Fatalf("expected profile_id=[abc], got %v", got)
	}
	if got := s.ctx.Values("file_path"); len(got) != 0 {
		t.Fatalf("expected file_path absent (picture url was uncrawlable), got %v", got)
	}
}

func TestGuardPreventsDuplicateProcessing(t *testing.T) {
	p := &fakeProcessor{
		name:    "loop",
		matches: func(in string) bool { return true },
		emit: func(in string) (model.Output, error) {
			return outputFor(&fakeProcessor{name: "loop"}, in,
				model.Field{Key: "next", Value: model.Crawlable(in)},
			), nil
		},
	}
	s, err := New(Config{
		InitialInputs: []string{"seed"},
		BatchSize:     1,
		Processors:    wrapAll(p),
		Store:         store.NewMemory(),
		MaxCrawlDepth: 1000,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.Init()
	waitFinished(t, s)

	if p.callCount() != 1 {
		t.Fatalf("expected processor invoked exactly once despite self-loop, got %d", p.callCount())
	}
}

func TestConfigValidation(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"no seeds", Config{BatchSize: 1, Processors: wrapAll(&fakeProcessor{name: "x", matches: func(string) bool { return true }}), Store: store.NewMemory(), MaxCrawlDepth: 1}},
		{"blank seed", Config{InitialInputs: []string{"  "}, BatchSize: 1, Processors: wrapAll(&fakeProcessor{name: "x", matches: func(string) bool { return true }}), Store: store.NewMemory(), MaxCrawlDepth: 1}},
		{"zero batch size", Config{InitialInputs: []string{"s"}, BatchSize: 0, Processors: wrapAll(&fakeProcessor{name: "x", matches: func(string) bool { return true }}), Store: store.NewMemory(), MaxCrawlDepth: 1}},
		{"no processors", Config{InitialInputs: []string{"s"}, BatchSize: 1, Store: store.NewMemory(), MaxCrawlDepth: 1}},
		{"no store", Config{InitialInputs: []string{"s"}, BatchSize: 1, Processors: wrapAll(&fakeProcessor{name: "x", matches: func(string) bool { return true }})}},
		{"zero max depth", Config{InitialInputs: []string{"s"}, BatchSize: 1, Processors: wrapAll(&fakeProcessor{name: "x", matches: func(string) bool { return true }}), Store: store.NewMemory()}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.name == "zero max depth" {
				if _, err := New(tc.cfg); err != nil {
					t.Fatalf("zero max depth should default to no-limit, got error: %v", err)
				}
				return
			}
			if _, err := New(tc.cfg); err == nil {
				t.Fatalf("expected validation error for %s", tc.name)
			}
		})
	}
}

type failingStore struct{}

func (failingStore) Save(ctx context.Context, result model.CrawlingResult) (string, error) {
	return "", fmt.Errorf("store: disk full")
}
func (failingStore) GetByID(ctx context.Context, id string) (model.CrawlingResult, error) {
	return model.CrawlingResult{}, store.ErrNotFound
}
func (failingStore) GetAll(ctx context.Context) ([]model.CrawlingResult, error) { return nil, nil }
func (failingStore) DeleteByID(ctx context.Context, id string) error            { return store.ErrNotFound }
func (failingStore) DeleteAll(ctx context.Context) error                       { return nil }
