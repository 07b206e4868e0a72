package store

import (
	"context"
	"sync"

	"github.com/IshaanNene/polycrawl/internal/idutil"
	"github.com/IshaanNene/polycrawl/internal/model"
)

// Memory is the simplest CrawlingResultStore: an in-process map, useful
// for tests and for one-shot CLI runs that only need the final result
// printed, not persisted.
type Memory struct {
	mu      sync.RWMutex
	results map[string]model.CrawlingResult
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{results: make(map[string]model.CrawlingResult)}
}

func (m *Memory) Save(ctx context.Context, result model.CrawlingResult) (string, error) {
	id := idutil.New()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[id] = result
	return id, nil
}

func (m *Memory) GetByID(ctx context.Context, id string) (model.CrawlingResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.results[id]
	if !ok {
		return model.CrawlingResult{}, ErrNotFound
	}
	return r, nil
}

func (m *Memory) GetAll(ctx context.Context) ([]model.CrawlingResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.CrawlingResult, 0, len(m.results))
	for _, r := range m.results {
		out = append(out, r)
	}
	return out, nil
}

func (m *Memory) DeleteByID(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.results[id]; !ok {
		return ErrNotFound
	}
	delete(m.results, id)
	return nil
}

func (m *Memory) DeleteAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = make(map[string]model.CrawlingResult)
	return nil
}
