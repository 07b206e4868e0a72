package processor

import (
	"fmt"
	"log/slog"
	"sync"
)

// Registry is an optional convenience for assembling a processor bank by
// name before handing it to a session or dispatcher config.
type Registry struct {
	mu      sync.RWMutex
	byName  map[string]InputProcessor
	ordered []string
	logger  *slog.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		byName: make(map[string]InputProcessor),
		logger: logger.With("component", "processor_registry"),
	}
}

// Register adds a processor under its Source().Name. Registering the
// same name twice is an error.
func (r *Registry) Register(p InputProcessor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Source().Name
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("processor registry: %q already registered", name)
	}
	r.byName[name] = p
	r.ordered = append(r.ordered, name)
	r.logger.Info("processor registered", "name", name, "id", p.Source().ID)
	return nil
}

// Get returns a processor by name.
func (r *Registry) Get(name string) (InputProcessor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byName[name]
	return p, ok
}

// All returns every registered processor, in registration order — the
// shape a dispatcher/session config expects for its processor bank.
func (r *Registry) All() []InputProcessor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]InputProcessor, 0, len(r.ordered))
	for _, name := range r.ordered {
		out = append(out, r.byName[name])
	}
	return out
}
