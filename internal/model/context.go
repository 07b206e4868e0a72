package model

import "sync"

// ContextView is the read-only surface of a CrawlingContext handed to
// processors. Processors must never be able to mutate the context
// directly — only the session's traversal loop commits to it.
type ContextView interface {
	// All returns every StoredOutput committed so far, in commit order.
	All() []StoredOutput
	// BySourceID returns every StoredOutput whose Source.ID matches.
	BySourceID(id string) []StoredOutput
	// BySourceName returns every StoredOutput whose Source.Name matches.
	BySourceName(name string) []StoredOutput
	// Values returns the flattened list of every value stored under key,
	// across every record of every StoredOutput, in commit then
	// within-record order.
	Values(key string) []string
}

// CrawlingContext is the ordered, queryable sequence of StoredOutputs
// accumulated by one session. It is created empty per session and
// mutated only by that session's own coordination goroutine via Commit.
type CrawlingContext struct {
	mu      sync.RWMutex
	outputs []StoredOutput
}

// NewCrawlingContext returns an empty context.
func NewCrawlingContext() *CrawlingContext {
	return &CrawlingContext{}
}

// Commit appends a StoredOutput, preserving insertion order. Only the
// owning session's traversal goroutine may call this.
func (c *CrawlingContext) Commit(out StoredOutput) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outputs = append(c.outputs, out)
}

// All implements ContextView.
func (c *CrawlingContext) All() []StoredOutput {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]StoredOutput, len(c.outputs))
	copy(out, c.outputs)
	return out
}

// BySourceID implements ContextView.
func (c *CrawlingContext) BySourceID(id string) []StoredOutput {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var matches []StoredOutput
	for _, o := range c.outputs {
		if o.Source.ID == id {
			matches = append(matches, o)
		}
	}
	return matches
}

// BySourceName implements ContextView.
func (c *CrawlingContext) BySourceName(name string) []StoredOutput {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var matches []StoredOutput
	for _, o := range c.outputs {
		if o.Source.Name == name {
			matches = append(matches, o)
		}
	}
	return matches
}

// Values implements ContextView.
func (c *CrawlingContext) Values(key string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var values []string
	for _, o := range c.outputs {
		for _, rec := range o.Data {
			for _, f := range rec {
				if f.Key == key {
					values = append(values, f.Value)
				}
			}
		}
	}
	return values
}

// Len returns the number of committed outputs.
func (c *CrawlingContext) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.outputs)
}
