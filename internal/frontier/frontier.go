// Package frontier holds the bounded-complexity container of pending
// traversal items for one session, in BFS or DFS order.
package frontier

import (
	"fmt"

	"github.com/IshaanNene/polycrawl/internal/model"
)

// Item is one pending traversal entry: the depth it was discovered at,
// plus the crawling input to feed through the processor bank.
type Item struct {
	Depth int
	Input model.CrawlingInput
}

// Frontier is the contract every traversal-order variant satisfies.
type Frontier interface {
	// Add enqueues an item.
	Add(item Item)
	// Remove dequeues one item, following the variant's order. ok is
	// false if the frontier was empty.
	Remove() (item Item, ok bool)
	// RemoveBatch repeatedly removes until empty or n items have been
	// returned. A negative n is a usage error.
	RemoveBatch(n int) ([]Item, error)
	// IsEmpty reports whether the frontier currently holds no items.
	IsEmpty() bool
}

// Algorithm selects which Frontier variant a session constructs.
type Algorithm int

const (
	// BFS yields level-order traversal (enqueue tail, dequeue head). It
	// is the default.
	BFS Algorithm = iota
	// DFS yields last-in-first-out traversal (push top, pop top).
	DFS
)

// New constructs the Frontier variant selected by algo.
func New(algo Algorithm) Frontier {
	switch algo {
	case DFS:
		return newDFS()
	default:
		return newBFS()
	}
}

// removeBatch is the shared "repeatedly Remove until empty or n reached"
// loop both variants use — the variants differ only in the order Remove
// returns items, not in batching policy.
func removeBatch(f Frontier, n int) ([]Item, error) {
	if n < 0 {
		return nil, fmt.Errorf("frontier: removeBatch: negative n (%d) is a usage error", n)
	}
	items := make([]Item, 0, n)
	for len(items) < n {
		item, ok := f.Remove()
		if !ok {
			break
		}
		items = append(items, item)
	}
	return items, nil
}
