// Package store defines the CrawlingResultStore contract and its
// reference implementations: in-memory, file/JSON, and MongoDB.
package store

import (
	"context"
	"errors"

	"github.com/IshaanNene/polycrawl/internal/model"
)

// ErrNotFound is returned by GetByID when no result exists under id.
var ErrNotFound = errors.New("store: result not found")

// CrawlingResultStore is the contract the core consumes from result
// stores. Save may fail; such failure must surface as session failure.
// Implementations must be safe for concurrent Save calls from different
// sessions.
type CrawlingResultStore interface {
	Save(ctx context.Context, result model.CrawlingResult) (id string, err error)
	GetByID(ctx context.Context, id string) (model.CrawlingResult, error)
	GetAll(ctx context.Context) ([]model.CrawlingResult, error)
	DeleteByID(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
}
