package store

import (
	"context"
	"errors"

	"github.com/fleetdeck/fleetdeck/internal/model"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// Store defines the persistence interface for the document collections.
// Filters are equality-only and applied server-side; ordering and truncation
// beyond the raw limit are the caller's concern.
type Store interface {
	// Document access
	Insert(ctx context.Context, doc *model.Document) error
	Get(ctx context.Context, collection, id string) (*model.Document, error)
	List(ctx context.Context, collection string, filters []model.Filter, limit int) ([]*model.Document, error)
	SetStatus(ctx context.Context, collection, id, status string) (*model.Document, error)
	Delete(ctx context.Context, collection, id string) error

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Close() error
}
