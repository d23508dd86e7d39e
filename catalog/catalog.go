// Package catalog defines the persistent store for file-independent
// metadata records. Stores own no file I/O; the engine is the only
// component that touches both.
package catalog

import (
	"context"

	"github.com/G1enB1and/MediaManagerX/data"
)

// Store is CRUD over catalog metadata records, keyed by media identity.
type Store interface {
	// Name returns the identifier name defined for this store.
	Name() string
	// Open is part of the lifecycle behaviour and gets called before the
	// store is used.
	Open(ctx context.Context) error
	// Close releases the store's resources.
	Close(ctx context.Context) error

	// Get returns the record for the identity, or data.ErrNotExist.
	Get(ctx context.Context, id data.MediaID) (*data.CatalogRecord, error)

	// Upsert creates or fully replaces the record for record.ID.
	Upsert(ctx context.Context, record *data.CatalogRecord) error

	// Delete removes the record. Returns false (no error) if the
	// identity was unknown.
	Delete(ctx context.Context, id data.MediaID) (bool, error)

	// List returns every known media identity.
	List(ctx context.Context) ([]data.MediaID, error)
}
