// Package memory provides an in-memory catalog store, used by tests and
// as a scratch catalog for browsing without a database file.
package memory

import (
	"context"
	"sync"

	"github.com/tidwall/btree"

	"github.com/G1enB1and/MediaManagerX/data"
)

type MemoryStore struct {
	mu      sync.RWMutex
	records *btree.Map[string, *data.CatalogRecord]
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: btree.NewMap[string, *data.CatalogRecord](0),
	}
}

// Name returns the identifier name defined for this store.
func (*MemoryStore) Name() string {
	return "memory"
}

// Open is part of the lifecycle behaviour; the store is ready as built.
func (ms *MemoryStore) Open(ctx context.Context) error {
	return nil
}

// Close drops all records.
func (ms *MemoryStore) Close(ctx context.Context) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.records.Clear()
	return nil
}

func (ms *MemoryStore) Get(ctx context.Context, id data.MediaID) (*data.CatalogRecord, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	record, ok := ms.records.Get(string(id))
	if !ok {
		return nil, data.ErrNotExist
	}

	return record.Clone(), nil
}

func (ms *MemoryStore) Upsert(ctx context.Context, record *data.CatalogRecord) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.records.Set(string(record.ID), record.Clone())
	return nil
}

func (ms *MemoryStore) Delete(ctx context.Context, id data.MediaID) (bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	_, ok := ms.records.Delete(string(id))
	return ok, nil
}

func (ms *MemoryStore) List(ctx context.Context) ([]data.MediaID, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	ids := make([]data.MediaID, 0, ms.records.Len())
	ms.records.Scan(func(key string, _ *data.CatalogRecord) bool {
		ids = append(ids, data.MediaID(key))
		return true
	})

	return ids, nil
}
