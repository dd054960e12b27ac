package repositories

import (
	"context"
	"sync"

	"github.com/yigit/schoolmanager/internal/app/models"
)

// MemoryRepository keeps encoded snapshots in process memory.
// Snapshots are stored encoded so callers never share maps with the repository.
type MemoryRepository struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{blobs: make(map[string][]byte)}
}

func (r *MemoryRepository) Load(_ context.Context, name string) ([]models.Record, error) {
	r.mu.RLock()
	data, ok := r.blobs[name]
	r.mu.RUnlock()
	if !ok {
		return []models.Record{}, nil
	}
	return decodeRecords(data)
}

func (r *MemoryRepository) Save(_ context.Context, name string, records []models.Record) error {
	data, err := encodeRecords(records)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.blobs[name] = data
	r.mu.Unlock()
	return nil
}

func (r *MemoryRepository) Close() error {
	return nil
}

// Raw returns the stored encoding of a collection, for inspection in tests and tooling
func (r *MemoryRepository) Raw(name string) ([]byte, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	data, ok := r.blobs[name]
	return data, ok
}
