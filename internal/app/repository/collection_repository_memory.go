package repository

import (
	"context"
	"sync"
)

type memoryCollectionRepository struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryCollectionRepository keeps blobs in process memory; contents are lost on restart.
func NewMemoryCollectionRepository() CollectionRepository {
	return &memoryCollectionRepository{blobs: make(map[string][]byte)}
}

func (r *memoryCollectionRepository) Load(_ context.Context, key string) ([]byte, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data, ok := r.blobs[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true, nil
}

func (r *memoryCollectionRepository) Save(_ context.Context, key string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)
	r.blobs[key] = stored
	return nil
}
