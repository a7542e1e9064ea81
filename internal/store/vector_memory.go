package store

import (
	"context"
	"sync"

	"github.com/Aman-CERP/coderag/internal/chunk"
)

// MemoryStore is a VectorStore that scans every entry on search.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*vectorEntry
	closed  bool
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*vectorEntry)}
}

// Add stores one vector per chunk, replacing existing keys.
func (s *MemoryStore) Add(ctx context.Context, chunks []chunk.Chunk, vectors [][]float32) error {
	if err := validateAdd(chunks, vectors); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errStoreClosed
	}
	for i, c := range chunks {
		s.entries[c.Key()] = newVectorEntry(c, vectors[i])
	}
	return nil
}

// Search returns the k entries most similar to query.
func (s *MemoryStore) Search(ctx context.Context, query []float32, k int) ([]VectorHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errStoreClosed
	}
	queryNorm := vectorNorm(query)
	if k <= 0 || queryNorm == 0 || len(s.entries) == 0 {
		return nil, nil
	}
	return scanEntries(s.entries, query, queryNorm, k), nil
}

// Remove deletes every entry of path.
func (s *MemoryStore) Remove(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errStoreClosed
	}
	for key, e := range s.entries {
		if e.chunk.FilePath == path {
			delete(s.entries, key)
		}
	}
	return nil
}

// Clear removes every entry.
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errStoreClosed
	}
	s.entries = make(map[string]*vectorEntry)
	return nil
}

// Count returns the number of stored vectors.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close releases the entries. Further calls fail.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.entries = make(map[string]*vectorEntry)
	return nil
}

var _ VectorStore = (*MemoryStore)(nil)
