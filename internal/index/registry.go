package index

import (
	"context"
	"errors"
	"path/filepath"
	"sync"

	cerrors "github.com/Aman-CERP/coderag/internal/errors"
)

// Opener creates the Indexer for an absolute project root.
type Opener func(root string) (*Indexer, error)

// Registry hands out one Indexer per project root. The first Get for a
// root opens the Indexer and restores it from the cache directory.
type Registry struct {
	mu       sync.Mutex
	open     Opener
	indexers map[string]*Indexer
}

// NewRegistry creates a registry that opens indexers with open.
func NewRegistry(open Opener) *Registry {
	return &Registry{
		open:     open,
		indexers: make(map[string]*Indexer),
	}
}

// Get returns the Indexer for root, opening and restoring it on first use.
// A failed Restore is not cached; the next Get retries.
func (r *Registry) Get(ctx context.Context, root string) (*Indexer, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, cerrors.InvalidArgument("invalid project root %q: %v", root, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if ix, ok := r.indexers[abs]; ok {
		return ix, nil
	}

	ix, err := r.open(abs)
	if err != nil {
		return nil, err
	}
	if _, err := ix.Restore(ctx); err != nil {
		_ = ix.Close()
		return nil, err
	}
	r.indexers[abs] = ix
	return ix, nil
}

// Len returns the number of open indexers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.indexers)
}

// Reset closes every indexer and empties the registry.
func (r *Registry) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for root, ix := range r.indexers {
		errs = append(errs, ix.Close())
		delete(r.indexers, root)
	}
	return errors.Join(errs...)
}
