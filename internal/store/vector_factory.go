package store

import (
	"path/filepath"

	"github.com/Aman-CERP/coderag/internal/config"
	cerrors "github.com/Aman-CERP/coderag/internal/errors"
)

// VectorDBFile is the SQLite vector database name inside the cache directory.
const VectorDBFile = "vectors.db"

// NewVectorStore returns the configured backend. cacheDir is only used by
// the sqlite backend.
func NewVectorStore(cfg config.VectorStoreConfig, cacheDir string) (VectorStore, error) {
	switch cfg.Backend {
	case config.VectorBackendMemory, "":
		return NewMemoryStore(), nil
	case config.VectorBackendHNSW:
		return NewHNSWStore(HNSWConfig{M: cfg.M, EfSearch: cfg.EfSearch}), nil
	case config.VectorBackendSQLite:
		s, err := NewSQLiteStore(filepath.Join(cacheDir, VectorDBFile))
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, cerrors.InvalidArgument("unknown vector store backend: %s (valid options: memory, hnsw, sqlite)", cfg.Backend)
	}
}
