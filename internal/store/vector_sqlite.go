package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/Aman-CERP/coderag/internal/chunk"
	cerrors "github.com/Aman-CERP/coderag/internal/errors"
)

// SQLiteStore is a persistent VectorStore. Vectors are kept as
// little-endian float32 blobs; similarity is computed in Go.
type SQLiteStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	closed bool
}

// NewSQLiteStore opens or creates the vector database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := OpenSQLite(path)
	if err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, cerrors.New(cerrors.ErrCodeStoreFailed, "failed to initialize vector schema", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS vectors (
		chunk_key  TEXT PRIMARY KEY,
		file_path  TEXT NOT NULL,
		start_line INTEGER NOT NULL,
		end_line   INTEGER NOT NULL,
		chunk_type TEXT NOT NULL,
		name       TEXT NOT NULL DEFAULT '',
		content    TEXT NOT NULL,
		embedding  BLOB NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_vectors_file_path ON vectors(file_path);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Add upserts one row per chunk inside a single transaction.
func (s *SQLiteStore) Add(ctx context.Context, chunks []chunk.Chunk, vectors [][]float32) error {
	if err := validateAdd(chunks, vectors); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errStoreClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return cerrors.New(cerrors.ErrCodeStoreFailed, "failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO vectors
			(chunk_key, file_path, start_line, end_line, chunk_type, name, content, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return cerrors.New(cerrors.ErrCodeStoreFailed, "failed to prepare insert", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, c := range chunks {
		_, err := stmt.ExecContext(ctx, c.Key(), c.FilePath, c.StartLine, c.EndLine,
			string(c.Type), c.Name, c.Content, encodeVector(vectors[i]))
		if err != nil {
			return cerrors.New(cerrors.ErrCodeStoreFailed, "failed to insert vector", err).
				WithDetail("chunk", c.Key())
		}
	}

	if err := tx.Commit(); err != nil {
		return cerrors.New(cerrors.ErrCodeStoreFailed, "failed to commit vectors", err)
	}
	return nil
}

// Search loads every row and ranks it by cosine similarity.
func (s *SQLiteStore) Search(ctx context.Context, query []float32, k int) ([]VectorHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errStoreClosed
	}
	queryNorm := vectorNorm(query)
	if k <= 0 || queryNorm == 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT file_path, start_line, end_line, chunk_type, name, content, embedding
		FROM vectors`)
	if err != nil {
		return nil, cerrors.New(cerrors.ErrCodeStoreFailed, "failed to query vectors", err)
	}
	defer func() { _ = rows.Close() }()

	var hits []VectorHit
	for rows.Next() {
		var (
			c        chunk.Chunk
			kind     string
			embBytes []byte
		)
		if err := rows.Scan(&c.FilePath, &c.StartLine, &c.EndLine, &kind, &c.Name, &c.Content, &embBytes); err != nil {
			return nil, cerrors.New(cerrors.ErrCodeStoreFailed, "failed to scan vector row", err)
		}
		c.Type = chunk.Type(kind)
		vec, err := decodeVector(embBytes)
		if err != nil {
			return nil, cerrors.New(cerrors.ErrCodeStoreFailed, "corrupt vector blob", err).
				WithDetail("chunk", c.Key())
		}
		hits = append(hits, VectorHit{Chunk: c, Score: cosine(query, queryNorm, vec, vectorNorm(vec))})
	}
	if err := rows.Err(); err != nil {
		return nil, cerrors.New(cerrors.ErrCodeStoreFailed, "failed to iterate vectors", err)
	}
	return rankHits(hits, k), nil
}

// Remove deletes every row of path.
func (s *SQLiteStore) Remove(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errStoreClosed
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM vectors WHERE file_path = ?`, path); err != nil {
		return cerrors.New(cerrors.ErrCodeStoreFailed, "failed to remove vectors", err).
			WithDetail("path", path)
	}
	return nil
}

// Clear deletes every row.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errStoreClosed
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM vectors`); err != nil {
		return cerrors.New(cerrors.ErrCodeStoreFailed, "failed to clear vectors", err)
	}
	return nil
}

// Count returns the number of rows, or 0 when the count fails.
func (s *SQLiteStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0
	}
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM vectors`).Scan(&n); err != nil {
		return 0
	}
	return n
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

var _ VectorStore = (*SQLiteStore)(nil)

// encodeVector packs v as little-endian float32 values.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(x))
	}
	return buf
}

// decodeVector is the inverse of encodeVector.
func decodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("blob length %d is not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}
