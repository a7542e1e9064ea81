package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/coderag/internal/chunk"
)

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache", "vectors.db")

	// Given: a store with two vectors
	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	c := chunk.Chunk{FilePath: "pkg/a.go", Content: "func A() {}", StartLine: 3, EndLine: 9, Type: chunk.TypeMethod, Name: "A"}
	require.NoError(t, s.Add(ctx, []chunk.Chunk{c, testChunk("b.go", 1)}, [][]float32{{0.25, -1.5, 3}, {1, 1, 1}}))
	require.NoError(t, s.Close())

	// When: reopening the database
	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	// Then: entries and chunk fields survive
	assert.Equal(t, 2, reopened.Count())
	hits, err := reopened.Search(ctx, []float32{0.25, -1.5, 3}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, c, hits[0].Chunk)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	assert.Equal(t, path, reopened.Path())
}

func TestSQLiteStore_CloseIdempotent(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "vectors.db"))
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Zero(t, s.Count())
}

func TestVectorBlobEncoding(t *testing.T) {
	v := []float32{0, 1.5, -2.25, 3.4028235e38}

	blob := encodeVector(v)
	assert.Len(t, blob, 16)
	assert.Equal(t, []byte{0, 0, 0xc0, 0x3f}, blob[4:8], "little-endian 1.5")

	decoded, err := decodeVector(blob)
	require.NoError(t, err)
	assert.Equal(t, v, decoded)

	_, err = decodeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}
