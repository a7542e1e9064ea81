package store

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/coderag/internal/chunk"
	"github.com/Aman-CERP/coderag/internal/config"
)

func configFor(backend string) config.VectorStoreConfig {
	cfg := config.NewConfig().VectorStore
	cfg.Backend = backend
	return cfg
}

func randomVectors(rng *rand.Rand, n, dims int) [][]float32 {
	vecs := make([][]float32, n)
	for i := range vecs {
		v := make([]float32, dims)
		for j := range v {
			v[j] = rng.Float32()*2 - 1
		}
		vecs[i] = v
	}
	return vecs
}

func TestHNSWStore_LargeSearchRescoresExactly(t *testing.T) {
	// Given: 300 random vectors
	rng := rand.New(rand.NewSource(42))
	vecs := randomVectors(rng, 300, 16)
	chunks := make([]chunk.Chunk, len(vecs))
	for i := range chunks {
		chunks[i] = testChunk(fmt.Sprintf("f%03d.go", i), 1)
	}

	s := NewHNSWStore(HNSWConfig{})
	defer func() { _ = s.Close() }()
	require.NoError(t, s.Add(context.Background(), chunks, vecs))

	exact := NewMemoryStore()
	require.NoError(t, exact.Add(context.Background(), chunks, vecs))

	// When: searching with a stored vector as query
	hits, err := s.Search(context.Background(), vecs[17], 10)
	require.NoError(t, err)

	// Then: the vector itself ranks first and scores are exact cosines
	require.Len(t, hits, 10)
	assert.Equal(t, "f017.go", hits[0].Chunk.FilePath)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score)
	}
	all, err := exact.Search(context.Background(), vecs[17], len(vecs))
	require.NoError(t, err)
	want := make(map[string]float64, len(all))
	for _, h := range all {
		want[h.Chunk.Key()] = h.Score
	}
	for _, h := range hits {
		assert.Equal(t, want[h.Chunk.Key()], h.Score)
	}
}

func TestHNSWStore_FullScanMatchesMemory(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	vecs := randomVectors(rng, 40, 8)
	chunks := make([]chunk.Chunk, len(vecs))
	for i := range chunks {
		chunks[i] = testChunk("same.go", i*10+1)
	}

	h := NewHNSWStore(HNSWConfig{})
	m := NewMemoryStore()
	require.NoError(t, h.Add(context.Background(), chunks, vecs))
	require.NoError(t, m.Add(context.Background(), chunks, vecs))

	// When: k covers the whole store
	query := randomVectors(rng, 1, 8)[0]
	got, err := h.Search(context.Background(), query, 40)
	require.NoError(t, err)
	want, err := m.Search(context.Background(), query, 40)
	require.NoError(t, err)

	// Then: results are identical to the linear scan
	assert.Equal(t, want, got)
}

func TestHNSWStore_LazyDeletionAndCompaction(t *testing.T) {
	ctx := context.Background()
	s := NewHNSWStore(HNSWConfig{})
	defer func() { _ = s.Close() }()

	c := testChunk("a.go", 1)
	require.NoError(t, s.Add(ctx, []chunk.Chunk{c}, [][]float32{{1, 0}}))
	require.NoError(t, s.Add(ctx, []chunk.Chunk{c}, [][]float32{{0, 1}}))

	// Then: the replaced node is orphaned, not deleted
	stats := s.Stats()
	assert.Equal(t, HNSWStats{Live: 1, GraphNodes: 2, Orphans: 1}, stats)

	require.NoError(t, s.Add(ctx,
		[]chunk.Chunk{testChunk("a.go", 10), testChunk("a.go", 20), testChunk("b.go", 1)},
		[][]float32{{1, 1}, {1, -1}, {-1, 1}}))

	// When: removing a file leaves more orphans than live nodes
	require.NoError(t, s.Remove(ctx, "a.go"))

	// Then: the graph is rebuilt from live entries
	assert.Equal(t, HNSWStats{Live: 1, GraphNodes: 1, Orphans: 0}, s.Stats())
	hits, err := s.Search(ctx, []float32{-1, 1}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "b.go", hits[0].Chunk.FilePath)
}

func TestHNSWStore_ZeroVectorsStayOutOfGraph(t *testing.T) {
	ctx := context.Background()
	s := NewHNSWStore(HNSWConfig{})
	defer func() { _ = s.Close() }()

	require.NoError(t, s.Add(ctx,
		[]chunk.Chunk{testChunk("zero.go", 1), testChunk("one.go", 1)},
		[][]float32{{0, 0, 0}, {0, 0, 1}}))

	stats := s.Stats()
	assert.Equal(t, 2, stats.Live)
	assert.Equal(t, 1, stats.GraphNodes)

	hits, err := s.Search(ctx, []float32{0, 0, 1}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "one.go", hits[0].Chunk.FilePath)
}

func TestHNSWStore_ClearResetsGraph(t *testing.T) {
	ctx := context.Background()
	s := NewHNSWStore(HNSWConfig{M: 8, EfSearch: 32})
	defer func() { _ = s.Close() }()

	require.NoError(t, s.Add(ctx, []chunk.Chunk{testChunk("a.go", 1)}, [][]float32{{1, 2}}))
	require.NoError(t, s.Clear(ctx))

	assert.Equal(t, HNSWStats{}, s.Stats())

	// And: a new dimension is accepted after clearing
	require.NoError(t, s.Add(ctx, []chunk.Chunk{testChunk("a.go", 1)}, [][]float32{{1, 2, 3}}))
	assert.Equal(t, 1, s.Count())
}
