package store

import (
	"cmp"
	"math"
	"slices"

	"github.com/Aman-CERP/coderag/internal/chunk"
	cerrors "github.com/Aman-CERP/coderag/internal/errors"
)

var errStoreClosed = cerrors.New(cerrors.ErrCodeStoreFailed, "vector store is closed", nil)

// vectorEntry is a stored chunk with its embedding and precomputed norm.
type vectorEntry struct {
	chunk chunk.Chunk
	vec   []float32
	norm  float64
}

func newVectorEntry(c chunk.Chunk, vec []float32) *vectorEntry {
	return &vectorEntry{chunk: c, vec: slices.Clone(vec), norm: vectorNorm(vec)}
}

// validateAdd checks the argument shape shared by every backend.
func validateAdd(chunks []chunk.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return cerrors.InvalidArgument("chunks and vectors length mismatch: %d vs %d", len(chunks), len(vectors))
	}
	return nil
}

func vectorNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosine returns the cosine similarity of a and b given their norms.
// Zero vectors and mismatched dimensions score 0.
func cosine(a []float32, aNorm float64, b []float32, bNorm float64) float64 {
	if aNorm == 0 || bNorm == 0 || len(a) != len(b) {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (aNorm * bNorm)
}

// rankHits sorts hits best first and truncates to k. Equal scores are
// ordered by file path, then start line.
func rankHits(hits []VectorHit, k int) []VectorHit {
	slices.SortFunc(hits, func(a, b VectorHit) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Chunk.FilePath, b.Chunk.FilePath); c != 0 {
			return c
		}
		return cmp.Compare(a.Chunk.StartLine, b.Chunk.StartLine)
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// scanEntries scores every entry against query exactly.
func scanEntries(entries map[string]*vectorEntry, query []float32, queryNorm float64, k int) []VectorHit {
	hits := make([]VectorHit, 0, len(entries))
	for _, e := range entries {
		hits = append(hits, VectorHit{Chunk: e.chunk, Score: cosine(query, queryNorm, e.vec, e.norm)})
	}
	return rankHits(hits, k)
}
