// Package store provides the lexical scorer (BM25) and the vector stores
// the hybrid searcher reads from.
package store

import (
	"context"

	"github.com/Aman-CERP/coderag/internal/chunk"
)

// ScoredDoc is a lexical hit: a position in the fitted corpus and its score.
type ScoredDoc struct {
	Index int
	Score float64
}

// LexicalScorer ranks an ordered corpus of documents against a query.
// Indices are positions in the slice passed to the last Fit.
type LexicalScorer interface {
	// Fit replaces the corpus. A scorer fit on no documents, or on documents
	// that all tokenize to nothing, is unfit.
	Fit(docs []string)

	// Score returns the score of document i, or 0 when the scorer is unfit,
	// i is out of range, or the query has no tokens.
	Score(query string, i int) float64

	// TopK returns up to k documents with a positive score, best first.
	TopK(query string, k int) []ScoredDoc

	Fitted() bool
	Len() int

	// Snapshot serializes the fitted state; Restore loads it back.
	Snapshot() ([]byte, error)
	Restore(data []byte) error

	Close() error
}

// VectorHit is a vector search result.
type VectorHit struct {
	Chunk chunk.Chunk
	Score float64
}

// VectorStore holds one embedding per chunk, keyed by chunk.Key().
type VectorStore interface {
	// Add stores vectors[i] for chunks[i], replacing existing keys.
	// Mismatched lengths are an invalid argument and add nothing.
	Add(ctx context.Context, chunks []chunk.Chunk, vectors [][]float32) error

	// Search returns up to k entries by cosine similarity, best first.
	// A zero query, k <= 0 or an empty store return no hits.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Remove deletes every entry of a file. Unknown paths are a no-op.
	Remove(ctx context.Context, path string) error

	Clear(ctx context.Context) error
	Count() int
	Close() error
}
