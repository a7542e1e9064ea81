// Package embed produces vector embeddings for chunks and queries.
//
// Clients never fail because a provider is missing: a client without
// credentials reports itself unavailable and returns no vectors, and
// callers fall back to lexical-only retrieval.
package embed

import (
	"context"
	"math"
	"time"
)

const (
	// DefaultBatchSize is the maximum number of texts per provider request.
	DefaultBatchSize = 96

	// DefaultTimeout bounds a single provider request.
	DefaultTimeout = 30 * time.Second

	// DefaultVoyageModel is the provider model used when none is configured.
	DefaultVoyageModel = "voyage-3"

	// DefaultVoyageEndpoint is the Voyage embeddings API.
	DefaultVoyageEndpoint = "https://api.voyageai.com/v1/embeddings"

	// StaticDimensions is the default dimension of the static client.
	StaticDimensions = 256

	// EmbeddingCacheFile is the disk cache name inside the cache directory.
	EmbeddingCacheFile = "embeddings.json"
)

// Client turns ordered texts into ordered vectors.
type Client interface {
	// Embed returns one vector per text, in order. A client in fallback
	// mode returns no vectors and no error.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Available reports whether the last provider call succeeded and
	// credentials are present.
	Available() bool

	// FallbackMode reports that the client has permanently stopped calling
	// its provider. Callers skip vector paths entirely.
	FallbackMode() bool

	// ModelName returns the model identifier, part of every cache key.
	ModelName() string

	// Close releases resources.
	Close() error
}

// normalizeVector normalizes a vector to unit length.
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}

	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}

	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = float32(float64(val) / magnitude)
	}
	return normalized
}
