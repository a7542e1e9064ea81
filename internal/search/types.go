// Package search fuses lexical and vector retrieval into one ranking.
//
// Each leg over-fetches 2*topK candidates, the two score lists are min-max
// normalized independently and summed with configurable weights. A missing
// or failing vector leg degrades the call to lexical-only; Search never
// returns an error for that.
package search

import (
	"github.com/Aman-CERP/coderag/internal/chunk"
	"github.com/Aman-CERP/coderag/internal/config"
)

// Result is one fused search hit.
type Result struct {
	Chunk chunk.Chunk `json:"chunk"`
	Score float64     `json:"score"`

	// Normalized per-leg scores before weighting; 0 when the chunk was not
	// returned by that leg.
	LexicalScore float64 `json:"lexical_score"`
	VectorScore  float64 `json:"vector_score"`
}

// Weights configures the relative importance of the two legs.
// They do not need to sum to 1.
type Weights struct {
	Lexical float64
	Vector  float64
}

// DefaultWeights returns lexical 0.6, vector 0.4.
func DefaultWeights() Weights {
	return Weights{Lexical: 0.6, Vector: 0.4}
}

// Config configures a Searcher.
type Config struct {
	Weights       Weights
	VectorEnabled bool
}

// DefaultConfig returns the default weights with vector retrieval on.
func DefaultConfig() Config {
	return Config{Weights: DefaultWeights(), VectorEnabled: true}
}

// ConfigFrom converts the search section of the project configuration.
func ConfigFrom(cfg config.SearchConfig) Config {
	return Config{
		Weights: Weights{
			Lexical: cfg.LexicalWeight,
			Vector:  cfg.VectorWeight,
		},
		VectorEnabled: cfg.VectorEnabled,
	}
}
