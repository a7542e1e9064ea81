package search

import (
	"cmp"
	"slices"

	"github.com/Aman-CERP/coderag/internal/chunk"
)

// scoredChunk is a candidate from one leg.
type scoredChunk struct {
	chunk chunk.Chunk
	score float64
}

// normalizeScores min-max scales scores to [0, 1]. An empty list stays
// empty; a list whose max equals its min maps to all 1.0.
func normalizeScores(scores []float64) []float64 {
	if len(scores) == 0 {
		return []float64{}
	}

	lo, hi := slices.Min(scores), slices.Max(scores)
	out := make([]float64, len(scores))
	if hi == lo {
		for i := range out {
			out[i] = 1.0
		}
		return out
	}
	for i, s := range scores {
		out[i] = (s - lo) / (hi - lo)
	}
	return out
}

// fuse merges the two legs by chunk identity. A chunk found by one leg
// gets that leg's weighted normalized score; a chunk found by both gets the
// sum. Results are sorted by fused score, then path, then start line, and
// truncated to topK.
func fuse(lexical, vector []scoredChunk, weights Weights, topK int) []Result {
	if len(lexical) == 0 && len(vector) == 0 {
		return []Result{}
	}

	merged := make(map[string]*Result, len(lexical)+len(vector))
	order := make([]string, 0, len(lexical)+len(vector))
	get := func(c chunk.Chunk) *Result {
		key := c.Key()
		if r, ok := merged[key]; ok {
			return r
		}
		r := &Result{Chunk: c}
		merged[key] = r
		order = append(order, key)
		return r
	}

	for i, norm := range normalizeScores(scoresOf(lexical)) {
		r := get(lexical[i].chunk)
		r.LexicalScore = norm
		r.Score += weights.Lexical * norm
	}
	for i, norm := range normalizeScores(scoresOf(vector)) {
		r := get(vector[i].chunk)
		r.VectorScore = norm
		r.Score += weights.Vector * norm
	}

	results := make([]Result, 0, len(order))
	for _, key := range order {
		results = append(results, *merged[key])
	}
	slices.SortStableFunc(results, compareResults)

	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results
}

func compareResults(a, b Result) int {
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Chunk.FilePath, b.Chunk.FilePath); c != 0 {
		return c
	}
	return cmp.Compare(a.Chunk.StartLine, b.Chunk.StartLine)
}

func scoresOf(list []scoredChunk) []float64 {
	scores := make([]float64, len(list))
	for i, s := range list {
		scores[i] = s.score
	}
	return scores
}
