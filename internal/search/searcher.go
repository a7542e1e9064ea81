package search

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/coderag/internal/chunk"
	"github.com/Aman-CERP/coderag/internal/embed"
	"github.com/Aman-CERP/coderag/internal/outcome"
	"github.com/Aman-CERP/coderag/internal/store"
)

// Searcher runs hybrid search over a corpus. It only reads the scorer and
// the store; the indexer owns both.
type Searcher struct {
	lexical  store.LexicalScorer
	vectors  store.VectorStore
	embedder embed.Client
	config   Config
}

// NewSearcher creates a searcher. vectors and embedder may be nil, which
// makes every search lexical-only.
func NewSearcher(lexical store.LexicalScorer, vectors store.VectorStore, embedder embed.Client, cfg Config) *Searcher {
	return &Searcher{
		lexical:  lexical,
		vectors:  vectors,
		embedder: embedder,
		config:   cfg,
	}
}

// Search returns up to topK fused results. corpus must be the chunk
// sequence the lexical scorer was fit on.
//
// The returned Outcome is Degraded when the vector leg was skipped or
// failed, and Failed only when ctx was cancelled.
func (s *Searcher) Search(ctx context.Context, query string, topK int, corpus []chunk.Chunk) ([]Result, outcome.Outcome) {
	if strings.TrimSpace(query) == "" || topK <= 0 || len(corpus) == 0 {
		return []Result{}, outcome.OK()
	}

	start := time.Now()
	limit := 2 * topK

	var (
		lexical []scoredChunk
		vector  []scoredChunk
		vecOut  = outcome.OK()
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		lexical = s.lexicalLeg(query, limit, corpus)
		return nil
	})

	g.Go(func() error {
		vector, vecOut = s.vectorLeg(gctx, query, limit)
		return nil
	})

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return []Result{}, outcome.Failed("search cancelled", err)
	}

	results := fuse(lexical, vector, s.config.Weights, topK)

	slog.Debug("search_complete",
		slog.String("query", query),
		slog.Int("lexical_hits", len(lexical)),
		slog.Int("vector_hits", len(vector)),
		slog.Int("results", len(results)),
		slog.String("outcome", vecOut.String()),
		slog.Duration("duration", time.Since(start)))

	return results, vecOut
}

// lexicalLeg maps scorer indices back to corpus chunks. Indices outside
// the corpus mean the scorer and corpus are out of sync; they are dropped.
func (s *Searcher) lexicalLeg(query string, limit int, corpus []chunk.Chunk) []scoredChunk {
	if s.lexical == nil {
		return nil
	}

	hits := s.lexical.TopK(query, limit)
	out := make([]scoredChunk, 0, len(hits))
	for _, hit := range hits {
		if hit.Index < 0 || hit.Index >= len(corpus) {
			slog.Warn("search_lexical_index_out_of_range",
				slog.Int("index", hit.Index),
				slog.Int("corpus_size", len(corpus)))
			continue
		}
		out = append(out, scoredChunk{chunk: corpus[hit.Index], score: hit.Score})
	}
	return out
}

// vectorLeg embeds the query and searches the store. It never fails the
// search; problems are reported through the Outcome.
func (s *Searcher) vectorLeg(ctx context.Context, query string, limit int) ([]scoredChunk, outcome.Outcome) {
	if !s.config.VectorEnabled {
		return nil, outcome.OK()
	}
	if s.vectors == nil || s.embedder == nil {
		return nil, outcome.Degraded("no vector store or embedder")
	}
	if s.embedder.FallbackMode() || !s.embedder.Available() {
		return nil, outcome.Degraded("embedder unavailable")
	}

	vecs, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		slog.Warn("search_embed_failed", slog.String("error", err.Error()))
		return nil, outcome.DegradedErr("query embedding failed", err)
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return nil, outcome.Degraded("query embedding empty")
	}

	hits, err := s.vectors.Search(ctx, vecs[0], limit)
	if err != nil {
		slog.Warn("search_vector_failed", slog.String("error", err.Error()))
		return nil, outcome.DegradedErr("vector search failed", err)
	}

	out := make([]scoredChunk, len(hits))
	for i, hit := range hits {
		out[i] = scoredChunk{chunk: hit.Chunk, score: hit.Score}
	}
	return out, outcome.OK()
}
