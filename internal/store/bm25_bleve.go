package store

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/registry"

	cerrors "github.com/Aman-CERP/coderag/internal/errors"
)

const (
	// CodeTokenizerName is the bleve tokenizer backed by Tokenize.
	CodeTokenizerName = "coderag_code_tokenizer"

	// CodeAnalyzerName is the default analyzer of the bleve scorer.
	CodeAnalyzerName = "coderag_code_analyzer"

	contentField = "content"
)

func init() {
	_ = registry.RegisterTokenizer(CodeTokenizerName, codeTokenizerConstructor)
}

// BleveScorer is a LexicalScorer backed by an in-memory bleve index.
// Document IDs are corpus positions.
//
// Bleve analyzes the documents and finds the candidates that match a query.
// Candidates are scored with the same Okapi BM25 model as OkapiScorer
// (k1=1.5, b=0.75, epsilon IDF), so both backends rank identically. Bleve's
// own BM25 model uses a strictly positive IDF and k1=1.2.
type BleveScorer struct {
	mu      sync.RWMutex
	index   bleve.Index
	docs    []string
	weights *OkapiScorer
	fitted  bool
	closed  bool
}

type bleveDocument struct {
	Content string `json:"content"`
}

type bleveSnapshot struct {
	Docs []string `json:"docs"`
}

// NewBleveScorer returns an unfit bleve scorer.
func NewBleveScorer() *BleveScorer {
	return &BleveScorer{}
}

func newIndexMapping() (*mapping.IndexMappingImpl, error) {
	indexMapping := bleve.NewIndexMapping()
	err := indexMapping.AddCustomAnalyzer(CodeAnalyzerName, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": CodeTokenizerName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add custom analyzer: %w", err)
	}
	indexMapping.DefaultAnalyzer = CodeAnalyzerName
	return indexMapping, nil
}

// Fit rebuilds the in-memory index from docs. Indexing failures leave the
// scorer unfit and are logged.
func (b *BleveScorer) Fit(docs []string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	if b.index != nil {
		_ = b.index.Close()
		b.index = nil
	}
	b.docs = slices.Clone(docs)
	b.fitted = false

	b.weights = NewOkapiScorer()
	b.weights.Fit(b.docs)
	if !b.weights.Fitted() {
		return
	}

	if err := b.rebuild(); err != nil {
		slog.Warn("bleve_fit_failed", slog.String("error", err.Error()))
		return
	}
	b.fitted = true
}

func (b *BleveScorer) rebuild() error {
	indexMapping, err := newIndexMapping()
	if err != nil {
		return err
	}
	idx, err := bleve.NewMemOnly(indexMapping)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	batch := idx.NewBatch()
	for i, doc := range b.docs {
		if err := batch.Index(strconv.Itoa(i), bleveDocument{Content: doc}); err != nil {
			_ = idx.Close()
			return fmt.Errorf("failed to index document %d: %w", i, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		_ = idx.Close()
		return fmt.Errorf("failed to execute batch: %w", err)
	}

	b.index = idx
	return nil
}

// search runs a match query over every document and returns the hits with
// a positive BM25 score, best first. Equal scores keep corpus order.
// Callers hold the read lock.
func (b *BleveScorer) search(query string) []ScoredDoc {
	matchQuery := bleve.NewMatchQuery(query)
	matchQuery.SetField(contentField)

	req := bleve.NewSearchRequest(matchQuery)
	req.Size = len(b.docs)

	result, err := b.index.SearchInContext(context.Background(), req)
	if err != nil {
		slog.Warn("bleve_search_failed", slog.String("error", err.Error()))
		return nil
	}

	hits := make([]ScoredDoc, 0, len(result.Hits))
	for _, hit := range result.Hits {
		i, err := strconv.Atoi(hit.ID)
		if err != nil {
			continue
		}
		if score := b.weights.Score(query, i); score > 0 {
			hits = append(hits, ScoredDoc{Index: i, Score: score})
		}
	}
	slices.SortFunc(hits, func(x, y ScoredDoc) int {
		if c := cmp.Compare(y.Score, x.Score); c != 0 {
			return c
		}
		return cmp.Compare(x.Index, y.Index)
	})
	return hits
}

// Score returns the BM25 score of document i for query.
func (b *BleveScorer) Score(query string, i int) float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.fitted || len(Tokenize(query)) == 0 {
		return 0
	}
	if i < 0 || i >= len(b.docs) {
		slog.Warn("bm25_index_out_of_range",
			slog.Int("index", i),
			slog.Int("corpus_size", len(b.docs)))
		return 0
	}
	return b.weights.Score(query, i)
}

// TopK returns up to k documents with a positive score, best first.
func (b *BleveScorer) TopK(query string, k int) []ScoredDoc {
	if k <= 0 || len(Tokenize(query)) == 0 {
		return nil
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.fitted {
		return nil
	}
	hits := b.search(query)
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// Fitted reports whether the scorer has a usable corpus.
func (b *BleveScorer) Fitted() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.fitted
}

// Len returns the number of documents passed to the last Fit.
func (b *BleveScorer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.docs)
}

// Snapshot encodes the corpus as JSON; the index is rebuilt on Restore.
func (b *BleveScorer) Snapshot() ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, err := json.Marshal(bleveSnapshot{Docs: b.docs})
	if err != nil {
		return nil, cerrors.New(cerrors.ErrCodeInternal, "encode bleve snapshot", err)
	}
	return data, nil
}

// Restore refits the scorer on the documents of a snapshot.
func (b *BleveScorer) Restore(data []byte) error {
	var snap bleveSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return cerrors.New(cerrors.ErrCodeSnapshotCorrupt, "decode bleve snapshot", err)
	}
	b.Fit(snap.Docs)
	return nil
}

// Close releases the bleve index.
func (b *BleveScorer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	b.fitted = false
	if b.index != nil {
		err := b.index.Close()
		b.index = nil
		return err
	}
	return nil
}

var _ LexicalScorer = (*BleveScorer)(nil)

// codeTokenizerConstructor creates the code tokenizer for bleve.
func codeTokenizerConstructor(config map[string]interface{}, cache *registry.Cache) (analysis.Tokenizer, error) {
	return &bleveCodeTokenizer{}, nil
}

// bleveCodeTokenizer adapts Tokenize to analysis.Tokenizer. Offsets refer
// to the space-joined token stream, not the input bytes.
type bleveCodeTokenizer struct{}

// Tokenize implements analysis.Tokenizer.
func (t *bleveCodeTokenizer) Tokenize(input []byte) analysis.TokenStream {
	tokens := Tokenize(string(input))
	result := make(analysis.TokenStream, 0, len(tokens))
	offset := 0
	for i, token := range tokens {
		result = append(result, &analysis.Token{
			Term:     []byte(token),
			Start:    offset,
			End:      offset + len(token),
			Position: i + 1,
			Type:     analysis.AlphaNumeric,
		})
		offset += len(token) + 1
	}
	return result
}
