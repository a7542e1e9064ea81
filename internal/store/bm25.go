package store

import (
	"bytes"
	"cmp"
	"encoding/gob"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"sync"

	cerrors "github.com/Aman-CERP/coderag/internal/errors"
)

const (
	// DefaultK1 controls term frequency saturation.
	DefaultK1 = 1.5

	// DefaultB controls document length normalization.
	DefaultB = 0.75

	// idfEpsilon scales the mean IDF used in place of negative IDFs.
	idfEpsilon = 0.25

	okapiSnapshotVersion = 1
)

type posting struct {
	doc int
	tf  int
}

// OkapiScorer is an in-process Okapi BM25 scorer.
//
// IDF is ln((N-n+0.5)/(n+0.5)). Terms that occur in more than half of the
// corpus get a negative raw IDF, which is replaced by epsilon times the mean
// IDF of the vocabulary, floored at 0. A term present in every document of
// a uniform corpus therefore contributes nothing.
type OkapiScorer struct {
	mu sync.RWMutex
	k1 float64
	b  float64

	termFreqs []map[string]int
	docLens   []int
	avgDocLen float64
	idf       map[string]float64
	postings  map[string][]posting
	fitted    bool
}

// okapiSnapshot is the gob payload written by Snapshot.
type okapiSnapshot struct {
	Version   int
	K1        float64
	B         float64
	TermFreqs []map[string]int
	DocLens   []int
}

// NewOkapiScorer returns an unfit scorer with k1=1.5 and b=0.75.
func NewOkapiScorer() *OkapiScorer {
	return &OkapiScorer{k1: DefaultK1, b: DefaultB}
}

// Fit replaces the corpus and recomputes all statistics.
func (s *OkapiScorer) Fit(docs []string) {
	termFreqs := make([]map[string]int, len(docs))
	docLens := make([]int, len(docs))
	for i, doc := range docs {
		tokens := Tokenize(doc)
		tf := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			tf[tok]++
		}
		termFreqs[i] = tf
		docLens[i] = len(tokens)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.build(termFreqs, docLens)
}

// build derives IDF and postings from per-document term frequencies.
// Callers hold the write lock.
func (s *OkapiScorer) build(termFreqs []map[string]int, docLens []int) {
	s.termFreqs = termFreqs
	s.docLens = docLens
	s.idf = nil
	s.postings = nil
	s.avgDocLen = 0
	s.fitted = false

	total := 0
	for _, n := range docLens {
		total += n
	}
	if len(docLens) == 0 || total == 0 {
		return
	}

	n := len(docLens)
	s.avgDocLen = float64(total) / float64(n)

	s.postings = make(map[string][]posting)
	for doc, tf := range termFreqs {
		for term, freq := range tf {
			s.postings[term] = append(s.postings[term], posting{doc: doc, tf: freq})
		}
	}

	s.idf = make(map[string]float64, len(s.postings))
	var sum float64
	var negative []string
	for term, list := range s.postings {
		df := float64(len(list))
		v := math.Log(float64(n)-df+0.5) - math.Log(df+0.5)
		sum += v
		if v < 0 {
			negative = append(negative, term)
		}
		s.idf[term] = v
	}
	floor := max(0, idfEpsilon*sum/float64(len(s.idf)))
	for _, term := range negative {
		s.idf[term] = floor
	}

	s.fitted = true
}

// Score returns the BM25 score of document i for query.
func (s *OkapiScorer) Score(query string, i int) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.fitted {
		return 0
	}
	if i < 0 || i >= len(s.docLens) {
		slog.Warn("bm25_index_out_of_range",
			slog.Int("index", i),
			slog.Int("corpus_size", len(s.docLens)))
		return 0
	}

	var score float64
	for _, tok := range Tokenize(query) {
		score += s.termScore(tok, s.termFreqs[i][tok], i)
	}
	return score
}

// TopK returns up to k documents with a positive score, best first.
// Equal scores keep corpus order.
func (s *OkapiScorer) TopK(query string, k int) []ScoredDoc {
	if k <= 0 {
		return nil
	}
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.fitted {
		return nil
	}

	scores := make(map[int]float64)
	for _, tok := range tokens {
		for _, p := range s.postings[tok] {
			scores[p.doc] += s.termScore(tok, p.tf, p.doc)
		}
	}

	results := make([]ScoredDoc, 0, len(scores))
	for doc, score := range scores {
		if score > 0 {
			results = append(results, ScoredDoc{Index: doc, Score: score})
		}
	}
	slices.SortFunc(results, func(a, b ScoredDoc) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Index, b.Index)
	})
	if len(results) > k {
		results = results[:k]
	}
	return results
}

func (s *OkapiScorer) termScore(term string, tf, doc int) float64 {
	if tf == 0 {
		return 0
	}
	freq := float64(tf)
	norm := s.k1 * (1 - s.b + s.b*float64(s.docLens[doc])/s.avgDocLen)
	return s.idf[term] * freq * (s.k1 + 1) / (freq + norm)
}

// Fitted reports whether the scorer has a usable corpus.
func (s *OkapiScorer) Fitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fitted
}

// Len returns the number of documents passed to the last Fit.
func (s *OkapiScorer) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docLens)
}

// Snapshot encodes the term statistics with gob.
func (s *OkapiScorer) Snapshot() ([]byte, error) {
	s.mu.RLock()
	snap := okapiSnapshot{
		Version:   okapiSnapshotVersion,
		K1:        s.k1,
		B:         s.b,
		TermFreqs: s.termFreqs,
		DocLens:   s.docLens,
	}
	s.mu.RUnlock()

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snap); err != nil {
		return nil, cerrors.New(cerrors.ErrCodeInternal, "encode bm25 snapshot", err)
	}
	return buf.Bytes(), nil
}

// Restore replaces the scorer state with a snapshot.
func (s *OkapiScorer) Restore(data []byte) error {
	var snap okapiSnapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&snap); err != nil {
		return cerrors.New(cerrors.ErrCodeSnapshotCorrupt, "decode bm25 snapshot", err)
	}
	if snap.Version != okapiSnapshotVersion {
		return cerrors.New(cerrors.ErrCodeSnapshotCorrupt, "unsupported bm25 snapshot version", nil).
			WithDetail("version", strconv.Itoa(snap.Version))
	}
	if len(snap.TermFreqs) != len(snap.DocLens) {
		return cerrors.New(cerrors.ErrCodeSnapshotCorrupt, "bm25 snapshot document count mismatch", nil)
	}
	for i := range snap.TermFreqs {
		if snap.TermFreqs[i] == nil {
			snap.TermFreqs[i] = map[string]int{}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.k1 = snap.K1
	s.b = snap.B
	s.build(snap.TermFreqs, snap.DocLens)
	return nil
}

// Close is a no-op.
func (s *OkapiScorer) Close() error { return nil }

var _ LexicalScorer = (*OkapiScorer)(nil)
