package store

import (
	"context"
	"slices"
	"sync"

	"github.com/coder/hnsw"

	"github.com/Aman-CERP/coderag/internal/chunk"
)

// HNSWConfig configures the HNSW graph.
type HNSWConfig struct {
	M        int
	EfSearch int
}

// HNSWStore implements VectorStore with the coder/hnsw pure Go graph.
//
// The graph only generates candidates; every candidate is re-scored with
// exact cosine similarity against the stored vector. Zero vectors never
// enter the graph. When k covers the whole store, or the graph cannot
// supply k live candidates, the store falls back to an exact scan so
// results match MemoryStore.
type HNSWStore struct {
	mu      sync.RWMutex
	graph   *hnsw.Graph[uint64]
	config  HNSWConfig
	dims    int
	entries map[string]*vectorEntry

	// ID mapping (chunk key <-> graph key)
	idMap   map[string]uint64
	keyMap  map[uint64]string
	nextKey uint64

	closed bool
}

// HNSWStats reports graph occupancy.
type HNSWStats struct {
	Live       int // stored entries
	GraphNodes int // nodes in the graph, orphans included
	Orphans    int // nodes whose key was replaced or removed
}

// NewHNSWStore creates an empty HNSW store.
func NewHNSWStore(cfg HNSWConfig) *HNSWStore {
	if cfg.M == 0 {
		cfg.M = 16
	}
	if cfg.EfSearch == 0 {
		cfg.EfSearch = 64
	}
	s := &HNSWStore{config: cfg}
	s.reset()
	return s
}

// reset drops the graph and all entries. Callers hold the write lock.
func (s *HNSWStore) reset() {
	s.graph = s.newGraph()
	s.dims = 0
	s.entries = make(map[string]*vectorEntry)
	s.idMap = make(map[string]uint64)
	s.keyMap = make(map[uint64]string)
	s.nextKey = 0
}

func (s *HNSWStore) newGraph() *hnsw.Graph[uint64] {
	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = s.config.M
	graph.EfSearch = s.config.EfSearch
	graph.Ml = 0.25
	return graph
}

// Add stores one vector per chunk. A key that already exists is orphaned
// in the graph and re-added under a fresh graph key.
func (s *HNSWStore) Add(ctx context.Context, chunks []chunk.Chunk, vectors [][]float32) error {
	if err := validateAdd(chunks, vectors); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errStoreClosed
	}

	for i, c := range chunks {
		id := c.Key()
		s.orphan(id)

		entry := newVectorEntry(c, vectors[i])
		s.entries[id] = entry
		s.insert(id, entry)
	}
	return nil
}

// insert adds a non-zero vector to the graph. Vectors whose dimension
// differs from the graph's stay out of it and are only reached by exact scans.
func (s *HNSWStore) insert(id string, e *vectorEntry) {
	if e.norm == 0 {
		return
	}
	if s.dims == 0 {
		s.dims = len(e.vec)
	}
	if len(e.vec) != s.dims {
		return
	}

	unit := make([]float32, len(e.vec))
	for i, x := range e.vec {
		unit[i] = float32(float64(x) / e.norm)
	}

	key := s.nextKey
	s.nextKey++
	s.graph.Add(hnsw.MakeNode(key, unit))
	s.idMap[id] = key
	s.keyMap[key] = id
}

// orphan unlinks id from its graph node. The node stays in the graph;
// coder/hnsw misbehaves when its last node is deleted.
func (s *HNSWStore) orphan(id string) {
	if key, ok := s.idMap[id]; ok {
		delete(s.keyMap, key)
		delete(s.idMap, id)
	}
}

// Search returns the k entries most similar to query.
func (s *HNSWStore) Search(ctx context.Context, query []float32, k int) ([]VectorHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errStoreClosed
	}
	queryNorm := vectorNorm(query)
	if k <= 0 || queryNorm == 0 || len(s.entries) == 0 {
		return nil, nil
	}
	if k >= len(s.entries) || len(query) != s.dims {
		return scanEntries(s.entries, query, queryNorm, k), nil
	}

	orphans := s.graph.Len() - len(s.idMap)
	want := min(k+orphans, s.graph.Len())
	nodes := s.graph.Search(query, want)

	hits := make([]VectorHit, 0, len(nodes))
	for _, node := range nodes {
		id, ok := s.keyMap[node.Key]
		if !ok {
			continue
		}
		e := s.entries[id]
		hits = append(hits, VectorHit{Chunk: e.chunk, Score: cosine(query, queryNorm, e.vec, e.norm)})
	}
	if len(hits) < k {
		return scanEntries(s.entries, query, queryNorm, k), nil
	}
	return rankHits(hits, k), nil
}

// Remove deletes every entry of path. The graph is rebuilt once orphans
// outnumber live nodes.
func (s *HNSWStore) Remove(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errStoreClosed
	}
	for id, e := range s.entries {
		if e.chunk.FilePath == path {
			s.orphan(id)
			delete(s.entries, id)
		}
	}
	if s.graph.Len()-len(s.idMap) > len(s.idMap) {
		s.compact()
	}
	return nil
}

// compact rebuilds the graph from live entries.
func (s *HNSWStore) compact() {
	entries := s.entries
	s.reset()
	s.entries = entries

	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		s.insert(id, entries[id])
	}
}

// Clear removes every entry and drops the graph.
func (s *HNSWStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errStoreClosed
	}
	s.reset()
	return nil
}

// Count returns the number of live entries.
func (s *HNSWStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Stats returns graph occupancy.
func (s *HNSWStore) Stats() HNSWStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return HNSWStats{}
	}
	nodes := s.graph.Len()
	return HNSWStats{
		Live:       len(s.entries),
		GraphNodes: nodes,
		Orphans:    nodes - len(s.idMap),
	}
}

// Close releases the graph.
func (s *HNSWStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.reset()
	return nil
}

var _ VectorStore = (*HNSWStore)(nil)
