// Package index owns the corpus of a project: it discovers files, chunks
// them, fits the lexical scorer, fills the vector store, persists the
// manifest and scorer snapshot, and answers searches over the result.
//
// One Indexer serves one project root. Index, Update and Restore are
// serialized by a mutex and, across processes, by a file lock in the cache
// directory. Search reads an atomically published snapshot of the corpus
// and its scorer, so it never observes a half-applied update.
package index

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/coderag/internal/chunk"
	"github.com/Aman-CERP/coderag/internal/config"
	"github.com/Aman-CERP/coderag/internal/embed"
	cerrors "github.com/Aman-CERP/coderag/internal/errors"
	"github.com/Aman-CERP/coderag/internal/outcome"
	"github.com/Aman-CERP/coderag/internal/scanner"
	"github.com/Aman-CERP/coderag/internal/search"
	"github.com/Aman-CERP/coderag/internal/store"
	"github.com/Aman-CERP/coderag/internal/ui"
)

// Progress receives indexing progress. ui.Renderer satisfies it.
type Progress interface {
	UpdateProgress(event ui.ProgressEvent)
	AddError(event ui.ErrorEvent)
}

// UpdateStats counts the files an Update touched.
type UpdateStats struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Removed int `json:"removed"`
}

// Changed reports whether any file was added, updated or removed.
func (s UpdateStats) Changed() bool {
	return s.Added+s.Updated+s.Removed > 0
}

// Status describes the published index.
type Status struct {
	Root           string    `json:"root"`
	CacheDir       string    `json:"cache_dir"`
	Files          int       `json:"files"`
	Chunks         int       `json:"chunks"`
	Vectors        int       `json:"vectors"`
	LastIndexed    time.Time `json:"last_indexed"`
	LexicalBackend string    `json:"lexical_backend"`
	VectorBackend  string    `json:"vector_backend"`
	EmbeddingModel string    `json:"embedding_model,omitempty"`
	FallbackMode   bool      `json:"fallback_mode"`
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithEmbedder replaces the configured embedding client. A nil client
// disables vector retrieval.
func WithEmbedder(c embed.Client) Option {
	return func(ix *Indexer) {
		ix.embedder = c
		ix.embedderSet = true
	}
}

// WithVectorStore replaces the configured vector store.
func WithVectorStore(s store.VectorStore) Option {
	return func(ix *Indexer) {
		ix.vectors = s
	}
}

// WithProgress reports indexing progress to p.
func WithProgress(p Progress) Option {
	return func(ix *Indexer) {
		ix.progress = p
	}
}

// withClock overrides the manifest timestamp source.
func withClock(now func() time.Time) Option {
	return func(ix *Indexer) {
		ix.now = now
	}
}

// Indexer builds and maintains the index of one project. The Indexer owns
// its embedder and vector store, including ones passed as options, and
// closes them in Close.
type Indexer struct {
	root     string
	cacheDir string
	cfg      *config.Config

	scanner  *scanner.Scanner
	chunker  *chunk.Chunker
	embedder embed.Client
	vectors  store.VectorStore
	lock     *IndexLock
	progress Progress
	now      func() time.Time

	embedderSet bool

	mu       sync.Mutex // serializes Index, Update, Restore and Close
	manifest Manifest

	snap   atomic.Pointer[snapshot]
	closed atomic.Bool
}

// New creates an Indexer for root. The manifest is loaded immediately; the
// corpus stays empty until Index, Update or Restore runs.
func New(root string, cfg *config.Config, opts ...Option) (*Indexer, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, cerrors.InvalidArgument("invalid project root %q: %v", root, err)
	}

	ix := &Indexer{
		root:     abs,
		cacheDir: cfg.CachePath(abs),
		cfg:      cfg,
		chunker:  chunk.NewChunker(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(ix)
	}

	ix.scanner, err = scanner.New(scanner.Options{
		Root:         abs,
		CacheDirName: filepath.Base(ix.cacheDir),
		Include:      cfg.Paths.Include,
		Exclude:      cfg.Paths.Exclude,

		IncludeSubmodules: cfg.Paths.Submodules,
	})
	if err != nil {
		return nil, err
	}

	if !ix.embedderSet && cfg.Search.VectorEnabled {
		ix.embedder, err = embed.NewClient(cfg.Embeddings, ix.cacheDir)
		if err != nil {
			return nil, err
		}
	}
	if ix.vectors == nil {
		ix.vectors, err = store.NewVectorStore(cfg.VectorStore, ix.cacheDir)
		if err != nil {
			ix.closeEmbedder()
			return nil, err
		}
	}

	ix.lock = NewIndexLock(ix.cacheDir)
	ix.manifest = ix.loadManifest()
	ix.snap.Store(&snapshot{corpus: []chunk.Chunk{}})
	return ix, nil
}

// Root returns the absolute project root.
func (ix *Indexer) Root() string {
	return ix.root
}

// CacheDir returns the absolute cache directory.
func (ix *Indexer) CacheDir() string {
	return ix.cacheDir
}

// Scanner returns the file scanner the indexer discovers files with.
func (ix *Indexer) Scanner() *scanner.Scanner {
	return ix.scanner
}

// Index rebuilds the whole index and returns the number of chunks. An
// empty project indexes to 0 chunks without error.
func (ix *Indexer) Index(ctx context.Context) (int, error) {
	if ix.closed.Load() {
		return 0, errClosed()
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if err := ix.lock.Acquire(); err != nil {
		return 0, err
	}
	defer ix.release()

	start := time.Now()
	files, err := ix.discover(ctx)
	if err != nil {
		return 0, err
	}

	perFile, err := ix.chunkFiles(ctx, files)
	if err != nil {
		return 0, err
	}

	if err := ix.vectors.Clear(ctx); err != nil {
		slog.Warn("index_vector_clear_failed", slog.String("error", err.Error()))
	}

	now := ix.now()
	manifest := make(Manifest, len(files))
	corpus := make([]chunk.Chunk, 0, len(files))
	for i, f := range files {
		corpus = append(corpus, perFile[i]...)
		manifest[f.Path] = newEntry(f.ModTime, len(perFile[i]), now)
	}

	scorer, err := ix.fit(corpus)
	if err != nil {
		return 0, err
	}

	embedOut := ix.embedChunks(ctx, corpus)
	if embedOut.Status == outcome.StatusFailed {
		_ = scorer.Close()
		return 0, embedOut.Err
	}

	ix.publish(corpus, scorer)
	ix.manifest = manifest
	ix.persist(manifest, corpus, scorer)

	duration := time.Since(start)
	slog.Info("index_complete",
		slog.Int("files", len(files)),
		slog.Int("chunks", len(corpus)),
		slog.Int("vectors", ix.vectors.Count()),
		slog.String("embedding", embedOut.String()),
		slog.String("duration_total", duration.String()),
		slog.Int64("duration_total_ms", duration.Milliseconds()),
		slog.String("path", ix.root))

	return len(corpus), nil
}

// Update applies the difference between the files on disk and the
// manifest. New files are added, files whose mtime changed are rechunked,
// and files that vanished are dropped. When nothing changed Update returns
// zero counts and touches neither the scorer, the store nor any file.
func (ix *Indexer) Update(ctx context.Context) (UpdateStats, error) {
	if ix.closed.Load() {
		return UpdateStats{}, errClosed()
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if err := ix.lock.Acquire(); err != nil {
		return UpdateStats{}, err
	}
	defer ix.release()

	start := time.Now()
	files, err := ix.discover(ctx)
	if err != nil {
		return UpdateStats{}, err
	}

	var (
		stats   UpdateStats
		changed []scanner.FileInfo
		present = make(map[string]bool, len(files))
		stale   = make(map[string]bool)
	)
	for _, f := range files {
		present[f.Path] = true
		entry, ok := ix.manifest[f.Path]
		switch {
		case !ok:
			stats.Added++
			changed = append(changed, f)
		case entry.MTime != mtimeSeconds(f.ModTime):
			stats.Updated++
			changed = append(changed, f)
			stale[f.Path] = true
		}
	}
	var removed []string
	for _, path := range ix.manifest.Paths() {
		if !present[path] {
			stats.Removed++
			removed = append(removed, path)
			stale[path] = true
		}
	}

	if !stats.Changed() {
		slog.Debug("update_no_changes", slog.String("path", ix.root))
		return stats, nil
	}

	perFile, err := ix.chunkFiles(ctx, changed)
	if err != nil {
		return UpdateStats{}, err
	}

	for path := range stale {
		if err := ix.vectors.Remove(ctx, path); err != nil {
			slog.Warn("update_vector_remove_failed",
				slog.String("file", path),
				slog.String("error", err.Error()))
		}
	}

	now := ix.now()
	manifest := ix.manifest.Clone()
	for _, path := range removed {
		delete(manifest, path)
	}
	byPath := make(map[string][]chunk.Chunk, len(files))
	for _, c := range ix.snap.Load().corpus {
		if !stale[c.FilePath] {
			byPath[c.FilePath] = append(byPath[c.FilePath], c)
		}
	}
	var fresh []chunk.Chunk
	for i, f := range changed {
		fresh = append(fresh, perFile[i]...)
		byPath[f.Path] = perFile[i]
		manifest[f.Path] = newEntry(f.ModTime, len(perFile[i]), now)
	}

	// Discovery order, so Restore rebuilds the same sequence.
	corpus := make([]chunk.Chunk, 0, len(ix.snap.Load().corpus)+len(fresh))
	for _, f := range files {
		corpus = append(corpus, byPath[f.Path]...)
	}

	scorer, err := ix.fit(corpus)
	if err != nil {
		return UpdateStats{}, err
	}

	embedOut := ix.embedChunks(ctx, fresh)
	if embedOut.Status == outcome.StatusFailed {
		_ = scorer.Close()
		return UpdateStats{}, embedOut.Err
	}

	ix.publish(corpus, scorer)
	ix.manifest = manifest
	ix.persist(manifest, corpus, scorer)

	slog.Info("update_complete",
		slog.Int("added", stats.Added),
		slog.Int("updated", stats.Updated),
		slog.Int("removed", stats.Removed),
		slog.Int("chunks", len(corpus)),
		slog.String("embedding", embedOut.String()),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		slog.String("path", ix.root))

	return stats, nil
}

// Restore rebuilds the in-memory corpus from the persisted manifest
// without rewriting anything on disk. Files whose mtime still matches are
// rechunked; files that changed or vanished keep their manifest entries
// but contribute no chunks, so the next Update reports them. The scorer
// comes from the snapshot when it was fit on exactly the rebuilt corpus, in
// the same order, and is refit otherwise. Vectors are only recomputed when the store is empty.
// Restore returns the number of chunks published.
func (ix *Indexer) Restore(ctx context.Context) (int, error) {
	if ix.closed.Load() {
		return 0, errClosed()
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.manifest = ix.loadManifest()
	if len(ix.manifest) == 0 {
		return 0, nil
	}

	files, err := ix.discover(ctx)
	if err != nil {
		return 0, err
	}
	var unchanged []scanner.FileInfo
	for _, f := range files {
		if entry, ok := ix.manifest[f.Path]; ok && entry.MTime == mtimeSeconds(f.ModTime) {
			unchanged = append(unchanged, f)
		}
	}

	perFile, err := ix.chunkFiles(ctx, unchanged)
	if err != nil {
		return 0, err
	}
	corpus := make([]chunk.Chunk, 0, len(unchanged))
	for _, chunks := range perFile {
		corpus = append(corpus, chunks...)
	}

	scorer, restored := ix.restoreScorer(corpus)
	if !restored {
		if scorer, err = ix.fit(corpus); err != nil {
			return 0, err
		}
	}

	if ix.vectors.Count() == 0 {
		if out := ix.embedChunks(ctx, corpus); out.Status == outcome.StatusFailed {
			_ = scorer.Close()
			return 0, out.Err
		}
	}

	ix.publish(corpus, scorer)

	slog.Info("restore_complete",
		slog.Int("files", len(unchanged)),
		slog.Int("stale_files", len(ix.manifest)-len(unchanged)),
		slog.Int("chunks", len(corpus)),
		slog.Bool("snapshot_used", restored),
		slog.String("path", ix.root))

	return len(corpus), nil
}

// Search runs hybrid search over the published corpus. An empty corpus
// returns no results without building a searcher. Degraded retrieval is
// reported through the Outcome; the error is only set once the Indexer is
// closed.
func (ix *Indexer) Search(ctx context.Context, query string, topK int) ([]search.Result, outcome.Outcome, error) {
	if ix.closed.Load() {
		return nil, outcome.Failed("indexer closed", errClosed()), errClosed()
	}

	snap := ix.acquire()
	defer snap.release()
	if len(snap.corpus) == 0 {
		return []search.Result{}, outcome.OK(), nil
	}

	searcher := search.NewSearcher(snap.scorer, ix.vectors, ix.embedder, search.ConfigFrom(ix.cfg.Search))
	results, out := searcher.Search(ctx, query, topK, snap.corpus)
	return results, out, nil
}

// Chunks returns a copy of the published corpus.
func (ix *Indexer) Chunks() []chunk.Chunk {
	return slices.Clone(ix.snap.Load().corpus)
}

// Status describes the published index.
func (ix *Indexer) Status() Status {
	ix.mu.Lock()
	manifest := ix.manifest
	ix.mu.Unlock()

	st := Status{
		Root:           ix.root,
		CacheDir:       ix.cacheDir,
		Files:          len(manifest),
		Chunks:         len(ix.snap.Load().corpus),
		LastIndexed:    manifest.LastIndexed(),
		LexicalBackend: ix.cfg.Search.LexicalBackend,
		VectorBackend:  ix.cfg.VectorStore.Backend,
	}
	if st.Chunks == 0 {
		// Nothing loaded yet; report what the manifest recorded.
		st.Chunks = manifest.Chunks()
	}
	if !ix.closed.Load() {
		st.Vectors = ix.vectors.Count()
	}
	if ix.embedder != nil {
		st.EmbeddingModel = ix.embedder.ModelName()
		st.FallbackMode = ix.embedder.FallbackMode()
	}
	return st
}

// Close releases the scorer, the vector store and the embedder. Calls
// after the first are no-ops.
func (ix *Indexer) Close() error {
	if !ix.closed.CompareAndSwap(false, true) {
		return nil
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()

	var errs []error
	ix.snap.Load().retire()
	errs = append(errs, ix.vectors.Close())
	if ix.embedder != nil {
		errs = append(errs, ix.embedder.Close())
	}
	errs = append(errs, ix.lock.Release())
	return errors.Join(errs...)
}

func (ix *Indexer) closeEmbedder() {
	if ix.embedder != nil {
		_ = ix.embedder.Close()
	}
}

func errClosed() error {
	return cerrors.New(cerrors.ErrCodeIndexClosed, "indexer is closed", nil)
}

func (ix *Indexer) release() {
	if err := ix.lock.Release(); err != nil {
		slog.Warn("index_lock_release_failed", slog.String("error", err.Error()))
	}
}

// discover lists the eligible files in scan order.
func (ix *Indexer) discover(ctx context.Context) ([]scanner.FileInfo, error) {
	ix.report(ui.ProgressEvent{Stage: ui.StageScanning, Message: ix.root})

	files, err := ix.scanner.Files(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("index_scan_complete", slog.Int("files", len(files)))
	return files, nil
}

// chunkFiles reads and chunks files with bounded parallelism. The result
// is indexed like files. Unreadable files contribute no chunks; only
// cancellation fails the call.
func (ix *Indexer) chunkFiles(ctx context.Context, files []scanner.FileInfo) ([][]chunk.Chunk, error) {
	results := make([][]chunk.Chunk, len(files))
	if len(files) == 0 {
		return results, nil
	}

	workers := ix.cfg.Index.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			chunks, out := ix.chunkFile(gctx, f)
			if out.Status == outcome.StatusFailed {
				return out.Err
			}
			results[i] = chunks

			ix.report(ui.ProgressEvent{
				Stage:       ui.StageChunking,
				Current:     int(done.Add(1)),
				Total:       len(files),
				CurrentFile: f.Path,
			})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// chunkFile chunks one file. Read failures and invalid UTF-8 are warnings.
func (ix *Indexer) chunkFile(ctx context.Context, f scanner.FileInfo) ([]chunk.Chunk, outcome.Outcome) {
	content, err := os.ReadFile(f.AbsPath)
	if err != nil {
		slog.Warn("index_file_unreadable",
			slog.String("file", f.Path),
			slog.String("error", err.Error()))
		ix.reportError(f.Path, err)
		return nil, outcome.DegradedErr("file unreadable", err)
	}
	if !utf8.Valid(content) {
		slog.Warn("index_file_not_utf8", slog.String("file", f.Path))
		ix.reportError(f.Path, cerrors.New(cerrors.ErrCodeFileRead, "file is not valid UTF-8", nil))
		return nil, outcome.Degraded("invalid encoding")
	}

	chunks, out := ix.chunker.Chunk(ctx, f.Path, string(content))
	if out.IsDegraded() {
		slog.Debug("index_chunk_degraded",
			slog.String("file", f.Path),
			slog.String("outcome", out.String()))
	}
	return chunks, out
}

// fit returns a new scorer fit on corpus.
func (ix *Indexer) fit(corpus []chunk.Chunk) (store.LexicalScorer, error) {
	ix.report(ui.ProgressEvent{Stage: ui.StageIndexing, Message: "fitting lexical scorer"})

	scorer, err := store.NewLexicalScorer(ix.cfg.Search.LexicalBackend)
	if err != nil {
		return nil, err
	}
	scorer.Fit(contents(corpus))
	return scorer, nil
}

// restoreScorer loads the persisted snapshot. It reports false unless the
// snapshot decodes and was fit on corpus in the same order.
func (ix *Indexer) restoreScorer(corpus []chunk.Chunk) (store.LexicalScorer, bool) {
	data, err := os.ReadFile(filepath.Join(ix.cacheDir, SnapshotFile))
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("snapshot_read_failed", slog.String("error", err.Error()))
		}
		return nil, false
	}

	persisted, err := decodeSnapshot(data)
	if err != nil {
		slog.Warn("snapshot_corrupt", slog.String("error", err.Error()))
		return nil, false
	}
	if persisted.Digest != corpusDigest(corpus) {
		slog.Info("snapshot_stale", slog.Int("corpus_chunks", len(corpus)))
		return nil, false
	}

	scorer, err := store.NewLexicalScorer(ix.cfg.Search.LexicalBackend)
	if err != nil {
		return nil, false
	}
	if err := scorer.Restore(persisted.Scorer); err != nil {
		slog.Warn("snapshot_corrupt", slog.String("error", err.Error()))
		_ = scorer.Close()
		return nil, false
	}
	if scorer.Len() != len(corpus) {
		slog.Info("snapshot_stale",
			slog.Int("snapshot_docs", scorer.Len()),
			slog.Int("corpus_chunks", len(corpus)))
		_ = scorer.Close()
		return nil, false
	}
	return scorer, true
}

// embedChunks embeds chunks in sequential batches and stores the vectors.
// A failed batch leaves its chunks without vectors. Only cancellation
// returns a Failed outcome.
func (ix *Indexer) embedChunks(ctx context.Context, chunks []chunk.Chunk) outcome.Outcome {
	if len(chunks) == 0 || !ix.cfg.Search.VectorEnabled {
		return outcome.OK()
	}
	if ix.embedder == nil {
		return outcome.Degraded("no embedding client")
	}
	if ix.embedder.FallbackMode() {
		return outcome.Degraded("embedding client in fallback mode")
	}

	batchSize := ix.cfg.Embeddings.BatchSize
	if batchSize <= 0 {
		batchSize = embed.DefaultBatchSize
	}

	out := outcome.OK()
	texts := contents(chunks)
	for start := 0; start < len(chunks); start += batchSize {
		if err := ctx.Err(); err != nil {
			return outcome.Failed("embedding cancelled", err)
		}
		end := min(start+batchSize, len(chunks))

		ix.report(ui.ProgressEvent{
			Stage:   ui.StageEmbedding,
			Current: end,
			Total:   len(chunks),
		})

		vectors, err := ix.embedder.Embed(ctx, texts[start:end])
		if err != nil {
			if ctx.Err() != nil {
				return outcome.Failed("embedding cancelled", ctx.Err())
			}
			slog.Warn("index_embed_batch_failed",
				slog.Int("batch_start", start),
				slog.Int("batch_size", end-start),
				slog.String("error", err.Error()))
			out = out.Worse(outcome.DegradedErr("embedding batch failed", err))
			if ix.embedder.FallbackMode() {
				break
			}
			continue
		}
		if len(vectors) == 0 {
			out = out.Worse(outcome.Degraded("embedding unavailable"))
			if ix.embedder.FallbackMode() {
				break
			}
			continue
		}

		n := min(len(vectors), end-start)
		if n < end-start {
			slog.Warn("index_embed_batch_short",
				slog.Int("requested", end-start),
				slog.Int("returned", len(vectors)))
			out = out.Worse(outcome.Degraded("embedding batch short"))
		}
		if err := ix.vectors.Add(ctx, chunks[start:start+n], vectors[:n]); err != nil {
			slog.Warn("index_vector_add_failed", slog.String("error", err.Error()))
			out = out.Worse(outcome.DegradedErr("vector store add failed", err))
		}
	}
	return out
}

// acquire pins the published snapshot until release.
func (ix *Indexer) acquire() *snapshot {
	for {
		snap := ix.snap.Load()
		snap.refs.Add(1)
		if ix.snap.Load() == snap {
			return snap
		}
		snap.release()
	}
}

// publish swaps in a new snapshot. The previous scorer is closed once the
// searches still reading it finish.
func (ix *Indexer) publish(corpus []chunk.Chunk, scorer store.LexicalScorer) {
	old := ix.snap.Swap(&snapshot{corpus: corpus, scorer: scorer})
	if old != nil && old.scorer != scorer {
		old.retire()
	}
	ix.report(ui.ProgressEvent{Stage: ui.StageComplete, Current: len(corpus), Total: len(corpus)})
}

// persist writes the manifest and scorer snapshot. Failures are logged;
// the in-memory index stays usable.
func (ix *Indexer) persist(manifest Manifest, corpus []chunk.Chunk, scorer store.LexicalScorer) {
	if err := SaveManifest(filepath.Join(ix.cacheDir, ManifestFile), manifest); err != nil {
		slog.Warn("manifest_write_failed", slog.String("error", err.Error()))
	}

	data, err := encodeSnapshot(corpus, scorer)
	if err != nil {
		slog.Warn("snapshot_encode_failed", slog.String("error", err.Error()))
		return
	}
	if err := writeFileAtomic(filepath.Join(ix.cacheDir, SnapshotFile), data); err != nil {
		slog.Warn("snapshot_write_failed", slog.String("error", err.Error()))
	}
}

func (ix *Indexer) loadManifest() Manifest {
	m, err := LoadManifest(filepath.Join(ix.cacheDir, ManifestFile))
	if err != nil {
		slog.Warn("manifest_load_failed",
			slog.String("error_code", cerrors.GetCode(err)),
			slog.String("error", err.Error()))
	}
	return m
}

func (ix *Indexer) report(event ui.ProgressEvent) {
	if ix.progress != nil {
		ix.progress.UpdateProgress(event)
	}
}

func (ix *Indexer) reportError(path string, err error) {
	if ix.progress != nil {
		ix.progress.AddError(ui.ErrorEvent{File: path, Err: err, IsWarn: true})
	}
}

func contents(chunks []chunk.Chunk) []string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	return texts
}
