package embed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultEmbeddingCacheSize is the default number of embeddings to keep.
const DefaultEmbeddingCacheSize = 10000

// CachedClient wraps a Client with an LRU keyed by sha256(model, text).
// When a path is set the LRU is persisted there as JSON after every call
// that adds entries, and reloaded on construction, so identical text never
// reaches the provider twice across runs.
type CachedClient struct {
	inner  Client
	cache  *lru.Cache[string, []float32]
	path   string
	saveMu sync.Mutex
}

// NewCachedClient creates a cached client. An empty path keeps the cache
// in memory only.
func NewCachedClient(inner Client, cacheSize int, path string) *CachedClient {
	if cacheSize <= 0 {
		cacheSize = DefaultEmbeddingCacheSize
	}
	cache, _ := lru.New[string, []float32](cacheSize)
	c := &CachedClient{inner: inner, cache: cache, path: path}
	c.load()
	return c
}

// cacheKey hashes the model name and text.
func (c *CachedClient) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(c.inner.ModelName() + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

// Embed serves hits from the cache and sends only misses to the inner
// client. When the inner client returns no vectors for the misses, the
// whole call returns no vectors.
func (c *CachedClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	results := make([][]float32, len(texts))
	keys := make([]string, len(texts))
	var missIdx []int
	var missTexts []string

	for i, text := range texts {
		keys[i] = c.cacheKey(text)
		if vec, ok := c.cache.Get(keys[i]); ok {
			results[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	if len(missTexts) == 0 {
		return results, nil
	}

	fetched, err := c.inner.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(fetched) != len(missTexts) {
		return nil, nil
	}

	for j, i := range missIdx {
		results[i] = fetched[j]
		c.cache.Add(keys[i], fetched[j])
	}
	c.save()
	return results, nil
}

// load fills the LRU from the disk cache. A missing or corrupt file
// starts an empty cache.
func (c *CachedClient) load() {
	if c.path == "" {
		return
	}
	data, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("embed_cache_read_failed", slog.String("path", c.path), slog.String("error", err.Error()))
		}
		return
	}

	var entries map[string][]float32
	if err := json.Unmarshal(data, &entries); err != nil {
		slog.Warn("embed_cache_corrupt", slog.String("path", c.path), slog.String("error", err.Error()))
		return
	}
	for key, vec := range entries {
		c.cache.Add(key, vec)
	}
	slog.Debug("embed_cache_loaded", slog.String("path", c.path), slog.Int("entries", c.cache.Len()))
}

// save writes the LRU to disk through a temp file and rename.
func (c *CachedClient) save() {
	if c.path == "" {
		return
	}
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	entries := make(map[string][]float32, c.cache.Len())
	for _, key := range c.cache.Keys() {
		if vec, ok := c.cache.Peek(key); ok {
			entries[key] = vec
		}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		slog.Warn("embed_cache_encode_failed", slog.String("error", err.Error()))
		return
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		slog.Warn("embed_cache_write_failed", slog.String("path", c.path), slog.String("error", err.Error()))
		return
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		slog.Warn("embed_cache_write_failed", slog.String("path", c.path), slog.String("error", err.Error()))
		return
	}
	if err := os.Rename(tmp, c.path); err != nil {
		_ = os.Remove(tmp)
		slog.Warn("embed_cache_write_failed", slog.String("path", c.path), slog.String("error", err.Error()))
	}
}

// Len returns the number of cached embeddings.
func (c *CachedClient) Len() int {
	return c.cache.Len()
}

// Available passes through to the inner client.
func (c *CachedClient) Available() bool {
	return c.inner.Available()
}

// FallbackMode passes through to the inner client.
func (c *CachedClient) FallbackMode() bool {
	return c.inner.FallbackMode()
}

// ModelName passes through to the inner client.
func (c *CachedClient) ModelName() string {
	return c.inner.ModelName()
}

// Close closes the inner client.
func (c *CachedClient) Close() error {
	return c.inner.Close()
}

// Inner returns the wrapped client.
func (c *CachedClient) Inner() Client {
	return c.inner
}

var _ Client = (*CachedClient)(nil)
