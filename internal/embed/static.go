package embed

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"
	"unicode"

	cerrors "github.com/Aman-CERP/coderag/internal/errors"
	"github.com/Aman-CERP/coderag/internal/store"
)

// StaticClient generates embeddings by feature hashing.
// It needs no network and no model; vectors are deterministic and carry
// lexical rather than semantic similarity.
type StaticClient struct {
	mu     sync.RWMutex
	dims   int
	closed bool
}

// programmingStopWords are keywords too common in code to carry signal.
var programmingStopWords = map[string]bool{
	"func": true, "function": true, "def": true, "class": true,
	"return": true, "import": true, "const": true, "var": true,
	"let": true, "int": true, "string": true, "bool": true,
	"void": true, "true": true, "false": true, "nil": true,
	"null": true, "this": true, "self": true, "new": true,
}

// Weights for vector generation
const (
	tokenWeight = 0.7
	ngramWeight = 0.3
	ngramSize   = 3
)

// NewStaticClient creates a static client producing dims-dimensional
// vectors; dims <= 0 selects StaticDimensions.
func NewStaticClient(dims int) *StaticClient {
	if dims <= 0 {
		dims = StaticDimensions
	}
	return &StaticClient{dims: dims}
}

// Embed hashes each text into a unit vector. Blank texts map to the zero vector.
func (c *StaticClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return nil, cerrors.New(cerrors.ErrCodeEmbedUnavailable, "static client is closed", nil)
	}
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = c.vector(text)
	}
	return out, nil
}

func (c *StaticClient) vector(text string) []float32 {
	vector := make([]float32, c.dims)
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return vector
	}

	for _, token := range store.Tokenize(trimmed) {
		if programmingStopWords[token] {
			continue
		}
		vector[hashToIndex(token, c.dims)] += tokenWeight
	}
	for _, ngram := range extractNgrams(normalizeForNgrams(trimmed), ngramSize) {
		vector[hashToIndex(ngram, c.dims)] += ngramWeight
	}
	return normalizeVector(vector)
}

// normalizeForNgrams keeps lowercased letters and digits only.
func normalizeForNgrams(text string) string {
	var result strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// extractNgrams returns n-rune sliding windows.
func extractNgrams(text string, n int) []string {
	runes := []rune(text)
	if len(runes) < n {
		return nil
	}
	ngrams := make([]string, 0, len(runes)-n+1)
	for i := 0; i <= len(runes)-n; i++ {
		ngrams = append(ngrams, string(runes[i:i+n]))
	}
	return ngrams
}

// hashToIndex uses FNV-64 to map a string to an index.
func hashToIndex(s string, size int) int {
	h := fnv.New64()
	_, _ = h.Write([]byte(s))
	return int(h.Sum64() % uint64(size))
}

// Dimensions returns the vector dimension.
func (c *StaticClient) Dimensions() int { return c.dims }

// Available is true until Close.
func (c *StaticClient) Available() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.closed
}

// FallbackMode is always false: the static client never calls a provider.
func (c *StaticClient) FallbackMode() bool { return false }

// ModelName returns "static".
func (c *StaticClient) ModelName() string { return "static" }

// Close marks the client closed.
func (c *StaticClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

var _ Client = (*StaticClient)(nil)
