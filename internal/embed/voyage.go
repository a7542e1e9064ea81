package embed

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	cerrors "github.com/Aman-CERP/coderag/internal/errors"
)

// VoyageConfig configures the Voyage HTTP client.
type VoyageConfig struct {
	Endpoint   string
	Model      string
	APIKey     string
	BatchSize  int
	Timeout    time.Duration
	Retry      cerrors.RetryConfig
	HTTPClient *http.Client
}

// DefaultVoyageConfig returns the provider defaults with the key taken from
// the environment.
func DefaultVoyageConfig() VoyageConfig {
	return VoyageConfig{
		Endpoint:  DefaultVoyageEndpoint,
		Model:     DefaultVoyageModel,
		APIKey:    APIKeyFromEnv(),
		BatchSize: DefaultBatchSize,
		Timeout:   DefaultTimeout,
		Retry:     cerrors.DefaultRetryConfig(),
	}
}

// APIKeyFromEnv returns VOYAGE_API_KEY, or ANTHROPIC_API_KEY when unset.
func APIKeyFromEnv() string {
	if key := strings.TrimSpace(os.Getenv("VOYAGE_API_KEY")); key != "" {
		return key
	}
	return strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
}

// VoyageClient calls an OpenAI-shaped embeddings endpoint.
//
// Batches are sent sequentially. Each batch is retried with exponential
// backoff on 5xx responses and network errors; a 429 waits for its
// Retry-After hint. Any other 4xx, or exhausting the retries, switches the
// client into fallback mode for the rest of its life.
type VoyageClient struct {
	mu        sync.RWMutex
	config    VoyageConfig
	client    *http.Client
	available bool
	fallback  bool
	closed    bool
}

type voyageRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type voyageItem struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type voyageResponse struct {
	Data []voyageItem `json:"data"`
}

// statusError is a non-2xx provider response.
type statusError struct {
	status     int
	retryAfter time.Duration
	body       string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("embedding request failed with status %d: %s", e.status, e.body)
}

// RetryAfter implements errors.DelayHinter.
func (e *statusError) RetryAfter() time.Duration { return e.retryAfter }

// NewVoyageClient creates a client. Without an API key it starts in
// fallback mode and never touches the network.
func NewVoyageClient(cfg VoyageConfig) *VoyageClient {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultVoyageEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultVoyageModel
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	hasKey := cfg.APIKey != ""
	if !hasKey {
		slog.Warn("embed_no_api_key",
			slog.String("model", cfg.Model),
			slog.String("mode", "lexical_only"))
	}

	return &VoyageClient{
		config:    cfg,
		client:    client,
		available: hasKey,
		fallback:  !hasKey,
	}
}

// Embed embeds texts in batches of at most BatchSize.
func (c *VoyageClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	c.mu.RLock()
	closed, fallback := c.closed, c.fallback
	c.mu.RUnlock()

	if closed {
		return nil, cerrors.New(cerrors.ErrCodeEmbedUnavailable, "embedding client is closed", nil)
	}
	if fallback || len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += c.config.BatchSize {
		batch := texts[start:min(start+c.config.BatchSize, len(texts))]

		vectors, err := cerrors.RetryWithResult(ctx, c.config.Retry, func() ([][]float32, error) {
			return c.post(ctx, batch)
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.enterFallback(err)
			return nil, err
		}
		out = append(out, vectors...)
	}

	c.mu.Lock()
	c.available = true
	c.mu.Unlock()
	return out, nil
}

func (c *VoyageClient) enterFallback(err error) {
	c.mu.Lock()
	c.available = false
	c.fallback = true
	c.mu.Unlock()

	slog.Error("embed_batch_failed",
		slog.String("model", c.config.Model),
		slog.String("error_code", cerrors.GetCode(err)),
		slog.String("error", err.Error()),
		slog.String("mode", "lexical_only"))
}

// post sends one batch. Errors other than 429, 5xx and transport failures
// are permanent.
func (c *VoyageClient) post(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(voyageRequest{Input: texts, Model: c.config.Model})
	if err != nil {
		return nil, cerrors.Permanent(cerrors.New(cerrors.ErrCodeInternal, "failed to marshal request", err))
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, cerrors.Permanent(cerrors.New(cerrors.ErrCodeEmbedRequest, "failed to build request", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		slog.Warn("embed_request_failed", slog.String("error", err.Error()))
		return nil, cerrors.New(cerrors.ErrCodeEmbedRequest, "embedding request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp)
	}

	var result voyageResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, cerrors.New(cerrors.ErrCodeEmbedRequest, "failed to decode response", err)
	}
	if len(result.Data) != len(texts) {
		return nil, cerrors.Permanent(cerrors.New(cerrors.ErrCodeEmbedRequest,
			fmt.Sprintf("provider returned %d embeddings for %d texts", len(result.Data), len(texts)), nil))
	}

	slices.SortFunc(result.Data, func(a, b voyageItem) int {
		return cmp.Compare(a.Index, b.Index)
	})
	vectors := make([][]float32, len(result.Data))
	for i, item := range result.Data {
		vectors[i] = normalizeVector(item.Embedding)
	}
	return vectors, nil
}

// classifyStatus maps a non-200 response to a retryable or permanent error.
func classifyStatus(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	se := &statusError{status: resp.StatusCode, body: strings.TrimSpace(string(raw))}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		se.retryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		slog.Warn("embed_rate_limited", slog.Duration("retry_after", se.retryAfter))
		return cerrors.New(cerrors.ErrCodeEmbedRateLimited, "embedding provider rate limit", se)
	case resp.StatusCode >= 500:
		slog.Warn("embed_server_error", slog.Int("status", resp.StatusCode))
		return cerrors.New(cerrors.ErrCodeEmbedRequest, "embedding provider error", se)
	default:
		return cerrors.Permanent(cerrors.New(cerrors.ErrCodeEmbedRejected, "embedding request rejected", se).
			WithDetail("status", strconv.Itoa(resp.StatusCode)).
			WithSuggestion("Check VOYAGE_API_KEY and the configured model"))
	}
}

// parseRetryAfter reads a Retry-After value in (possibly fractional) seconds.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}

// Available reports whether credentials exist and the last call succeeded.
func (c *VoyageClient) Available() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.available && !c.closed
}

// FallbackMode reports whether the client stopped calling the provider.
func (c *VoyageClient) FallbackMode() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fallback
}

// ModelName returns the configured model.
func (c *VoyageClient) ModelName() string {
	return c.config.Model
}

// Close releases idle connections.
func (c *VoyageClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.client.CloseIdleConnections()
	return nil
}

var _ Client = (*VoyageClient)(nil)
