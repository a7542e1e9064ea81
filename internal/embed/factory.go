package embed

import (
	"path/filepath"
	"time"

	"github.com/Aman-CERP/coderag/internal/config"
	cerrors "github.com/Aman-CERP/coderag/internal/errors"
)

// NewClient creates the configured embedding client.
//
// provider options:
//   - "voyage": Voyage HTTP client; without an API key it runs in fallback
//     mode and search is lexical-only
//   - "static": offline hash embeddings
//   - "auto" (default): voyage when VOYAGE_API_KEY or ANTHROPIC_API_KEY is
//     set, otherwise static
//
// Provider clients are wrapped with a CachedClient persisted at
// <cacheDir>/embeddings.json; an empty cacheDir keeps the cache in memory.
func NewClient(cfg config.EmbeddingsConfig, cacheDir string) (Client, error) {
	switch cfg.Provider {
	case config.ProviderStatic:
		return NewStaticClient(cfg.Dimensions), nil
	case config.ProviderVoyage:
		return newCachedVoyage(cfg, cacheDir, APIKeyFromEnv()), nil
	case config.ProviderAuto, "":
		key := APIKeyFromEnv()
		if key == "" {
			return NewStaticClient(cfg.Dimensions), nil
		}
		return newCachedVoyage(cfg, cacheDir, key), nil
	default:
		return nil, cerrors.InvalidArgument("unknown embedding provider: %s (valid options: auto, voyage, static)", cfg.Provider)
	}
}

func newCachedVoyage(cfg config.EmbeddingsConfig, cacheDir, key string) Client {
	client := NewVoyageClient(VoyageConfig{
		Endpoint:  cfg.Endpoint,
		Model:     cfg.Model,
		APIKey:    key,
		BatchSize: cfg.BatchSize,
		Timeout:   cfg.Timeout,
		Retry:     RetryConfigForAttempts(cfg.MaxAttempts, 0),
	})

	var path string
	if cacheDir != "" {
		path = filepath.Join(cacheDir, EmbeddingCacheFile)
	}
	return NewCachedClient(client, cfg.CacheSize, path)
}

// RetryConfigForAttempts returns the default backoff with the given
// total number of attempts.
func RetryConfigForAttempts(attempts int, initial time.Duration) cerrors.RetryConfig {
	retry := cerrors.DefaultRetryConfig()
	if attempts > 0 {
		retry.MaxRetries = attempts - 1
	}
	if initial > 0 {
		retry.InitialDelay = initial
	}
	return retry
}
