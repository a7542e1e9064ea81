package embed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/coderag/internal/config"
	cerrors "github.com/Aman-CERP/coderag/internal/errors"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name      string
		provider  string
		key       string
		wantModel string
		wantCache bool
	}{
		{"static", config.ProviderStatic, "", "static", false},
		{"auto without key", config.ProviderAuto, "", "static", false},
		{"empty without key", "", "", "static", false},
		{"auto with key", config.ProviderAuto, "k", DefaultVoyageModel, true},
		{"voyage without key", config.ProviderVoyage, "", DefaultVoyageModel, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("VOYAGE_API_KEY", tt.key)
			t.Setenv("ANTHROPIC_API_KEY", "")

			cfg := config.NewConfig().Embeddings
			cfg.Provider = tt.provider

			c, err := NewClient(cfg, t.TempDir())
			require.NoError(t, err)
			defer func() { _ = c.Close() }()

			assert.Equal(t, tt.wantModel, c.ModelName())
			_, cached := c.(*CachedClient)
			assert.Equal(t, tt.wantCache, cached)
		})
	}
}

func TestNewClient_VoyageWithoutKeyFallsBack(t *testing.T) {
	t.Setenv("VOYAGE_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")

	cfg := config.NewConfig().Embeddings
	cfg.Provider = config.ProviderVoyage

	c, err := NewClient(cfg, "")
	require.NoError(t, err)

	assert.True(t, c.FallbackMode())
	assert.False(t, c.Available())
}

func TestNewClient_UnknownProvider(t *testing.T) {
	cfg := config.NewConfig().Embeddings
	cfg.Provider = "ollama"

	_, err := NewClient(cfg, "")
	require.Error(t, err)
	assert.True(t, cerrors.HasCode(err, cerrors.ErrCodeInvalidArgument))
}

func TestRetryConfigForAttempts(t *testing.T) {
	r := RetryConfigForAttempts(3, 0)
	assert.Equal(t, 2, r.MaxRetries)
	assert.Equal(t, cerrors.DefaultRetryConfig().InitialDelay, r.InitialDelay)

	r = RetryConfigForAttempts(0, 0)
	assert.Equal(t, cerrors.DefaultRetryConfig().MaxRetries, r.MaxRetries)
}
