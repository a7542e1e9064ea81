package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/Aman-CERP/coderag/internal/errors"
)

// isolate points the user config at an empty directory and clears
// CODERAG_* overrides so tests only see what they set.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, k := range []string{
		"CODERAG_LEXICAL_WEIGHT", "CODERAG_VECTOR_WEIGHT", "CODERAG_TOP_K",
		"CODERAG_VECTOR_ENABLED", "CODERAG_LEXICAL_BACKEND", "CODERAG_EMBED_PROVIDER",
		"CODERAG_VECTOR_BACKEND", "CODERAG_LOG_LEVEL", "CODERAG_TELEMETRY",
	} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, 0.6, cfg.Search.LexicalWeight)
	assert.Equal(t, 0.4, cfg.Search.VectorWeight)
	assert.Equal(t, 5, cfg.Search.TopK)
	assert.True(t, cfg.Search.VectorEnabled)
	assert.Equal(t, LexicalBackendOkapi, cfg.Search.LexicalBackend)
	assert.Equal(t, ProviderAuto, cfg.Embeddings.Provider)
	assert.Equal(t, "voyage-3", cfg.Embeddings.Model)
	assert.Equal(t, 96, cfg.Embeddings.BatchSize)
	assert.Equal(t, 3, cfg.Embeddings.MaxAttempts)
	assert.Equal(t, VectorBackendMemory, cfg.VectorStore.Backend)
	assert.Equal(t, ".coderag", cfg.Index.CacheDir)
	assert.Positive(t, cfg.Index.Workers)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_NoConfigFile_ReturnsDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, NewConfig().Search, cfg.Search)
}

func TestLoad_ProjectYAML_OverridesOnlyGivenKeys(t *testing.T) {
	// Given: a project config touching a few keys
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".coderag.yaml"), `
search:
  lexical_weight: 0.7
  vector_weight: 0.3
  vector_enabled: false
vector_store:
  backend: hnsw
watch:
  debounce: 250ms
paths:
  exclude: ["docs/**"]
`)

	// When: loading
	cfg, err := Load(dir)

	// Then: given keys change and the rest keep defaults
	require.NoError(t, err)
	assert.Equal(t, 0.7, cfg.Search.LexicalWeight)
	assert.Equal(t, 0.3, cfg.Search.VectorWeight)
	assert.False(t, cfg.Search.VectorEnabled)
	assert.Equal(t, 5, cfg.Search.TopK)
	assert.Equal(t, VectorBackendHNSW, cfg.VectorStore.Backend)
	assert.Equal(t, 16, cfg.VectorStore.M)
	assert.Equal(t, 250*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, []string{"docs/**"}, cfg.Paths.Exclude)
}

func TestLoad_YamlPreferredOverYml(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".coderag.yaml"), "search:\n  top_k: 7\n")
	writeFile(t, filepath.Join(dir, ".coderag.yml"), "search:\n  top_k: 9\n")

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Search.TopK)
}

func TestLoad_UserConfigBelowProjectConfig(t *testing.T) {
	// Given: both user and project configs
	isolate(t)
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	writeFile(t, filepath.Join(xdg, "coderag", "config.yaml"), "search:\n  top_k: 3\nlog_level: info\n")
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".coderag.yaml"), "search:\n  top_k: 8\n")

	// When: loading
	cfg, err := Load(dir)

	// Then: project wins where both set a key, user config fills the rest
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Search.TopK)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_InvalidYaml_ReturnsConfigError(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".coderag.yaml"), "search: [unclosed\n")

	_, err := Load(dir)

	require.Error(t, err)
	assert.True(t, cerrors.HasCode(err, cerrors.ErrCodeConfigInvalid))
}

func TestLoad_InvalidFieldType_ReturnsError(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".coderag.yaml"), "search:\n  top_k: lots\n")

	_, err := Load(dir)

	assert.Error(t, err)
}

func TestLoad_EnvOverridesWinOverFiles(t *testing.T) {
	// Given: a project file and env overrides
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".coderag.yaml"), "search:\n  lexical_weight: 0.9\n")
	t.Setenv("CODERAG_LEXICAL_WEIGHT", "0.5")
	t.Setenv("CODERAG_VECTOR_WEIGHT", "0.5")
	t.Setenv("CODERAG_TOP_K", "11")
	t.Setenv("CODERAG_VECTOR_ENABLED", "false")
	t.Setenv("CODERAG_EMBED_PROVIDER", "STATIC")
	t.Setenv("CODERAG_VECTOR_BACKEND", "sqlite")
	t.Setenv("CODERAG_LEXICAL_BACKEND", "bleve")
	t.Setenv("CODERAG_LOG_LEVEL", "debug")
	t.Setenv("CODERAG_TELEMETRY", "false")

	// When: loading
	cfg, err := Load(dir)

	// Then: env values win
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.Search.LexicalWeight)
	assert.Equal(t, 0.5, cfg.Search.VectorWeight)
	assert.Equal(t, 11, cfg.Search.TopK)
	assert.False(t, cfg.Search.VectorEnabled)
	assert.Equal(t, ProviderStatic, cfg.Embeddings.Provider)
	assert.Equal(t, VectorBackendSQLite, cfg.VectorStore.Backend)
	assert.Equal(t, LexicalBackendBleve, cfg.Search.LexicalBackend)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.Telemetry.Enabled)
}

func TestLoad_UnparseableEnvIgnored(t *testing.T) {
	isolate(t)
	t.Setenv("CODERAG_TOP_K", "many")

	cfg, err := Load(t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Search.TopK)
}

func TestValidate_RejectsBadSettings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"negative lexical weight", func(c *Config) { c.Search.LexicalWeight = -0.1 }},
		{"negative vector weight", func(c *Config) { c.Search.VectorWeight = -1 }},
		{"both weights zero", func(c *Config) { c.Search.LexicalWeight, c.Search.VectorWeight = 0, 0 }},
		{"zero top_k", func(c *Config) { c.Search.TopK = 0 }},
		{"unknown lexical backend", func(c *Config) { c.Search.LexicalBackend = "lucene" }},
		{"unknown vector backend", func(c *Config) { c.VectorStore.Backend = "faiss" }},
		{"unknown provider", func(c *Config) { c.Embeddings.Provider = "ollama" }},
		{"zero batch size", func(c *Config) { c.Embeddings.BatchSize = 0 }},
		{"zero attempts", func(c *Config) { c.Embeddings.MaxAttempts = 0 }},
		{"empty cache dir", func(c *Config) { c.Index.CacheDir = "" }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)

			err := cfg.Validate()

			require.Error(t, err)
			assert.Equal(t, cerrors.CategoryConfig, cerrors.GetCategory(err))
		})
	}
}

func TestValidate_OneZeroWeightAllowed(t *testing.T) {
	cfg := NewConfig()
	cfg.Search.VectorWeight = 0

	assert.NoError(t, cfg.Validate())
}

func TestCachePath_RelativeAndAbsolute(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, filepath.Join("/proj", ".coderag"), cfg.CachePath("/proj"))

	cfg.Index.CacheDir = "/var/cache/coderag"
	assert.Equal(t, "/var/cache/coderag", cfg.CachePath("/proj"))
}

func TestWriteYAML_RoundTripsThroughLoad(t *testing.T) {
	// Given: a modified config written to a project file
	isolate(t)
	dir := t.TempDir()
	cfg := NewConfig()
	cfg.Search.TopK = 12
	cfg.Watch.Debounce = 2 * time.Second
	require.NoError(t, cfg.WriteYAML(filepath.Join(dir, ".coderag.yaml")))

	// When: loading it back
	loaded, err := Load(dir)

	// Then: values survive
	require.NoError(t, err)
	assert.Equal(t, 12, loaded.Search.TopK)
	assert.Equal(t, 2*time.Second, loaded.Watch.Debounce)
}

func TestGetUserConfigPath_HonorsXDG(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	assert.Equal(t, filepath.Join(xdg, "coderag", "config.yaml"), GetUserConfigPath())
}

func TestFindProjectRoot_GitDirectory(t *testing.T) {
	// Given: a nested directory under a git root
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	// When: searching from the nested directory
	found, err := FindProjectRoot(nested)

	// Then: the git root is returned
	require.NoError(t, err)
	assert.Equal(t, root, found)
}

func TestFindProjectRoot_ConfigFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".coderag.yaml"), "version: 1\n")
	nested := filepath.Join(root, "src")
	require.NoError(t, os.Mkdir(nested, 0o755))

	found, err := FindProjectRoot(nested)

	require.NoError(t, err)
	assert.Equal(t, root, found)
}
