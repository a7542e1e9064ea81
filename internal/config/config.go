// Package config loads coderag settings from defaults, YAML files and
// CODERAG_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	cerrors "github.com/Aman-CERP/coderag/internal/errors"
)

// Backend and provider names accepted in configuration.
const (
	LexicalBackendOkapi = "okapi"
	LexicalBackendBleve = "bleve"

	VectorBackendMemory = "memory"
	VectorBackendHNSW   = "hnsw"
	VectorBackendSQLite = "sqlite"

	ProviderAuto   = "auto"
	ProviderVoyage = "voyage"
	ProviderStatic = "static"
)

// DefaultCacheDir is the per-project directory holding the manifest,
// scorer snapshot and embedding cache.
const DefaultCacheDir = ".coderag"

// Config is the complete coderag configuration.
type Config struct {
	Version     int               `yaml:"version" json:"version"`
	Search      SearchConfig      `yaml:"search" json:"search"`
	Paths       PathsConfig       `yaml:"paths" json:"paths"`
	Embeddings  EmbeddingsConfig  `yaml:"embeddings" json:"embeddings"`
	VectorStore VectorStoreConfig `yaml:"vector_store" json:"vector_store"`
	Index       IndexConfig       `yaml:"index" json:"index"`
	Watch       WatchConfig       `yaml:"watch" json:"watch"`
	Telemetry   TelemetryConfig   `yaml:"telemetry" json:"telemetry"`
	LogLevel    string            `yaml:"log_level" json:"log_level"`
}

// SearchConfig configures hybrid search.
//
// Weights are configurable via:
//  1. User config (~/.config/coderag/config.yaml)
//  2. Project config (.coderag.yaml)
//  3. CODERAG_LEXICAL_WEIGHT / CODERAG_VECTOR_WEIGHT (highest priority)
type SearchConfig struct {
	LexicalWeight  float64 `yaml:"lexical_weight" json:"lexical_weight"`
	VectorWeight   float64 `yaml:"vector_weight" json:"vector_weight"`
	TopK           int     `yaml:"top_k" json:"top_k"`
	VectorEnabled  bool    `yaml:"vector_enabled" json:"vector_enabled"`
	LexicalBackend string  `yaml:"lexical_backend" json:"lexical_backend"`
}

// PathsConfig holds user include and exclude globs, relative to the
// project root. Include admits files beyond the supported extensions;
// Exclude wins over both. Git submodules are skipped unless Submodules is
// set.
type PathsConfig struct {
	Include    []string `yaml:"include" json:"include"`
	Exclude    []string `yaml:"exclude" json:"exclude"`
	Submodules bool     `yaml:"submodules" json:"submodules"`
}

// EmbeddingsConfig configures the embedding client.
type EmbeddingsConfig struct {
	Provider    string        `yaml:"provider" json:"provider"`
	Model       string        `yaml:"model" json:"model"`
	Endpoint    string        `yaml:"endpoint" json:"endpoint"`
	BatchSize   int           `yaml:"batch_size" json:"batch_size"`
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	CacheSize   int           `yaml:"cache_size" json:"cache_size"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
	Dimensions  int           `yaml:"dimensions" json:"dimensions"` // static provider only
}

// VectorStoreConfig selects and tunes the vector backend.
type VectorStoreConfig struct {
	Backend  string `yaml:"backend" json:"backend"`
	M        int    `yaml:"m" json:"m"`
	EfSearch int    `yaml:"ef_search" json:"ef_search"`
}

// IndexConfig configures the indexer.
type IndexConfig struct {
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`
	Workers  int    `yaml:"workers" json:"workers"`
}

// WatchConfig configures `coderag watch`.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce" json:"debounce"`
}

// TelemetryConfig configures local query metrics. Nothing leaves the
// project cache directory.
type TelemetryConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Search: SearchConfig{
			LexicalWeight:  0.6,
			VectorWeight:   0.4,
			TopK:           5,
			VectorEnabled:  true,
			LexicalBackend: LexicalBackendOkapi,
		},
		Paths: PathsConfig{
			Include: []string{},
			Exclude: []string{},
		},
		Embeddings: EmbeddingsConfig{
			Provider:    ProviderAuto,
			Model:       "voyage-3",
			Endpoint:    "https://api.voyageai.com/v1/embeddings",
			BatchSize:   96,
			MaxAttempts: 3,
			CacheSize:   10000,
			Timeout:     30 * time.Second,
			Dimensions:  256,
		},
		VectorStore: VectorStoreConfig{
			Backend:  VectorBackendMemory,
			M:        16,
			EfSearch: 64,
		},
		Index: IndexConfig{
			CacheDir: DefaultCacheDir,
			Workers:  runtime.NumCPU(),
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
		Telemetry: TelemetryConfig{
			Enabled: true,
		},
		LogLevel: "warn",
	}
}

// GetUserConfigPath returns the user-level config file path, honoring
// XDG_CONFIG_HOME.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "coderag", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "coderag", "config.yaml")
	}
	return filepath.Join(home, ".config", "coderag", "config.yaml")
}

// Load loads configuration for the project in dir. Precedence, lowest first:
//  1. Defaults
//  2. User config (~/.config/coderag/config.yaml)
//  3. Project config (.coderag.yaml, or .coderag.yml)
//  4. CODERAG_* environment variables
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userPath := GetUserConfigPath(); fileExists(userPath) {
		if err := cfg.overlayYAML(userPath); err != nil {
			return nil, err
		}
	}

	for _, name := range []string{".coderag.yaml", ".coderag.yml"} {
		p := filepath.Join(dir, name)
		if fileExists(p) {
			if err := cfg.overlayYAML(p); err != nil {
				return nil, err
			}
			break
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// overlayYAML decodes path on top of c. Keys missing from the file keep
// their current values.
func (c *Config) overlayYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return cerrors.New(cerrors.ErrCodeConfigRead, fmt.Sprintf("read config file %s", path), err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return cerrors.New(cerrors.ErrCodeConfigInvalid, fmt.Sprintf("parse config file %s", path), err).
			WithSuggestion("Check the YAML syntax and field types")
	}
	return nil
}

// applyEnvOverrides applies CODERAG_* environment variables. Unparseable
// values are ignored.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CODERAG_LEXICAL_WEIGHT"); v != "" {
		if w, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			c.Search.LexicalWeight = w
		}
	}
	if v := os.Getenv("CODERAG_VECTOR_WEIGHT"); v != "" {
		if w, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			c.Search.VectorWeight = w
		}
	}
	if v := os.Getenv("CODERAG_TOP_K"); v != "" {
		if k, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			c.Search.TopK = k
		}
	}
	if v := os.Getenv("CODERAG_VECTOR_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			c.Search.VectorEnabled = b
		}
	}
	if v := os.Getenv("CODERAG_LEXICAL_BACKEND"); v != "" {
		c.Search.LexicalBackend = strings.ToLower(v)
	}
	if v := os.Getenv("CODERAG_EMBED_PROVIDER"); v != "" {
		c.Embeddings.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("CODERAG_VECTOR_BACKEND"); v != "" {
		c.VectorStore.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("CODERAG_TELEMETRY"); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			c.Telemetry.Enabled = b
		}
	}
	if v := os.Getenv("CODERAG_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Validate reports the first invalid setting as a CONFIG_INVALID error.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return cerrors.New(cerrors.ErrCodeConfigInvalid, fmt.Sprintf(format, args...), nil)
	}

	if c.Search.LexicalWeight < 0 {
		return invalid("search.lexical_weight must be non-negative, got %g", c.Search.LexicalWeight)
	}
	if c.Search.VectorWeight < 0 {
		return invalid("search.vector_weight must be non-negative, got %g", c.Search.VectorWeight)
	}
	if c.Search.LexicalWeight == 0 && c.Search.VectorWeight == 0 {
		return invalid("search.lexical_weight and search.vector_weight cannot both be 0")
	}
	if c.Search.TopK <= 0 {
		return invalid("search.top_k must be positive, got %d", c.Search.TopK)
	}

	switch c.Search.LexicalBackend {
	case LexicalBackendOkapi, LexicalBackendBleve:
	default:
		return invalid("search.lexical_backend must be 'okapi' or 'bleve', got %q", c.Search.LexicalBackend)
	}
	switch c.VectorStore.Backend {
	case VectorBackendMemory, VectorBackendHNSW, VectorBackendSQLite:
	default:
		return invalid("vector_store.backend must be 'memory', 'hnsw' or 'sqlite', got %q", c.VectorStore.Backend)
	}
	switch c.Embeddings.Provider {
	case ProviderAuto, ProviderVoyage, ProviderStatic:
	default:
		return invalid("embeddings.provider must be 'auto', 'voyage' or 'static', got %q", c.Embeddings.Provider)
	}

	if c.Embeddings.BatchSize <= 0 {
		return invalid("embeddings.batch_size must be positive, got %d", c.Embeddings.BatchSize)
	}
	if c.Embeddings.MaxAttempts <= 0 {
		return invalid("embeddings.max_attempts must be positive, got %d", c.Embeddings.MaxAttempts)
	}
	if c.Index.CacheDir == "" {
		return invalid("index.cache_dir cannot be empty")
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return invalid("log_level must be 'debug', 'info', 'warn' or 'error', got %q", c.LogLevel)
	}
	return nil
}

// CachePath resolves the cache directory against the project root.
func (c *Config) CachePath(root string) string {
	if filepath.IsAbs(c.Index.CacheDir) {
		return c.Index.CacheDir
	}
	return filepath.Join(root, c.Index.CacheDir)
}

// WriteYAML writes the configuration to path.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return cerrors.New(cerrors.ErrCodeFileWrite, fmt.Sprintf("write config file %s", path), err)
	}
	return nil
}

// FindProjectRoot walks up from startDir looking for a .git directory or a
// .coderag.yaml file. When neither is found the absolute startDir is returned.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", startDir, err)
	}

	for current := absDir; ; {
		if dirExists(filepath.Join(current, ".git")) ||
			fileExists(filepath.Join(current, ".coderag.yaml")) ||
			fileExists(filepath.Join(current, ".coderag.yml")) {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return absDir, nil
		}
		current = parent
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
