package index

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"time"

	cerrors "github.com/Aman-CERP/coderag/internal/errors"
)

// Cache file names inside the cache directory.
const (
	ManifestFile = "file_index.json"
	SnapshotFile = "bm25_index.snapshot"
)

// ManifestEntry records the state of one indexed file.
type ManifestEntry struct {
	MTime       float64 `json:"mtime"`
	ChunkCount  int     `json:"chunk_count"`
	LastIndexed string  `json:"last_indexed"`
}

// Manifest maps slash-separated relative paths to entries. It is the only
// source of truth for change detection across runs.
type Manifest map[string]ManifestEntry

// newEntry builds an entry for a file modified at modTime.
func newEntry(modTime time.Time, chunks int, now time.Time) ManifestEntry {
	return ManifestEntry{
		MTime:       mtimeSeconds(modTime),
		ChunkCount:  chunks,
		LastIndexed: now.UTC().Format(time.RFC3339Nano),
	}
}

// mtimeSeconds converts a modification time to float seconds.
func mtimeSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

// Paths returns the manifest paths, sorted.
func (m Manifest) Paths() []string {
	paths := make([]string, 0, len(m))
	for p := range m {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// Chunks returns the total chunk count.
func (m Manifest) Chunks() int {
	total := 0
	for _, e := range m {
		total += e.ChunkCount
	}
	return total
}

// LastIndexed returns the most recent LastIndexed time, zero when empty.
func (m Manifest) LastIndexed() time.Time {
	var latest time.Time
	for _, e := range m {
		t, err := time.Parse(time.RFC3339Nano, e.LastIndexed)
		if err == nil && t.After(latest) {
			latest = t
		}
	}
	return latest
}

// Clone returns a copy of the manifest.
func (m Manifest) Clone() Manifest {
	out := make(Manifest, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// LoadManifest reads a manifest. A missing file is an empty manifest; an
// unreadable or corrupt file returns an empty manifest and an error the
// caller may log.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Manifest{}, nil
		}
		return Manifest{}, cerrors.New(cerrors.ErrCodeFileRead, "failed to read manifest", err).
			WithDetail("path", path)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, cerrors.New(cerrors.ErrCodeManifestCorrupt, "manifest is not valid JSON", err).
			WithDetail("path", path).
			WithSuggestion("Run 'coderag index' to rebuild the index")
	}
	if m == nil {
		m = Manifest{}
	}
	return m, nil
}

// SaveManifest rewrites the manifest atomically.
func SaveManifest(path string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return cerrors.New(cerrors.ErrCodeInternal, "failed to encode manifest", err)
	}
	return writeFileAtomic(path, data)
}

// writeFileAtomic writes data to a temp file next to path and renames it
// into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return cerrors.New(cerrors.ErrCodeFileWrite, "failed to create cache directory", err).
			WithDetail("path", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return cerrors.New(cerrors.ErrCodeFileWrite, "failed to create temp file", err).
			WithDetail("path", path)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return cerrors.New(cerrors.ErrCodeFileWrite, "failed to write temp file", err).
			WithDetail("path", path)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return cerrors.New(cerrors.ErrCodeFileWrite, "failed to close temp file", err).
			WithDetail("path", path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return cerrors.New(cerrors.ErrCodeFileWrite, "failed to replace file", err).
			WithDetail("path", path)
	}
	return nil
}
