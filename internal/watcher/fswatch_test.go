package watcher

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/coderag/internal/scanner"
)

func newScannerFilter(t *testing.T, root string) *scanner.Scanner {
	t.Helper()
	s, err := scanner.New(scanner.Options{Root: root, CacheDirName: ".coderag"})
	require.NoError(t, err)
	return s
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
}

// startWatcher runs w until the test ends and gives it time to register
// its watches.
func startWatcher(t *testing.T, w *Watcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Start(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		_ = w.Stop()
	})
	time.Sleep(150 * time.Millisecond)
}

// collectUntil reads batches until one contains rel.
func collectUntil(t *testing.T, w *Watcher, rel string) FileEvent {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case batch, ok := <-w.Events():
			require.True(t, ok, "events closed")
			if i := slices.IndexFunc(batch, func(e FileEvent) bool { return e.Path == rel }); i >= 0 {
				return batch[i]
			}
		case <-deadline:
			t.Fatalf("no event for %s", rel)
			return FileEvent{}
		}
	}
}

func TestWatcher_Fsnotify_DetectsNewFile(t *testing.T) {
	// Given: a watched project
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n")
	w, err := New(root, newScannerFilter(t, root), Options{Debounce: 50 * time.Millisecond})
	require.NoError(t, err)
	if w.Polling() {
		t.Skip("fsnotify unavailable")
	}
	startWatcher(t, w)

	// When: a supported file is created in a new subdirectory
	writeFile(t, root, "pkg/util.go", "package pkg\n")

	// Then: the file shows up in a batch
	event := collectUntil(t, w, "pkg/util.go")
	assert.Contains(t, []Operation{OpCreate, OpModify}, event.Operation)
}

func TestWatcher_Fsnotify_IgnoresCacheDir(t *testing.T) {
	// Given: a watched project with a cache dir
	root := t.TempDir()
	writeFile(t, root, ".coderag/file_index.json", "{}")
	w, err := New(root, newScannerFilter(t, root), Options{Debounce: 50 * time.Millisecond})
	require.NoError(t, err)
	if w.Polling() {
		t.Skip("fsnotify unavailable")
	}
	startWatcher(t, w)

	// When: the cache dir and then a source file change
	writeFile(t, root, ".coderag/file_index.json", `{"a.go":{}}`)
	writeFile(t, root, "a.go", "package a\n")

	// Then: only the source file is reported
	event := collectUntil(t, w, "a.go")
	assert.Equal(t, "a.go", event.Path)
}

func TestWatcher_Polling_DetectsChanges(t *testing.T) {
	// Given: a polling watcher over a project with one file
	root := t.TempDir()
	writeFile(t, root, "a.py", "x = 1\n")
	w, err := New(root, newScannerFilter(t, root), Options{
		Debounce:     30 * time.Millisecond,
		PollInterval: 50 * time.Millisecond,
		ForcePolling: true,
	})
	require.NoError(t, err)
	require.True(t, w.Polling())
	startWatcher(t, w)

	// When: a file is added
	writeFile(t, root, "b.py", "y = 2\n")

	// Then: it is reported as created
	assert.Equal(t, OpCreate, collectUntil(t, w, "b.py").Operation)

	// When: the original file is modified
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(root, "a.py"), future, future))

	// Then: it is reported as modified
	assert.Equal(t, OpModify, collectUntil(t, w, "a.py").Operation)

	// When: a file is removed
	require.NoError(t, os.Remove(filepath.Join(root, "b.py")))

	// Then: it is reported as deleted
	assert.Equal(t, OpDelete, collectUntil(t, w, "b.py").Operation)
}

func TestWatcher_Polling_SkipsUnsupportedFiles(t *testing.T) {
	root := t.TempDir()
	w, err := New(root, newScannerFilter(t, root), Options{
		Debounce:     30 * time.Millisecond,
		PollInterval: 50 * time.Millisecond,
		ForcePolling: true,
	})
	require.NoError(t, err)
	startWatcher(t, w)

	writeFile(t, root, "image.png", "not code")
	writeFile(t, root, "c.go", "package c\n")

	event := collectUntil(t, w, "c.go")
	assert.Equal(t, OpCreate, event.Operation)
}

func TestWatcher_StopClosesEvents(t *testing.T) {
	w, err := New(t.TempDir(), &fakeFilter{}, Options{ForcePolling: true})
	require.NoError(t, err)

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())

	select {
	case _, ok := <-w.Events():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("events channel not closed")
	}
}
