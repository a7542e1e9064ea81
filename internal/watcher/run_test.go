package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/coderag/internal/chunk"
	"github.com/Aman-CERP/coderag/internal/config"
	cerrors "github.com/Aman-CERP/coderag/internal/errors"
	"github.com/Aman-CERP/coderag/internal/index"
)

// scriptedUpdater returns the queued errors in order, then succeeds.
type scriptedUpdater struct {
	mu    sync.Mutex
	errs  []error
	calls int
}

func (u *scriptedUpdater) Update(context.Context) (index.UpdateStats, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls++
	if len(u.errs) > 0 {
		err := u.errs[0]
		u.errs = u.errs[1:]
		return index.UpdateStats{}, err
	}
	return index.UpdateStats{Added: 1}, nil
}

func (u *scriptedUpdater) Calls() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls
}

func fastRetry() RunConfig {
	cfg := DefaultRunConfig()
	cfg.Retry.InitialDelay = time.Millisecond
	cfg.Retry.MaxDelay = 5 * time.Millisecond
	return cfg
}

func oneBatch(events ...FileEvent) <-chan []FileEvent {
	ch := make(chan []FileEvent, 1)
	ch <- events
	close(ch)
	return ch
}

func TestRun_RetriesWhileIndexBusy(t *testing.T) {
	// Given: an index that is busy twice
	busy := cerrors.New(cerrors.ErrCodeIndexBusy, "failed to acquire index lock", nil)
	u := &scriptedUpdater{errs: []error{busy, busy}}
	var got []index.UpdateStats
	cfg := fastRetry()
	cfg.OnUpdate = func(_ []FileEvent, stats index.UpdateStats) { got = append(got, stats) }

	// When: one batch is applied
	err := Run(context.Background(), oneBatch(FileEvent{Path: "a.go", Operation: OpModify}), u, cfg)

	// Then: the update is retried until it succeeds
	require.NoError(t, err)
	assert.Equal(t, 3, u.Calls())
	assert.Equal(t, []index.UpdateStats{{Added: 1}}, got)
}

func TestRun_OtherErrorsAreNotRetried(t *testing.T) {
	// Given: an update that fails with a non-busy error
	u := &scriptedUpdater{errs: []error{cerrors.New(cerrors.ErrCodeFileWrite, "disk full", nil)}}
	ch := make(chan []FileEvent, 2)
	ch <- []FileEvent{{Path: "a.go", Operation: OpModify}}
	ch <- []FileEvent{{Path: "b.go", Operation: OpModify}}
	close(ch)

	// When: two batches are applied
	err := Run(context.Background(), ch, u, fastRetry())

	// Then: the failure is logged and watching continues
	require.NoError(t, err)
	assert.Equal(t, 2, u.Calls())
}

func TestRun_ClosedIndexStops(t *testing.T) {
	u := &scriptedUpdater{errs: []error{cerrors.New(cerrors.ErrCodeIndexClosed, "indexer is closed", nil)}}
	ch := make(chan []FileEvent, 2)
	ch <- []FileEvent{{Path: "a.go"}}
	ch <- []FileEvent{{Path: "b.go"}}

	err := Run(context.Background(), ch, u, fastRetry())

	assert.True(t, cerrors.HasCode(err, cerrors.ErrCodeIndexClosed))
	assert.Equal(t, 1, u.Calls())
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Run(ctx, make(chan []FileEvent), &scriptedUpdater{}, fastRetry())

	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRun_UpdatesRealIndex(t *testing.T) {
	// Given: an indexed project watched by polling
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.py"), []byte("def a():\n    return 1\n"), 0644))

	cfg := config.NewConfig()
	cfg.Search.VectorEnabled = false
	ix, err := index.New(root, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ix.Close() })
	_, err = ix.Index(context.Background())
	require.NoError(t, err)

	w, err := New(root, ix.Scanner(), Options{
		Debounce:     30 * time.Millisecond,
		PollInterval: 50 * time.Millisecond,
		ForcePolling: true,
	})
	require.NoError(t, err)
	startWatcher(t, w)

	updates := make(chan index.UpdateStats, 4)
	runCfg := fastRetry()
	runCfg.OnUpdate = func(_ []FileEvent, stats index.UpdateStats) { updates <- stats }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, w.Events(), ix, runCfg) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// When: a new source file appears
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.py"), []byte("def b():\n    return 2\n"), 0644))

	// Then: the watcher drives an update that adds it
	select {
	case stats := <-updates:
		assert.Equal(t, index.UpdateStats{Added: 1}, stats)
	case <-time.After(5 * time.Second):
		t.Fatal("no update applied")
	}
	assert.True(t, slices.ContainsFunc(ix.Chunks(), func(c chunk.Chunk) bool { return c.FilePath == "b.py" }))
}
