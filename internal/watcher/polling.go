package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"
)

type fileState struct {
	modTime time.Time
	size    int64
}

func (w *Watcher) runPolling(ctx context.Context) error {
	state := w.snapshot()
	slog.Debug("watch_started",
		slog.String("root", w.root),
		slog.String("mode", "polling"),
		slog.Int("files", len(state)))

	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case <-ticker.C:
			next := w.snapshot()
			w.diff(state, next, time.Now())
			state = next
		}
	}
}

// snapshot records every regular file outside ignored directories.
func (w *Watcher) snapshot() map[string]fileState {
	files := make(map[string]fileState)
	_ = filepath.WalkDir(w.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if p != w.root && w.filter.IsIgnoredDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		files[w.rel(p)] = fileState{modTime: info.ModTime(), size: info.Size()}
		return nil
	})
	return files
}

// diff queues the differences between two snapshots.
func (w *Watcher) diff(prev, next map[string]fileState, now time.Time) {
	for rel, cur := range next {
		old, existed := prev[rel]
		op := OpCreate
		if existed {
			if old.modTime.Equal(cur.modTime) && old.size == cur.size {
				continue
			}
			op = OpModify
		}
		if event, ok := classify(w.filter, rel, op, false, now); ok {
			w.debouncer.Add(event)
		}
	}
	for rel := range prev {
		if _, ok := next[rel]; ok {
			continue
		}
		if event, ok := classify(w.filter, rel, OpDelete, false, now); ok {
			w.debouncer.Add(event)
		}
	}
}
