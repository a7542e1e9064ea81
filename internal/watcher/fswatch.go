package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches a project tree with fsnotify, falling back to polling,
// and emits debounced batches of relevant changes.
type Watcher struct {
	root      string
	filter    Filter
	opts      Options
	fsw       *fsnotify.Watcher
	debouncer *Debouncer
	events    chan []FileEvent
	stopCh    chan struct{}
	stopOnce  sync.Once
	dropped   atomic.Uint64
}

// New creates a watcher for root. Nothing is observed until Start.
func New(root string, filter Filter, opts Options) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve absolute path: %w", err)
	}
	opts = opts.WithDefaults()

	w := &Watcher{
		root:      abs,
		filter:    filter,
		opts:      opts,
		debouncer: NewDebouncer(opts.Debounce),
		events:    make(chan []FileEvent, opts.EventBufferSize),
		stopCh:    make(chan struct{}),
	}

	if !opts.ForcePolling {
		fsw, err := fsnotify.NewWatcher()
		if err != nil {
			slog.Warn("watch_fsnotify_unavailable",
				slog.String("error", err.Error()),
				slog.Duration("poll_interval", opts.PollInterval))
		} else {
			w.fsw = fsw
		}
	}

	go w.forward()
	return w, nil
}

// Polling reports whether the watcher polls instead of using fsnotify.
func (w *Watcher) Polling() bool {
	return w.fsw == nil
}

// Events returns the channel of debounced batches. It is closed after Stop.
func (w *Watcher) Events() <-chan []FileEvent {
	return w.events
}

// DroppedBatches returns how many batches were discarded because the
// consumer fell behind.
func (w *Watcher) DroppedBatches() uint64 {
	return w.dropped.Load()
}

// Start observes the tree until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if w.fsw == nil {
		return w.runPolling(ctx)
	}
	return w.runFsnotify(ctx)
}

// Stop stops watching and closes the events channel. Safe to call
// multiple times.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopCh)
		if w.fsw != nil {
			err = w.fsw.Close()
		}
		w.debouncer.Stop()
	})
	return err
}

func (w *Watcher) runFsnotify(ctx context.Context) error {
	if err := w.fsw.Add(w.root); err != nil {
		return fmt.Errorf("watch %s: %w", w.root, err)
	}
	w.addRecursive(w.root, false)
	slog.Debug("watch_started", slog.String("root", w.root), slog.String("mode", "fsnotify"))

	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch_error", slog.String("error", err.Error()))
		}
	}
}

// handle converts one fsnotify event and queues it when relevant.
func (w *Watcher) handle(ev fsnotify.Event) {
	var op Operation
	switch {
	case ev.Op&fsnotify.Create != 0:
		op = OpCreate
	case ev.Op&fsnotify.Write != 0:
		op = OpModify
	case ev.Op&fsnotify.Remove != 0:
		op = OpDelete
	case ev.Op&fsnotify.Rename != 0:
		op = OpRename
	default:
		return
	}

	isDir := false
	if info, err := os.Stat(ev.Name); err == nil {
		isDir = info.IsDir()
	}

	event, ok := classify(w.filter, w.rel(ev.Name), op, isDir, time.Now())
	if !ok {
		return
	}
	w.debouncer.Add(event)
	if isDir && op == OpCreate {
		w.addRecursive(ev.Name, true)
	}
}

// addRecursive watches dir and every directory below it that is not
// ignored by name. With emitFiles set, files already present are queued
// as created, since they may have been written before the watch existed.
func (w *Watcher) addRecursive(dir string, emitFiles bool) {
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			if emitFiles {
				if event, ok := classify(w.filter, w.rel(p), OpCreate, false, time.Now()); ok {
					w.debouncer.Add(event)
				}
			}
			return nil
		}
		if p != w.root && w.filter.IsIgnoredDir(d.Name()) {
			return filepath.SkipDir
		}
		if p == w.root {
			return nil
		}
		if err := w.fsw.Add(p); err != nil {
			slog.Warn("watch_add_failed", slog.String("path", p), slog.String("error", err.Error()))
		}
		return nil
	})
}

func (w *Watcher) rel(abs string) string {
	rel, err := filepath.Rel(w.root, abs)
	if err != nil {
		return ""
	}
	return filepath.ToSlash(rel)
}

// forward moves debounced batches to the events channel until the
// debouncer is stopped.
func (w *Watcher) forward() {
	defer close(w.events)
	for batch := range w.debouncer.Output() {
		select {
		case w.events <- batch:
		default:
			n := w.dropped.Add(1)
			slog.Warn("watch_consumer_behind",
				slog.Int("batch_size", len(batch)),
				slog.Uint64("dropped_total", n))
		}
	}
}
