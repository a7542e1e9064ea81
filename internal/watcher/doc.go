// Package watcher turns file system changes under a project root into
// debounced batches and drives incremental index updates from them.
//
// fsnotify is the primary event source. When it cannot be created (some
// network mounts and container volumes) the watcher polls the tree instead.
// Events are filtered with the same rules the scanner applies, so changes
// to ignored or unsupported files never trigger an update.
//
// Usage:
//
//	w, err := watcher.New(root, scanner, watcher.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//
//	go func() { _ = w.Start(ctx) }()
//	return watcher.Run(ctx, w.Events(), indexer, watcher.RunConfig{})
package watcher
