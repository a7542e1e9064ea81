package watcher

import (
	"path"
	"slices"
	"strings"
	"time"
)

// Operation is a file system operation type.
type Operation int

const (
	// OpCreate indicates a new file or directory was created.
	OpCreate Operation = iota
	// OpModify indicates an existing file was modified.
	OpModify
	// OpDelete indicates a file or directory was deleted.
	OpDelete
	// OpRename indicates a file or directory was renamed away.
	OpRename
	// OpIgnoreChange indicates a .gitignore file changed. The set of
	// eligible files may have changed anywhere below it.
	OpIgnoreChange
	// OpConfigChange indicates the project config file changed.
	OpConfigChange
)

// String returns a human-readable representation of the operation.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	case OpRename:
		return "RENAME"
	case OpIgnoreChange:
		return "IGNORE_CHANGE"
	case OpConfigChange:
		return "CONFIG_CHANGE"
	default:
		return "UNKNOWN"
	}
}

// FileEvent is a single observed change.
type FileEvent struct {
	// Path is relative to the watched root, slash separated.
	Path      string
	Operation Operation
	IsDir     bool
	Timestamp time.Time
}

// Filter decides which paths are worth an update. *scanner.Scanner
// satisfies it.
type Filter interface {
	// Eligible reports whether a relative file path would be indexed.
	Eligible(rel string) bool
	// IsIgnoredDir reports whether a directory name is never descended.
	IsIgnoredDir(name string) bool
	// InvalidateGitignoreCache drops cached .gitignore contents.
	InvalidateGitignoreCache()
}

// ConfigFileNames are the project config files that produce
// OpConfigChange events.
var ConfigFileNames = []string{".coderag.yaml", ".coderag.yml"}

// Options configures a Watcher.
type Options struct {
	// Debounce is how long the tree must be quiet before a batch is emitted.
	Debounce time.Duration

	// PollInterval is the scan period when polling is used.
	PollInterval time.Duration

	// EventBufferSize is the capacity of the batch channel.
	EventBufferSize int

	// ForcePolling skips fsnotify entirely.
	ForcePolling bool
}

// DefaultOptions returns the default watcher options.
func DefaultOptions() Options {
	return Options{
		Debounce:        500 * time.Millisecond,
		PollInterval:    5 * time.Second,
		EventBufferSize: 100,
	}
}

// WithDefaults fills zero fields from DefaultOptions.
func (o Options) WithDefaults() Options {
	defaults := DefaultOptions()
	if o.Debounce <= 0 {
		o.Debounce = defaults.Debounce
	}
	if o.PollInterval <= 0 {
		o.PollInterval = defaults.PollInterval
	}
	if o.EventBufferSize <= 0 {
		o.EventBufferSize = defaults.EventBufferSize
	}
	return o
}

// classify maps a raw change on rel to the event the watcher emits, or
// reports false when the change is irrelevant. A .gitignore change
// invalidates the filter's cache before anything else is evaluated.
func classify(filter Filter, rel string, op Operation, isDir bool, now time.Time) (FileEvent, bool) {
	if rel == "" || rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return FileEvent{}, false
	}

	dir, base := path.Split(rel)
	for _, part := range strings.Split(strings.TrimSuffix(dir, "/"), "/") {
		if part != "" && filter.IsIgnoredDir(part) {
			return FileEvent{}, false
		}
	}
	if isDir && filter.IsIgnoredDir(base) {
		return FileEvent{}, false
	}

	event := FileEvent{Path: rel, Operation: op, IsDir: isDir, Timestamp: now}
	switch {
	case base == ".gitignore":
		filter.InvalidateGitignoreCache()
		event.Operation = OpIgnoreChange
		return event, true
	case slices.Contains(ConfigFileNames, base):
		event.Operation = OpConfigChange
		return event, true
	case isDir:
		return event, true
	case op == OpDelete || op == OpRename:
		// A removed path cannot be stat'ed, so it may have been a directory.
		return event, filter.Eligible(rel) || path.Ext(base) == ""
	default:
		return event, filter.Eligible(rel)
	}
}
