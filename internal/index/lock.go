package index

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	cerrors "github.com/Aman-CERP/coderag/internal/errors"
)

// LockFile is the cross-process lock name inside the cache directory.
const LockFile = "index.lock"

// IndexLock serializes index mutations across processes with an advisory
// file lock. Acquire never blocks: a lock held elsewhere is INDEX_BUSY.
type IndexLock struct {
	mu     sync.Mutex
	path   string
	flock  *flock.Flock
	locked bool
}

// NewIndexLock creates the lock for <cacheDir>/index.lock.
func NewIndexLock(cacheDir string) *IndexLock {
	path := filepath.Join(cacheDir, LockFile)
	return &IndexLock{
		path:  path,
		flock: flock.New(path),
	}
}

// Acquire takes the lock or fails with ErrCodeIndexBusy.
func (l *IndexLock) Acquire() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.locked {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return cerrors.New(cerrors.ErrCodeFileWrite, "failed to create lock directory", err).
			WithDetail("path", l.path)
	}

	acquired, err := l.flock.TryLock()
	if err != nil {
		return cerrors.New(cerrors.ErrCodeIndexBusy, "failed to acquire index lock", err).
			WithDetail("path", l.path)
	}
	if !acquired {
		return cerrors.New(cerrors.ErrCodeIndexBusy, "another process is updating this index", nil).
			WithDetail("path", l.path).
			WithSuggestion("Wait for the other coderag process to finish, then retry")
	}

	l.locked = true
	return nil
}

// Release drops the lock. Releasing an unheld lock is a no-op.
func (l *IndexLock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return cerrors.New(cerrors.ErrCodeInternal, "failed to release index lock", err)
	}
	return nil
}

// Path returns the lock file path.
func (l *IndexLock) Path() string {
	return l.path
}

// Held reports whether this process holds the lock.
func (l *IndexLock) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.locked
}
