package watcher

import (
	"path"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeFilter admits .go and .py files outside .git and .coderag.
type fakeFilter struct {
	invalidations atomic.Int32
}

func (f *fakeFilter) Eligible(rel string) bool {
	ext := path.Ext(rel)
	return ext == ".go" || ext == ".py"
}

func (f *fakeFilter) IsIgnoredDir(name string) bool {
	return name == ".git" || name == ".coderag"
}

func (f *fakeFilter) InvalidateGitignoreCache() {
	f.invalidations.Add(1)
}

func TestOperation_String(t *testing.T) {
	assert.Equal(t, "CREATE", OpCreate.String())
	assert.Equal(t, "MODIFY", OpModify.String())
	assert.Equal(t, "DELETE", OpDelete.String())
	assert.Equal(t, "RENAME", OpRename.String())
	assert.Equal(t, "IGNORE_CHANGE", OpIgnoreChange.String())
	assert.Equal(t, "CONFIG_CHANGE", OpConfigChange.String())
	assert.Equal(t, "UNKNOWN", Operation(99).String())
}

func TestOptions_WithDefaults(t *testing.T) {
	opts := Options{Debounce: 10 * time.Millisecond}.WithDefaults()

	assert.Equal(t, 10*time.Millisecond, opts.Debounce)
	assert.Equal(t, DefaultOptions().PollInterval, opts.PollInterval)
	assert.Equal(t, DefaultOptions().EventBufferSize, opts.EventBufferSize)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		rel    string
		op     Operation
		isDir  bool
		keep   bool
		wantOp Operation
	}{
		{"supported file", "pkg/a.go", OpModify, false, true, OpModify},
		{"unsupported file", "notes.txt", OpModify, false, false, 0},
		{"inside ignored dir", ".git/objects/a.go", OpCreate, false, false, 0},
		{"cache dir", ".coderag/file_index.json", OpModify, false, false, 0},
		{"ignored dir itself", ".coderag", OpCreate, true, false, 0},
		{"new directory", "pkg/sub", OpCreate, true, true, OpCreate},
		{"deleted directory", "pkg/sub", OpDelete, false, true, OpDelete},
		{"deleted unsupported file", "notes.txt", OpDelete, false, false, 0},
		{"config file", ".coderag.yaml", OpModify, false, true, OpConfigChange},
		{"root", ".", OpModify, true, false, 0},
		{"outside root", "../x.go", OpModify, false, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, ok := classify(&fakeFilter{}, tt.rel, tt.op, tt.isDir, time.Now())

			assert.Equal(t, tt.keep, ok)
			if tt.keep {
				assert.Equal(t, tt.rel, event.Path)
				assert.Equal(t, tt.wantOp, event.Operation)
			}
		})
	}
}

func TestClassify_GitignoreInvalidatesFilter(t *testing.T) {
	// Given: a filter with a gitignore cache
	f := &fakeFilter{}

	// When: a nested .gitignore changes
	event, ok := classify(f, "pkg/.gitignore", OpModify, false, time.Now())

	// Then: an ignore-change event is emitted and the cache dropped
	assert.True(t, ok)
	assert.Equal(t, OpIgnoreChange, event.Operation)
	assert.Equal(t, int32(1), f.invalidations.Load())
}
