package ui

import (
	"bytes"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTUIRenderer_RejectsNonTTY(t *testing.T) {
	r, err := NewTUIRenderer(NewConfig(&bytes.Buffer{}))

	assert.Error(t, err)
	assert.Nil(t, r)
}

func newTestModel(tr *Tracker) *progressModel {
	m := newProgressModel(tr, "/src/app")
	m.styles = NoColorStyles()
	return m
}

func TestProgressModel_ViewShowsStages(t *testing.T) {
	// Given: a model in the chunking stage
	tr := NewTracker()
	tr.Apply(ProgressEvent{Stage: StageChunking, Current: 5, Total: 10, CurrentFile: "pkg/server/handler.go"})
	m := newTestModel(tr)

	// When: rendering
	view := m.View()

	// Then: header, every stage, counts and current file are shown
	assert.Contains(t, view, "coderag index • /src/app")
	for _, name := range []string{"Scan", "Chunk", "Embed", "Index"} {
		assert.Contains(t, view, name)
	}
	assert.Contains(t, view, "● Scan")
	assert.Contains(t, view, "○ Embed")
	assert.Contains(t, view, "5 / 10 files")
	assert.Contains(t, view, " 50%")
	assert.Contains(t, view, "handler.go")
}

func TestProgressModel_EmbeddingCountsChunks(t *testing.T) {
	tr := NewTracker()
	tr.Apply(ProgressEvent{Stage: StageEmbedding, Current: 96, Total: 192})

	view := newTestModel(tr).View()

	assert.Contains(t, view, "96 / 192 chunks")
}

func TestProgressModel_UnknownTotalShowsMessage(t *testing.T) {
	tr := NewTracker()
	tr.Apply(ProgressEvent{Stage: StageIndexing, Message: "fitting lexical scorer"})

	view := newTestModel(tr).View()

	assert.Contains(t, view, "fitting lexical scorer")
}

func TestProgressModel_ShowsWarnings(t *testing.T) {
	tr := NewTracker()
	tr.AddError(ErrorEvent{File: "bad.py", IsWarn: true})

	view := newTestModel(tr).View()

	assert.Contains(t, view, "1 warnings")
	assert.Contains(t, view, "last: bad.py")
}

func TestProgressModel_CompleteQuits(t *testing.T) {
	// Given: a running model
	m := newTestModel(NewTracker())

	// When: the run completes
	next, cmd := m.Update(completeMsg(CompletionStats{Operation: "index", Files: 2, Chunks: 9, Vectors: 9, Duration: 3 * time.Second}))

	// Then: the summary is rendered and the program quits
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	view := next.View()
	assert.Contains(t, view, "Index complete")
	assert.Contains(t, view, "9")
	assert.Contains(t, view, "3s")
}

func TestProgressModel_CompleteUpdate(t *testing.T) {
	m := newTestModel(NewTracker())

	next, _ := m.Update(completeMsg(CompletionStats{Operation: "update", Added: 4, Removed: 1}))

	view := next.View()
	assert.Contains(t, view, "Update complete")
	assert.Contains(t, view, "Added:")
	assert.Contains(t, view, "4")
}

func TestProgressModel_WindowResize(t *testing.T) {
	m := newTestModel(NewTracker())

	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	assert.Equal(t, 120, m.width)
	assert.Equal(t, 96, m.bar.Width)
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{850 * time.Millisecond, "850ms"},
		{12 * time.Second, "12s"},
		{3*time.Minute + 4*time.Second, "3m 4s"},
		{62 * time.Minute, "1h 2m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.in))
	}
}

func TestTruncatePath(t *testing.T) {
	tests := []struct {
		path   string
		maxLen int
		want   string
	}{
		{"a/b.go", 20, "a/b.go"},
		{"very/long/directory/name/file.go", 20, "...tory/name/file.go"},
		{"averyveryverylongfilename.go", 10, "...name.go"},
		{"x/y.go", 3, "..."},
	}
	for _, tt := range tests {
		got := truncatePath(tt.path, tt.maxLen)
		assert.Equal(t, tt.want, got)
		assert.LessOrEqual(t, len(got), max(tt.maxLen, 3))
	}
}
