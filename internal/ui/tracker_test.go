package ui

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracker_Apply(t *testing.T) {
	// Given: a tracker
	tr := NewTracker()

	// When: reporting chunking progress
	tr.Apply(ProgressEvent{Stage: StageChunking, Current: 5, Total: 20, CurrentFile: "a.go"})

	// Then: stats reflect the event
	st := tr.Stats()
	assert.Equal(t, StageChunking, st.Stage)
	assert.Equal(t, 5, st.Current)
	assert.Equal(t, 20, st.Total)
	assert.Equal(t, "a.go", st.File)
	assert.InDelta(t, 0.25, st.Progress, 1e-9)
}

func TestTracker_CurrentNeverGoesBackwards(t *testing.T) {
	// Parallel chunk workers can report out of order.
	tr := NewTracker()
	tr.Apply(ProgressEvent{Stage: StageChunking, Current: 7, Total: 10})
	tr.Apply(ProgressEvent{Stage: StageChunking, Current: 6, Total: 10})

	assert.Equal(t, 7, tr.Stats().Current)
}

func TestTracker_NewStageResets(t *testing.T) {
	tr := NewTracker()
	tr.Apply(ProgressEvent{Stage: StageChunking, Current: 10, Total: 10, CurrentFile: "z.go"})

	tr.Apply(ProgressEvent{Stage: StageEmbedding, Current: 96, Total: 300})

	st := tr.Stats()
	assert.Equal(t, StageEmbedding, st.Stage)
	assert.Equal(t, 96, st.Current)
	assert.Equal(t, 300, st.Total)
	assert.Empty(t, st.File)
}

func TestTracker_ProgressUnknownTotal(t *testing.T) {
	tr := NewTracker()
	tr.Apply(ProgressEvent{Stage: StageIndexing, Message: "fitting"})

	st := tr.Stats()
	assert.Zero(t, st.Progress)
	assert.Equal(t, "fitting", st.Message)
}

func TestTracker_ProgressCapped(t *testing.T) {
	tr := NewTracker()
	tr.Apply(ProgressEvent{Stage: StageEmbedding, Current: 12, Total: 10})

	assert.Equal(t, 1.0, tr.Stats().Progress)
}

func TestTracker_Errors(t *testing.T) {
	tr := NewTracker()
	tr.AddError(ErrorEvent{File: "a.py", Err: errors.New("w"), IsWarn: true})
	tr.AddError(ErrorEvent{File: "b.py", Err: errors.New("e")})

	st := tr.Stats()
	assert.Equal(t, 1, st.Warnings)
	assert.Equal(t, 1, st.Errors)
	if assert.NotNil(t, st.LastErr) {
		assert.Equal(t, "b.py", st.LastErr.File)
	}
}

func TestTracker_Concurrent(t *testing.T) {
	tr := NewTracker()
	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Apply(ProgressEvent{Stage: StageChunking, Current: i, Total: 50})
			_ = tr.Stats()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, tr.Stats().Current)
}
