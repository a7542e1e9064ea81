package ui

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainRenderer_ProgressWithTotal(t *testing.T) {
	// Given: a plain renderer
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))
	require.NoError(t, r.Start(context.Background()))

	// When: reporting chunking progress
	r.UpdateProgress(ProgressEvent{Stage: StageChunking, Current: 3, Total: 10, CurrentFile: "src/main.go"})
	r.UpdateProgress(ProgressEvent{Stage: StageEmbedding, Current: 96, Total: 200})

	// Then: one line per event with tag and counts
	assert.Equal(t, "[CHUNK] 3/10 src/main.go\n[EMBED] 96/200\n", buf.String())
}

func TestPlainRenderer_MessageOncePerStage(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	r.UpdateProgress(ProgressEvent{Stage: StageScanning, Message: "/repo"})
	r.UpdateProgress(ProgressEvent{Stage: StageScanning, Message: "/repo"})
	r.UpdateProgress(ProgressEvent{Stage: StageIndexing, Message: "fitting lexical scorer"})

	assert.Equal(t, "[SCAN] /repo\n[INDEX] fitting lexical scorer\n", buf.String())
}

func TestPlainRenderer_NoANSI(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	for _, stage := range []Stage{StageScanning, StageChunking, StageEmbedding, StageIndexing, StageComplete} {
		r.UpdateProgress(ProgressEvent{Stage: stage, Current: 1, Total: 2, Message: "working"})
	}
	r.AddError(ErrorEvent{File: "a.py", Err: errors.New("bad"), IsWarn: true})
	r.Complete(CompletionStats{Files: 1, Chunks: 2})

	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestPlainRenderer_AddError(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	r.AddError(ErrorEvent{File: "bad.py", Err: errors.New("not utf-8"), IsWarn: true})
	r.AddError(ErrorEvent{Err: errors.New("disk full")})

	assert.Equal(t, "WARN: bad.py: not utf-8\nERROR: disk full\n", buf.String())
}

func TestPlainRenderer_CompleteIndex(t *testing.T) {
	// Given: a run with one warning
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))
	r.AddError(ErrorEvent{File: "bad.py", Err: errors.New("x"), IsWarn: true})
	buf.Reset()

	// When: completing
	r.Complete(CompletionStats{Operation: "index", Files: 3, Chunks: 12, Vectors: 12, Duration: 1234 * time.Millisecond})

	// Then: the summary counts the recorded warning
	assert.Equal(t, "Indexed: 3 files, 12 chunks, 12 vectors in 1.2s (0 errors, 1 warnings)\n", buf.String())
}

func TestPlainRenderer_CompleteUpdate(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	r.Complete(CompletionStats{Operation: "update", Added: 1, Updated: 2, Removed: 3, Duration: 50 * time.Millisecond})

	assert.Equal(t, "Updated: 1 added, 2 updated, 3 removed in 100ms\n", buf.String())
	require.NoError(t, r.Stop())
}
