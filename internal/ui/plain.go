package ui

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// PlainRenderer writes one line per event. It never emits ANSI codes.
type PlainRenderer struct {
	mu       sync.Mutex
	out      io.Writer
	lastTag  Stage
	warnings int
	errors   int
}

// NewPlainRenderer creates a plain renderer.
func NewPlainRenderer(cfg Config) *PlainRenderer {
	return &PlainRenderer{out: cfg.Output, lastTag: -1}
}

// Start implements Renderer.
func (r *PlainRenderer) Start(ctx context.Context) error {
	return nil
}

// UpdateProgress implements Renderer. Stages without a total print once.
func (r *PlainRenderer) UpdateProgress(event ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	msg := event.Message
	if msg == "" {
		msg = event.CurrentFile
	}

	switch {
	case event.Total > 0 && msg != "":
		_, _ = fmt.Fprintf(r.out, "[%s] %d/%d %s\n", event.Stage.Tag(), event.Current, event.Total, msg)
	case event.Total > 0:
		_, _ = fmt.Fprintf(r.out, "[%s] %d/%d\n", event.Stage.Tag(), event.Current, event.Total)
	case event.Stage != r.lastTag && msg != "":
		_, _ = fmt.Fprintf(r.out, "[%s] %s\n", event.Stage.Tag(), msg)
	}
	r.lastTag = event.Stage
}

// AddError implements Renderer.
func (r *PlainRenderer) AddError(event ErrorEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prefix := "ERROR"
	if event.IsWarn {
		prefix = "WARN"
		r.warnings++
	} else {
		r.errors++
	}

	if event.File != "" {
		_, _ = fmt.Fprintf(r.out, "%s: %s: %v\n", prefix, event.File, event.Err)
		return
	}
	_, _ = fmt.Fprintf(r.out, "%s: %v\n", prefix, event.Err)
}

// Complete implements Renderer.
func (r *PlainRenderer) Complete(stats CompletionStats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if stats.Operation == "update" {
		_, _ = fmt.Fprintf(r.out, "Updated: %d added, %d updated, %d removed in %s",
			stats.Added, stats.Updated, stats.Removed, stats.Duration.Round(100*time.Millisecond))
	} else {
		_, _ = fmt.Fprintf(r.out, "Indexed: %d files, %d chunks, %d vectors in %s",
			stats.Files, stats.Chunks, stats.Vectors, stats.Duration.Round(100*time.Millisecond))
	}

	warnings, errs := max(stats.Warnings, r.warnings), max(stats.Errors, r.errors)
	if warnings > 0 || errs > 0 {
		_, _ = fmt.Fprintf(r.out, " (%d errors, %d warnings)", errs, warnings)
	}
	_, _ = fmt.Fprintln(r.out)
}

// Stop implements Renderer.
func (r *PlainRenderer) Stop() error {
	return nil
}

var _ Renderer = (*PlainRenderer)(nil)
