package ui

import (
	"sync"
	"time"
)

// Tracker accumulates progress events for the TUI.
type Tracker struct {
	mu        sync.RWMutex
	stage     Stage
	current   int
	total     int
	file      string
	message   string
	started   time.Time
	stageFrom time.Time
	warnings  int
	errors    int
	lastErr   *ErrorEvent
}

// TrackerStats is a point-in-time copy of a Tracker.
type TrackerStats struct {
	Stage    Stage
	Current  int
	Total    int
	File     string
	Message  string
	Progress float64 // 0..1, 0 when the total is unknown
	Elapsed  time.Duration
	Rate     float64 // items per second in the current stage
	Warnings int
	Errors   int
	LastErr  *ErrorEvent
}

// NewTracker creates a tracker at StageScanning.
func NewTracker() *Tracker {
	now := time.Now()
	return &Tracker{started: now, stageFrom: now}
}

// Apply records an event. Entering a new stage resets the counters.
func (t *Tracker) Apply(event ProgressEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if event.Stage != t.stage {
		t.stage = event.Stage
		t.stageFrom = time.Now()
		t.current, t.total = 0, 0
		t.file, t.message = "", ""
	}
	if event.Current > t.current {
		t.current = event.Current
	}
	if event.Total > 0 {
		t.total = event.Total
	}
	if event.CurrentFile != "" {
		t.file = event.CurrentFile
	}
	if event.Message != "" {
		t.message = event.Message
	}
}

// AddError records a warning or error.
func (t *Tracker) AddError(event ErrorEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if event.IsWarn {
		t.warnings++
	} else {
		t.errors++
	}
	t.lastErr = &event
}

// Stats returns a copy of the tracked state.
func (t *Tracker) Stats() TrackerStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	st := TrackerStats{
		Stage:    t.stage,
		Current:  t.current,
		Total:    t.total,
		File:     t.file,
		Message:  t.message,
		Elapsed:  time.Since(t.started),
		Warnings: t.warnings,
		Errors:   t.errors,
		LastErr:  t.lastErr,
	}
	if t.total > 0 {
		st.Progress = min(float64(t.current)/float64(t.total), 1)
	}
	if secs := time.Since(t.stageFrom).Seconds(); secs > 0 {
		st.Rate = float64(t.current) / secs
	}
	return st
}
