// Package operations orchestrates the ingestion pipeline for one
// upload: extract, parse, aggregate, protect. Stages run in order and
// report progress through a sink; failure at any stage aborts the whole
// operation with nothing registered.
package operations

import (
	"sync"
	"time"
)

// Stage names reported in progress events.
const (
	StageExtract = "extract"
	StageParse   = "parse"
	StageEncrypt = "encrypt"
)

// ProgressEvent describes one step of a running ingest operation.
type ProgressEvent struct {
	Stage   string  `json:"stage"`
	Percent float64 `json:"percent"`
	Message string  `json:"message,omitempty"`
}

// ProgressSink receives progress events. Implementations must not
// block the pipeline for long; delivery is best-effort.
type ProgressSink interface {
	Publish(event ProgressEvent)
}

// NopSink discards events.
type NopSink struct{}

// Publish implements ProgressSink.
func (NopSink) Publish(ProgressEvent) {}

// Tracker converts completed-step counts into monotonic percentages
// for a single stage.
type Tracker struct {
	stage     string
	total     int
	current   int
	startTime time.Time
	mu        sync.Mutex
}

// NewTracker creates a tracker for a stage with the given step total.
func NewTracker(stage string, total int) *Tracker {
	return &Tracker{
		stage:     stage,
		total:     total,
		startTime: time.Now(),
	}
}

// Increment marks one more step complete.
func (t *Tracker) Increment() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current++
}

// Set moves the tracker to an absolute step count. Counts never move
// backwards.
func (t *Tracker) Set(current int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if current > t.current {
		t.current = current
	}
}

// Percent returns the completion percentage in [0, 100]. It reaches
// exactly 100 only when every step is complete.
func (t *Tracker) Percent() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.total == 0 {
		return 100
	}
	return float64(t.current) / float64(t.total) * 100
}

// Event builds a progress event for the tracker's current state.
func (t *Tracker) Event(message string) ProgressEvent {
	return ProgressEvent{
		Stage:   t.stage,
		Percent: t.Percent(),
		Message: message,
	}
}

// Elapsed returns the time since the tracker started.
func (t *Tracker) Elapsed() time.Duration {
	return time.Since(t.startTime)
}
