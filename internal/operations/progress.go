package operations

import (
	"fmt"
	"sync/atomic"
	"time"
)

// ProgressSnapshot is a point-in-time view of a running batch.
type ProgressSnapshot struct {
	Total      int     `json:"total"`
	Completed  int     `json:"completed"`
	Succeeded  int     `json:"succeeded"`
	Failed     int     `json:"failed"`
	Percentage float64 `json:"percentage"`
	Elapsed    string  `json:"elapsed"`
	ETA        string  `json:"eta"`
	Running    bool    `json:"running"`
}

// ProgressTracker counts completions with atomics so readers never block workers.
type ProgressTracker struct {
	total     atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
	startNano atomic.Int64
	running   atomic.Bool
}

// Start resets the tracker for a batch of total tasks.
func (p *ProgressTracker) Start(total int) {
	p.succeeded.Store(0)
	p.failed.Store(0)
	p.total.Store(int64(total))
	p.startNano.Store(time.Now().UnixNano())
	p.running.Store(true)
}

// Record counts one finished task.
func (p *ProgressTracker) Record(success bool) {
	if success {
		p.succeeded.Add(1)
	} else {
		p.failed.Add(1)
	}
}

// Stop marks the batch finished.
func (p *ProgressTracker) Stop() {
	p.running.Store(false)
}

// Snapshot returns the current progress.
func (p *ProgressTracker) Snapshot() ProgressSnapshot {
	total := int(p.total.Load())
	succeeded := int(p.succeeded.Load())
	failed := int(p.failed.Load())
	completed := succeeded + failed

	snap := ProgressSnapshot{
		Total:     total,
		Completed: completed,
		Succeeded: succeeded,
		Failed:    failed,
		Running:   p.running.Load(),
		ETA:       "calculating...",
	}
	if total > 0 {
		snap.Percentage = float64(completed) / float64(total) * 100
	}

	start := p.startNano.Load()
	if start == 0 {
		return snap
	}
	elapsed := time.Since(time.Unix(0, start))
	snap.Elapsed = formatDuration(elapsed)

	if completed >= total {
		snap.ETA = "done"
	} else if completed > 0 && elapsed > 0 {
		rate := float64(completed) / elapsed.Seconds()
		remaining := float64(total-completed) / rate
		snap.ETA = formatDuration(time.Duration(remaining * float64(time.Second)))
	}
	return snap
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%.0f seconds", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%.1f minutes", d.Minutes())
	default:
		return fmt.Sprintf("%.1f hours", d.Hours())
	}
}
