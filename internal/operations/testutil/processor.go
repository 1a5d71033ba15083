// Package testutil provides fakes for exercising the operations pool.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"hvexport/internal/operations"
)

// RecordingProcessor runs Fn for every task and records call order and peak concurrency.
// A nil Fn succeeds with one row.
type RecordingProcessor struct {
	Fn func(ctx context.Context, task operations.Task) (operations.Outcome, error)

	mu       sync.Mutex
	calls    []string
	inFlight atomic.Int32
	peak     atomic.Int32
}

// Process implements operations.Processor.
func (r *RecordingProcessor) Process(ctx context.Context, task operations.Task) (operations.Outcome, error) {
	r.mu.Lock()
	r.calls = append(r.calls, task.InputPath)
	r.mu.Unlock()

	n := r.inFlight.Add(1)
	defer r.inFlight.Add(-1)
	for {
		p := r.peak.Load()
		if n <= p || r.peak.CompareAndSwap(p, n) {
			break
		}
	}

	if r.Fn == nil {
		return operations.Outcome{Rows: 1}, nil
	}
	return r.Fn(ctx, task)
}

// Calls returns the input paths in the order processing started.
func (r *RecordingProcessor) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// Peak returns the highest number of concurrent Process calls observed.
func (r *RecordingProcessor) Peak() int {
	return int(r.peak.Load())
}

// Tasks returns n tasks named file-00.csv, file-01.csv, ...
func Tasks(n int) []operations.Task {
	tasks := make([]operations.Task, n)
	for i := range tasks {
		name := fmt.Sprintf("file-%02d.csv", i)
		tasks[i] = operations.Task{ID: name, InputPath: name, OutputPath: name + ".xlsx"}
	}
	return tasks
}

// Paths extracts the input paths of results.
func Paths(results []operations.Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Task.InputPath
	}
	return out
}
