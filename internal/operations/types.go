package operations

import (
	"os"
	"time"

	"hvexport/internal/dataprocessing"
	"hvexport/internal/dialect"
	"hvexport/internal/infrastructure"
)

// Task is one file conversion: an input CSV and the path its normalized output goes to.
type Task struct {
	ID         string
	InputPath  string
	OutputPath string
	Archive    dialect.ArchiveType
	// Size is the input's size in bytes when the task was built.
	Size int64
}

// NewTasks builds one task per input, deriving each output path from ext.
func NewTasks(inputs []string, archive dialect.ArchiveType, ext string) []Task {
	tasks := make([]Task, 0, len(inputs))
	for _, in := range inputs {
		var size int64
		if info, err := os.Stat(in); err == nil {
			size = info.Size()
		}
		tasks = append(tasks, Task{
			ID:         infrastructure.GenerateTraceID(),
			InputPath:  in,
			OutputPath: dialect.OutputPath(in, ext),
			Archive:    archive,
			Size:       size,
		})
	}
	return tasks
}

// Outcome is what a Processor reports for a converted file.
type Outcome struct {
	Rows  int
	Shape dataprocessing.Shape
}

// Result is the per-file record a Pool emits, in completion order.
type Result struct {
	Task     Task
	Outcome  Outcome
	Err      error
	Duration time.Duration
	// Worker is the 1-based worker that ran the task; 0 if it was never dispatched.
	Worker int
}

// Succeeded reports whether the file was converted and written.
func (r Result) Succeeded() bool {
	return r.Err == nil
}

// Summary aggregates a batch.
type Summary struct {
	BatchID   string
	Total     int
	Succeeded int
	Failed    int
	Duration  time.Duration
	// Results are in completion order.
	Results []Result
}

// Failures returns the failed results.
func (s *Summary) Failures() []Result {
	var out []Result
	for _, r := range s.Results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

// AllSucceeded is true when every task converted.
func (s *Summary) AllSucceeded() bool {
	return s.Failed == 0 && s.Succeeded == s.Total
}
