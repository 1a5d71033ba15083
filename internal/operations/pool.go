package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	apperrors "hvexport/internal/errors"
	"hvexport/internal/infrastructure"
)

// DefaultProgressInterval throttles the periodic progress log line.
const DefaultProgressInterval = 5 * time.Second

// PoolConfig configures a Pool.
type PoolConfig struct {
	// Workers is the number of concurrent conversions; 0 means runtime.NumCPU().
	Workers int
	// TaskTimeout bounds a single task; 0 disables it.
	TaskTimeout time.Duration
	// Shuffle randomizes dispatch order to spread large files across workers.
	Shuffle bool
	// Seed fixes the shuffle; 0 picks a random seed.
	Seed uint64
	// RemoveInputs deletes each input after its task has succeeded. A task that
	// failed, timed out or was cancelled keeps its input.
	RemoveInputs bool
	// ProgressInterval is the minimum gap between progress log lines.
	ProgressInterval time.Duration
	// OnResult, if set, is called from a single goroutine as each task completes.
	OnResult func(Result)
}

// Pool converts a batch of files with a fixed set of workers. One failing file
// never affects the others.
type Pool struct {
	cfg       PoolConfig
	workers   int
	processor Processor
	logger    *slog.Logger
	instr     *Instrumentation
	progress  ProgressTracker
}

// NewPool validates cfg and creates a pool. instr may be nil.
func NewPool(cfg PoolConfig, processor Processor, logger *slog.Logger, instr *Instrumentation) (*Pool, error) {
	workers := cfg.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}
	if workers < 1 {
		return nil, apperrors.NewPoolConstructionError(fmt.Sprintf("worker count must be positive, got %d", workers), nil).
			WithContext("workers", workers)
	}
	if processor == nil {
		return nil, apperrors.NewPoolConstructionError("processor is required", nil)
	}
	if cfg.TaskTimeout < 0 {
		return nil, apperrors.NewPoolConstructionError(fmt.Sprintf("task timeout must not be negative, got %s", cfg.TaskTimeout), nil)
	}
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = DefaultProgressInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		cfg:       cfg,
		workers:   workers,
		processor: processor,
		logger:    logger.With(slog.String("component", "pool")),
		instr:     instr,
	}, nil
}

// Workers returns the resolved worker count.
func (p *Pool) Workers() int {
	return p.workers
}

// Progress returns the current batch progress. Safe to call from any goroutine.
func (p *Pool) Progress() ProgressSnapshot {
	return p.progress.Snapshot()
}

// Run converts every task and returns once all have a Result. Results arrive in
// completion order. When ctx is cancelled, tasks not yet started are reported
// with a CancelledError and Run returns that error alongside the summary.
func (p *Pool) Run(ctx context.Context, tasks []Task) (*Summary, error) {
	ctx = infrastructure.EnsureTraceID(ctx)
	batchID := infrastructure.GetTraceID(ctx)
	start := time.Now()

	order := p.dispatchOrder(tasks)
	p.progress.Start(len(order))
	defer p.progress.Stop()

	p.logger.InfoContext(ctx, "batch started",
		slog.Int("files", len(order)),
		slog.Int("workers", p.workers),
		slog.Duration("task_timeout", p.cfg.TaskTimeout))

	queue := make(chan Task)
	results := make(chan Result, len(order))

	var g errgroup.Group
	g.Go(func() error {
		defer close(queue)
		for i, task := range order {
			select {
			case queue <- task:
			case <-ctx.Done():
				for _, skipped := range order[i:] {
					results <- Result{
						Task: skipped,
						Err:  apperrors.NewCancelledError(apperrors.StagePool, ctx.Err()).WithPath(skipped.InputPath),
					}
				}
				return nil
			}
		}
		return nil
	})
	for w := 0; w < p.workers; w++ {
		g.Go(func() error {
			for task := range queue {
				res := p.runTask(ctx, task)
				res.Worker = w + 1
				results <- res
			}
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(results)
	}()

	summary := &Summary{
		BatchID: batchID,
		Total:   len(order),
		Results: make([]Result, 0, len(order)),
	}
	progressLog := rate.Sometimes{Interval: p.cfg.ProgressInterval}
	for res := range results {
		if res.Err == nil && p.cfg.RemoveInputs {
			res.Err = removeInput(res.Task)
		}
		summary.Results = append(summary.Results, res)
		if res.Err == nil {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
		p.progress.Record(res.Err == nil)
		p.logResult(ctx, res)
		if p.cfg.OnResult != nil {
			p.cfg.OnResult(res)
		}
		progressLog.Do(func() {
			snap := p.progress.Snapshot()
			p.logger.InfoContext(ctx, "batch progress",
				slog.Int("completed", snap.Completed),
				slog.Int("total", snap.Total),
				slog.Float64("percent", snap.Percentage),
				slog.String("eta", snap.ETA))
		})
	}
	summary.Duration = time.Since(start)

	p.logger.InfoContext(ctx, "batch finished",
		slog.Int("total", summary.Total),
		slog.Int("succeeded", summary.Succeeded),
		slog.Int("failed", summary.Failed),
		slog.Duration("duration", summary.Duration))

	if err := ctx.Err(); err != nil {
		return summary, apperrors.NewCancelledError(apperrors.StagePool, err)
	}
	return summary, nil
}

func (p *Pool) dispatchOrder(tasks []Task) []Task {
	order := make([]Task, len(tasks))
	copy(order, tasks)
	if !p.cfg.Shuffle {
		return order
	}
	seed := p.cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed))
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	return order
}

type taskOutcome struct {
	outcome Outcome
	err     error
}

// runTask converts one file, enforcing the task timeout even when the processor
// does not observe its context.
func (p *Pool) runTask(ctx context.Context, task Task) Result {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return Result{
			Task: task,
			Err:  apperrors.NewCancelledError(apperrors.StagePool, err).WithPath(task.InputPath),
		}
	}

	spanCtx, span := p.instr.StartFile(ctx, task)
	taskCtx := spanCtx
	cancel := context.CancelFunc(func() {})
	if p.cfg.TaskTimeout > 0 {
		taskCtx, cancel = context.WithTimeout(spanCtx, p.cfg.TaskTimeout)
	}
	defer cancel()

	done := make(chan taskOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- taskOutcome{err: apperrors.NewAppError(apperrors.ErrTypeTransform, apperrors.StagePool,
					fmt.Sprintf("panic during conversion: %v", r), nil)}
			}
		}()
		out, err := p.processor.Process(taskCtx, task)
		done <- taskOutcome{outcome: out, err: err}
	}()

	var res Result
	select {
	case o := <-done:
		res = Result{Task: task, Outcome: o.outcome, Err: o.err}
	case <-taskCtx.Done():
		select {
		case o := <-done:
			res = Result{Task: task, Outcome: o.outcome, Err: o.err}
		default:
			res = Result{Task: task, Err: taskCtx.Err()}
		}
	}
	res.Err = p.classify(ctx, task, res.Err)
	res.Duration = time.Since(start)

	p.instr.FinishFile(spanCtx, span, res)
	return res
}

// classify maps context expiry onto Timeout or Cancelled and attributes the error to the input.
func (p *Pool) classify(parent context.Context, task Task, err error) error {
	if err == nil {
		return nil
	}
	if isContextErr(err) {
		stage := apperrors.StageOf(err)
		if parent.Err() != nil {
			if stage == "" {
				stage = apperrors.StagePool
			}
			return apperrors.NewCancelledError(stage, err).WithPath(task.InputPath)
		}
		if stage == "" {
			stage = apperrors.StageTransform
		}
		return apperrors.NewTimeoutError(stage, err).
			WithPath(task.InputPath).
			WithContext("timeout", p.cfg.TaskTimeout.String())
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Path == "" {
			appErr.WithPath(task.InputPath)
		}
		return err
	}
	return fmt.Errorf("%s: %w", task.InputPath, err)
}

// removeInput runs on the collector goroutine, so only a result that is already
// final and successful can delete its input.
func removeInput(task Task) error {
	if err := os.Remove(task.InputPath); err != nil {
		return apperrors.NewStorageError(apperrors.StageWrite, "remove converted input", err).WithPath(task.InputPath)
	}
	return nil
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (p *Pool) logResult(ctx context.Context, res Result) {
	if res.Err == nil {
		p.logger.DebugContext(ctx, "file converted",
			slog.String("path", res.Task.InputPath),
			slog.String("output", res.Task.OutputPath),
			slog.Int64("size_bytes", res.Task.Size),
			slog.Int("rows", res.Outcome.Rows),
			slog.Int("worker", res.Worker),
			slog.Duration("duration", res.Duration))
		return
	}
	p.logger.ErrorContext(ctx, "file failed",
		slog.String("path", res.Task.InputPath),
		slog.Int("worker", res.Worker),
		slog.String("stage", apperrors.StageOf(res.Err)),
		slog.String("error_type", string(apperrors.TypeOf(res.Err))),
		slog.String("error", res.Err.Error()))
}
