// Package operations runs file conversions in parallel.
//
// A batch is a slice of Task values, one per input CSV. Pool hands tasks to a
// fixed number of workers over a channel, one task per dispatch, so a handful of
// large files cannot pin a worker's backlog. Dispatch order is shuffled by default.
//
// Every task yields exactly one Result, delivered in completion order. Failures
// are per file: a malformed index, a duplicate key, a timeout or a panic marks
// that task failed and the rest of the batch carries on. Only an invalid pool
// configuration aborts before any work starts.
//
// Example usage:
//
//	proc := operations.NewFileProcessor(converter, sink, logger)
//	pool, err := operations.NewPool(operations.PoolConfig{
//		Workers:     8,
//		TaskTimeout: 10 * time.Minute,
//		Shuffle:     true,
//	}, proc, logger, instr)
//	if err != nil {
//		return err
//	}
//	summary, err := pool.Run(ctx, operations.NewTasks(paths, archive, sink.Extension()))
//
// Pool.Progress may be polled from any goroutine, e.g. by the status server.
package operations
