package engine

import (
	"context"
	"fmt"

	cgerrors "github.com/conneroisu/csvguard/internal/errors"
	"github.com/conneroisu/csvguard/internal/logging"
	"github.com/conneroisu/csvguard/internal/validator"
	"golang.org/x/sync/errgroup"
)

// workerPool runs the validator set over shards on a fixed number of
// goroutines. The set is shared read-only by every worker.
type workerPool struct {
	workers int
	set     validator.Set
	results *resultQueue
	pool    *batchPool
	logger  logging.Logger
}

// start launches the workers on g. They exit when tasks is closed and
// drained, or when ctx ends.
func (wp *workerPool) start(ctx context.Context, g *errgroup.Group, tasks <-chan shard) {
	for i := 0; i < wp.workers; i++ {
		g.Go(func() error {
			return wp.worker(ctx, tasks)
		})
	}
}

// worker is the main loop of one pool goroutine.
func (wp *workerPool) worker(ctx context.Context, tasks <-chan shard) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case task, ok := <-tasks:
			if !ok {
				return nil // Dispatcher finished
			}
			if err := wp.process(ctx, task); err != nil {
				return err
			}
		}
	}
}

// process validates one shard. The worker completing the last shard of a
// batch publishes the batch result.
func (wp *workerPool) process(ctx context.Context, task shard) (err error) {
	job := task.job
	b := job.batch

	defer func() {
		if r := recover(); r != nil {
			err = cgerrors.NewInternalError(cgerrors.ErrCodeInternalError,
				"validator panicked", fmt.Errorf("%v", r)).
				WithLine(b.First + task.lo)
		}
	}()

	var issues []validator.Issue
	for i := task.lo; i < task.hi; i++ {
		wp.set.Validate(b.Record(i), b.Line(i), &issues)
	}
	job.slots[task.index] = issues

	if !job.done() {
		return nil
	}

	result := BatchResult{
		Seq:     b.Seq,
		First:   b.First,
		Records: b.Len(),
		Issues:  job.merge(),
	}
	wp.pool.put(b)

	wp.logger.Debug(ctx, "batch validated",
		"seq", result.Seq,
		"first_line", result.First,
		"records", result.Records,
		"issues", len(result.Issues))

	return wp.results.publish(ctx, result)
}
