// Package engine runs a validator set over a delimited text stream.
//
// A run has three stages. The dispatcher reads logical records on a
// producer goroutine, numbers them and groups them into batches. A fixed
// pool of workers validates batches in shards, publishing one result per
// batch. The collector drains the results on the calling goroutine and hands
// issues to a sink. Batches are validated concurrently and complete in any
// order; Options.PreserveOrder restores record order at the collector.
package engine

import (
	"context"
	"errors"
	"io"

	cgerrors "github.com/conneroisu/csvguard/internal/errors"
	"github.com/conneroisu/csvguard/internal/input"
	"github.com/conneroisu/csvguard/internal/logging"
	"github.com/conneroisu/csvguard/internal/record"
	"github.com/conneroisu/csvguard/internal/validator"
	"golang.org/x/sync/errgroup"
)

// Report is the full result of a run.
type Report struct {
	Issues  []validator.Issue `json:"issues" yaml:"issues"`
	Metrics Metrics           `json:"metrics" yaml:"metrics"`
}

// Engine validates streams with a fixed validator set and options. It holds
// no per-run state and may run several streams concurrently.
type Engine struct {
	set    validator.Set
	opts   Options
	logger logging.Logger
	pool   *batchPool
}

// New creates an engine. Zero option values take their defaults.
func New(set validator.Set, opts Options) (*Engine, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if set.Len() == 0 {
		return nil, cgerrors.NewConfigError(cgerrors.ErrCodeConfigInvalid, "no validators configured")
	}

	return &Engine{
		set:    set,
		opts:   opts,
		logger: opts.Logger.WithComponent("engine"),
		pool:   newBatchPool(),
	}, nil
}

// Options returns the effective options.
func (e *Engine) Options() Options {
	return e.opts
}

// ValidateFile validates the file at path ("-" reads standard input).
func (e *Engine) ValidateFile(ctx context.Context, path string) (*Report, error) {
	rc, err := input.Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	report, err := e.Validate(ctx, rc)
	if err != nil {
		return nil, withPath(err, input.Name(path))
	}

	return report, nil
}

// Validate validates r and collects every issue into a Report.
func (e *Engine) Validate(ctx context.Context, r io.Reader) (*Report, error) {
	var issues []validator.Issue
	metrics, err := e.Stream(ctx, r, func(batch []validator.Issue) error {
		issues = append(issues, batch...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Report{Issues: issues, Metrics: *metrics}, nil
}

// Stream validates r and passes issues to sink as batches complete.
func (e *Engine) Stream(ctx context.Context, r io.Reader, sink Sink) (*Metrics, error) {
	src, err := input.Decode(r, e.opts.Encoding, e.opts.DetectBOM)
	if err != nil {
		return nil, err
	}

	perf := logging.StartOperation(e.logger, "validate")
	metrics, err := e.run(ctx, src, sink)
	if err != nil {
		perf.EndWithError(ctx, err)
		return nil, err
	}
	perf.End(ctx,
		"records", metrics.Records,
		"batches", metrics.Batches,
		"issues", metrics.Issues)

	return metrics, nil
}

func (e *Engine) run(parent context.Context, src io.Reader, sink Sink) (*Metrics, error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	opts := e.opts
	metrics := newMetricsRecorder(opts.Threads)

	e.logger.Info(ctx, "run started",
		"threads", opts.Threads,
		"batch_size", opts.BatchSize,
		"preserve_order", opts.PreserveOrder,
		"result_buffer", opts.ResultBuffer,
		"validators", e.set.Names())

	g, gctx := errgroup.WithContext(ctx)
	tasks := make(chan shard, 2*opts.Threads)
	results := newResultQueue(ctx, opts.ResultBuffer)

	d := &dispatcher{
		reader: record.NewReader(src,
			record.WithBufferSize(opts.BufferSize),
			record.WithQuote(opts.Quote)),
		batchSize:  opts.BatchSize,
		threads:    opts.Threads,
		skipHeader: opts.SkipHeader,
		pool:       e.pool,
		metrics:    metrics,
		logger:     e.logger,
	}
	g.Go(func() error {
		defer close(tasks)
		return d.run(gctx, tasks)
	})

	wp := &workerPool{
		workers: opts.Threads,
		set:     e.set,
		results: results,
		pool:    e.pool,
		logger:  e.logger,
	}
	wp.start(gctx, g, tasks)

	waitErr := make(chan error, 1)
	go func() {
		err := g.Wait()
		results.close()
		waitErr <- err
	}()

	c := newCollector(opts.PreserveOrder, sink, metrics, e.logger)
	collectErr := c.collect(ctx, results.results())
	if collectErr != nil {
		cancel()
	}
	runErr := <-waitErr

	if collectErr != nil {
		return nil, collectErr
	}
	if runErr != nil {
		if parent.Err() != nil {
			return nil, cgerrors.WrapCancelled(parent.Err())
		}
		return nil, runErr
	}

	snapshot := metrics.snapshot()
	e.logger.Info(ctx, "run finished",
		"records", snapshot.Records,
		"physical_lines", snapshot.PhysicalLines,
		"issues", snapshot.Issues,
		"duration", snapshot.Duration)

	return &snapshot, nil
}

func withPath(err error, path string) error {
	var ce *cgerrors.CSVGuardError
	if errors.As(err, &ce) && ce.Path == "" {
		ce.WithPath(path)
	}

	return err
}

// Validate validates r with set and opts.
func Validate(ctx context.Context, r io.Reader, set validator.Set, opts Options) (*Report, error) {
	e, err := New(set, opts)
	if err != nil {
		return nil, err
	}

	return e.Validate(ctx, r)
}

// ValidateFile validates the file at path with set and opts.
func ValidateFile(ctx context.Context, path string, set validator.Set, opts Options) (*Report, error) {
	e, err := New(set, opts)
	if err != nil {
		return nil, err
	}

	return e.ValidateFile(ctx, path)
}

// Stream validates r with set and opts, passing issues to sink.
func Stream(ctx context.Context, r io.Reader, set validator.Set, opts Options, sink Sink) (*Metrics, error) {
	e, err := New(set, opts)
	if err != nil {
		return nil, err
	}

	return e.Stream(ctx, r, sink)
}
