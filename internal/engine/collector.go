package engine

import (
	"context"
	"sort"

	cgerrors "github.com/conneroisu/csvguard/internal/errors"
	"github.com/conneroisu/csvguard/internal/logging"
	"github.com/conneroisu/csvguard/internal/validator"
)

// Sink receives issues as batches complete. Returning an error aborts the
// run. The slice must not be retained after the call returns.
type Sink func(issues []validator.Issue) error

// collector drains the result queue on the calling goroutine.
//
// In the default mode batch results are delivered in completion order. With
// preserveOrder, results that arrive ahead of their turn wait in pending
// until every earlier batch has been delivered.
type collector struct {
	preserveOrder bool
	sink          Sink
	metrics       *metricsRecorder
	logger        logging.Logger

	pending map[int]BatchResult
	next    int
}

func newCollector(preserveOrder bool, sink Sink, metrics *metricsRecorder, logger logging.Logger) *collector {
	return &collector{
		preserveOrder: preserveOrder,
		sink:          sink,
		metrics:       metrics,
		logger:        logger,
		pending:       make(map[int]BatchResult),
	}
}

// collect consumes results until the queue is closed. It fails if ctx ends
// first, since the results delivered so far are incomplete.
func (c *collector) collect(ctx context.Context, results <-chan BatchResult) error {
	for {
		select {
		case <-ctx.Done():
			return cgerrors.WrapCancelled(ctx.Err())
		case r, ok := <-results:
			if !ok {
				return c.flush(ctx)
			}
			if err := c.handle(ctx, r); err != nil {
				return err
			}
		}
	}
}

func (c *collector) handle(ctx context.Context, r BatchResult) error {
	if !c.preserveOrder {
		return c.emit(ctx, r)
	}

	if r.Seq != c.next {
		c.pending[r.Seq] = r
		return nil
	}

	if err := c.emit(ctx, r); err != nil {
		return err
	}
	c.next++

	for {
		queued, ok := c.pending[c.next]
		if !ok {
			return nil
		}
		delete(c.pending, c.next)
		if err := c.emit(ctx, queued); err != nil {
			return err
		}
		c.next++
	}
}

// flush delivers results still held back when the queue closes. This only
// happens when the run was aborted and a batch never arrived.
func (c *collector) flush(ctx context.Context) error {
	if len(c.pending) == 0 {
		return nil
	}

	seqs := make([]int, 0, len(c.pending))
	for seq := range c.pending {
		seqs = append(seqs, seq)
	}
	sort.Ints(seqs)

	c.logger.Debug(ctx, "flushing out of order results", "batches", len(seqs), "waiting_for", c.next)

	for _, seq := range seqs {
		if err := c.emit(ctx, c.pending[seq]); err != nil {
			return err
		}
		delete(c.pending, seq)
	}

	return nil
}

func (c *collector) emit(ctx context.Context, r BatchResult) error {
	c.metrics.recordIssues(r.Issues)
	c.logger.Debug(ctx, "batch collected",
		"seq", r.Seq,
		"records", r.Records,
		"issues", len(r.Issues))

	if len(r.Issues) == 0 || c.sink == nil {
		return nil
	}

	if err := c.sink(r.Issues); err != nil {
		return cgerrors.NewChannelError("deliver issues", err).
			WithContext("batch", r.Seq).
			WithLine(r.First)
	}

	return nil
}
