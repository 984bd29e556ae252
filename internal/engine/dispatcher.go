package engine

import (
	"context"
	"errors"
	"io"

	"github.com/conneroisu/csvguard/internal/logging"
	"github.com/conneroisu/csvguard/internal/record"
)

// dispatcher numbers records in read order, groups them into batches and
// hands each batch to the worker pool as shards.
type dispatcher struct {
	reader     *record.Reader
	batchSize  int
	threads    int
	skipHeader bool
	pool       *batchPool
	metrics    *metricsRecorder
	logger     logging.Logger
}

// run dispatches every record of the reader. It returns when the reader is
// exhausted, a read fails or ctx ends. The caller closes tasks.
func (d *dispatcher) run(ctx context.Context, tasks chan<- shard) error {
	line := 0
	seq := 0
	b := d.pool.get(seq)

	for {
		rec, err := d.reader.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			d.pool.put(b)
			return err
		}

		line++
		if line == 1 && d.skipHeader {
			d.metrics.recordSkipped()
			continue
		}

		if b.Len() == 0 {
			b.First = line
		}
		b.add(rec)

		if b.Len() == d.batchSize {
			if err := d.submit(ctx, b, tasks); err != nil {
				return err
			}
			seq++
			b = d.pool.get(seq)
		}
	}

	d.metrics.recordReader(d.reader.Stats())

	if b.Len() == 0 {
		d.pool.put(b)
		return nil
	}

	return d.submit(ctx, b, tasks)
}

// submit splits b into shards and sends them, blocking while the task
// channel is full.
func (d *dispatcher) submit(ctx context.Context, b *Batch, tasks chan<- shard) error {
	n := b.Len()
	shards := shardCount(n, d.threads)
	job := newBatchJob(b, shards)

	d.metrics.recordBatch()
	d.logger.Debug(ctx, "dispatching batch",
		"seq", b.Seq,
		"first_line", b.First,
		"records", n,
		"shards", shards)

	size := (n + shards - 1) / shards
	for i := 0; i < shards; i++ {
		lo := i * size
		hi := lo + size
		if hi > n {
			hi = n
		}

		select {
		case tasks <- shard{job: job, index: i, lo: lo, hi: hi}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}
