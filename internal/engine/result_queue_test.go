package engine

import (
	"context"
	"testing"
	"time"

	cgerrors "github.com/conneroisu/csvguard/internal/errors"
	"github.com/conneroisu/csvguard/internal/logging"
	"github.com/conneroisu/csvguard/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnboundedQueueNeverBlocksPublishers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := newResultQueue(ctx, 0)

	published := make(chan struct{})
	go func() {
		defer close(published)
		for i := 0; i < 1000; i++ {
			assert.NoError(t, q.publish(ctx, BatchResult{Seq: i}))
		}
	}()

	select {
	case <-published:
	case <-time.After(5 * time.Second):
		t.Fatal("publishers blocked on an unbounded queue")
	}

	q.close()

	seq := 0
	for r := range q.results() {
		assert.Equal(t, seq, r.Seq)
		seq++
	}
	assert.Equal(t, 1000, seq)
}

func TestBoundedQueueAppliesBackpressure(t *testing.T) {
	q := newResultQueue(context.Background(), 2)

	require.NoError(t, q.publish(context.Background(), BatchResult{Seq: 0}))
	require.NoError(t, q.publish(context.Background(), BatchResult{Seq: 1}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := q.publish(ctx, BatchResult{Seq: 2})
	require.Error(t, err)
	assert.ErrorIs(t, err, cgerrors.ErrResultChannel)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPublishAfterClose(t *testing.T) {
	q := newResultQueue(context.Background(), 1)
	q.close()
	q.close()

	err := q.publish(context.Background(), BatchResult{})
	assert.ErrorIs(t, err, cgerrors.ErrResultChannel)
}

func TestRelayStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := newResultQueue(ctx, 0)
	require.NoError(t, q.publish(ctx, BatchResult{Seq: 0}))

	cancel()

	select {
	case <-drain(q.results()):
	case <-time.After(5 * time.Second):
		t.Fatal("relay kept running after cancellation")
	}
}

func drain(ch <-chan BatchResult) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range ch {
		}
	}()
	return done
}

func issueAt(line int) validator.Issue {
	return validator.Issue{Validator: "v", Line: line, Position: validator.NoPosition, Message: "m"}
}

func TestCollectorReordersBatches(t *testing.T) {
	var got []int
	c := newCollector(true, func(issues []validator.Issue) error {
		for _, i := range issues {
			got = append(got, i.Line)
		}
		return nil
	}, newMetricsRecorder(1), logging.NewNop())

	results := make(chan BatchResult, 5)
	for _, seq := range []int{2, 0, 4, 1, 3} {
		results <- BatchResult{Seq: seq, Issues: []validator.Issue{issueAt(seq + 1)}}
	}
	close(results)

	require.NoError(t, c.collect(context.Background(), results))
	assert.Equal(t, []int{1, 2, 3, 4, 5}, got)
	assert.Empty(t, c.pending)
}

func TestCollectorFlushesGaps(t *testing.T) {
	var got []int
	c := newCollector(true, func(issues []validator.Issue) error {
		got = append(got, issues[0].Line)
		return nil
	}, newMetricsRecorder(1), logging.NewNop())

	results := make(chan BatchResult, 2)
	results <- BatchResult{Seq: 3, Issues: []validator.Issue{issueAt(4)}}
	results <- BatchResult{Seq: 1, Issues: []validator.Issue{issueAt(2)}}
	close(results)

	require.NoError(t, c.collect(context.Background(), results))
	assert.Equal(t, []int{2, 4}, got)
}

func TestCollectorUnorderedPassThrough(t *testing.T) {
	var got []int
	metrics := newMetricsRecorder(1)
	c := newCollector(false, func(issues []validator.Issue) error {
		got = append(got, issues[0].Line)
		return nil
	}, metrics, logging.NewNop())

	results := make(chan BatchResult, 3)
	results <- BatchResult{Seq: 2, Issues: []validator.Issue{issueAt(3)}}
	results <- BatchResult{Seq: 0}
	results <- BatchResult{Seq: 1, Issues: []validator.Issue{issueAt(2)}}
	close(results)

	require.NoError(t, c.collect(context.Background(), results))
	assert.Equal(t, []int{3, 2}, got)
	assert.Equal(t, int64(2), metrics.snapshot().Issues)
}

func TestCollectorCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newCollector(false, nil, newMetricsRecorder(1), logging.NewNop())
	err := c.collect(ctx, make(chan BatchResult))
	assert.True(t, cgerrors.IsCancelled(err))
}

func TestBatchRecords(t *testing.T) {
	pool := newBatchPool()
	b := pool.get(4)
	b.First = 10
	b.add([]byte("one"))
	b.add(nil)
	b.add([]byte("three"))

	require.Equal(t, 3, b.Len())
	assert.Equal(t, 4, b.Seq)
	assert.Equal(t, "one", string(b.Record(0)))
	assert.Empty(t, b.Record(1))
	assert.Equal(t, "three", string(b.Record(2)))
	assert.Equal(t, 12, b.Line(2))

	pool.put(b)
	reused := pool.get(5)
	assert.Equal(t, 0, reused.Len())
	assert.Equal(t, 5, reused.Seq)
}

func TestBatchJobMergeKeepsShardOrder(t *testing.T) {
	job := newBatchJob(&Batch{}, 3)
	job.slots[0] = []validator.Issue{issueAt(1)}
	job.slots[2] = []validator.Issue{issueAt(5), issueAt(6)}

	assert.False(t, job.done())
	assert.False(t, job.done())
	assert.True(t, job.done())

	merged := job.merge()
	require.Len(t, merged, 3)
	assert.Equal(t, []int{1, 5, 6}, []int{merged[0].Line, merged[1].Line, merged[2].Line})
}
