package engine

import (
	"context"
	"sync"

	cgerrors "github.com/conneroisu/csvguard/internal/errors"
)

// resultQueue carries batch results from the workers to the collector.
//
// With a positive capacity it is a buffered channel and a full queue blocks
// publishing workers. With zero capacity a relay goroutine holds results in
// a growing mailbox so workers never wait for the collector.
type resultQueue struct {
	in  chan BatchResult
	out <-chan BatchResult

	// mu orders publishes against close
	mu     sync.RWMutex
	closed bool
}

// newResultQueue creates the queue. The relay of an unbounded queue stops
// when ctx is cancelled.
func newResultQueue(ctx context.Context, capacity int) *resultQueue {
	if capacity > 0 {
		ch := make(chan BatchResult, capacity)

		return &resultQueue{in: ch, out: ch}
	}

	in := make(chan BatchResult)
	out := make(chan BatchResult)
	go relay(ctx, in, out)

	return &resultQueue{in: in, out: out}
}

// relay forwards results from in to out in arrival order, buffering
// without bound. out is closed once in is closed and drained.
func relay(ctx context.Context, in <-chan BatchResult, out chan<- BatchResult) {
	defer close(out)

	var pending []BatchResult
	for in != nil || len(pending) > 0 {
		var (
			send chan<- BatchResult
			next BatchResult
		)
		if len(pending) > 0 {
			send = out
			next = pending[0]
		}

		select {
		case r, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			pending = append(pending, r)
		case send <- next:
			pending[0] = BatchResult{}
			pending = pending[1:]
		case <-ctx.Done():
			return
		}
	}
}

// publish delivers r. It fails with a channel error when the queue is
// closed or ctx ends before delivery.
func (q *resultQueue) publish(ctx context.Context, r BatchResult) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return cgerrors.NewChannelError("result queue closed", nil).
			WithContext("batch", r.Seq)
	}

	select {
	case q.in <- r:
		return nil
	case <-ctx.Done():
		return cgerrors.NewChannelError("publish batch result", ctx.Err()).
			WithContext("batch", r.Seq)
	}
}

// results returns the receiving end read by the collector.
func (q *resultQueue) results() <-chan BatchResult {
	return q.out
}

// close signals that no more results will be published.
func (q *resultQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.in)
	}
}
