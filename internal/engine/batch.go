package engine

import (
	"sync"
	"sync/atomic"

	"github.com/conneroisu/csvguard/internal/validator"
)

// Batch is a group of consecutively numbered records. Record bytes are
// copied into one backing array so a batch costs two allocations however
// many records it holds.
type Batch struct {
	// Seq is the 0-based dispatch order of the batch.
	Seq int
	// First is the record number of the first record.
	First int

	data []byte
	ends []int
}

// Len returns the number of records in the batch.
func (b *Batch) Len() int {
	return len(b.ends)
}

// Record returns record i. The slice aliases the batch storage.
func (b *Batch) Record(i int) []byte {
	start := 0
	if i > 0 {
		start = b.ends[i-1]
	}

	return b.data[start:b.ends[i]:b.ends[i]]
}

// Line returns the record number of record i.
func (b *Batch) Line(i int) int {
	return b.First + i
}

func (b *Batch) add(rec []byte) {
	b.data = append(b.data, rec...)
	b.ends = append(b.ends, len(b.data))
}

func (b *Batch) reset() {
	b.Seq = 0
	b.First = 0
	b.data = b.data[:0]
	b.ends = b.ends[:0]
}

// BatchResult is the single message a batch produces on the result queue.
type BatchResult struct {
	Seq     int
	First   int
	Records int
	Issues  []validator.Issue
}

// batchJob tracks the shards of one dispatched batch. Each shard owns one
// slot; the worker that finishes the last shard publishes the result.
type batchJob struct {
	batch   *Batch
	slots   [][]validator.Issue
	pending atomic.Int32
}

func newBatchJob(b *Batch, shards int) *batchJob {
	job := &batchJob{
		batch: b,
		slots: make([][]validator.Issue, shards),
	}
	job.pending.Store(int32(shards))

	return job
}

// done marks one shard finished and reports whether it was the last.
func (j *batchJob) done() bool {
	return j.pending.Add(-1) == 0
}

// merge concatenates shard slots in shard order.
func (j *batchJob) merge() []validator.Issue {
	if len(j.slots) == 1 {
		return j.slots[0]
	}

	total := 0
	for _, s := range j.slots {
		total += len(s)
	}
	if total == 0 {
		return nil
	}

	issues := make([]validator.Issue, 0, total)
	for _, s := range j.slots {
		issues = append(issues, s...)
	}

	return issues
}

// shard is one task: records [lo, hi) of a batch.
type shard struct {
	job   *batchJob
	index int
	lo    int
	hi    int
}

// batchPool recycles batch storage between runs and batches.
type batchPool struct {
	batches sync.Pool
	// maxData caps the backing array kept for reuse.
	maxData int
}

func newBatchPool() *batchPool {
	return &batchPool{
		batches: sync.Pool{
			New: func() interface{} {
				return &Batch{}
			},
		},
		maxData: 64 * 1024 * 1024,
	}
}

// get returns an empty batch tagged with seq.
func (p *batchPool) get(seq int) *Batch {
	b := p.batches.Get().(*Batch)
	b.reset()
	b.Seq = seq

	return b
}

// put returns b for reuse. Oversized batches are dropped.
func (p *batchPool) put(b *Batch) {
	if b == nil || cap(b.data) > p.maxData {
		return
	}
	p.batches.Put(b)
}
