package engine

import (
	"fmt"
	"runtime"

	cgerrors "github.com/conneroisu/csvguard/internal/errors"
	"github.com/conneroisu/csvguard/internal/logging"
	"github.com/conneroisu/csvguard/internal/record"
)

const (
	// DefaultBatchSize is the number of records grouped into one batch.
	DefaultBatchSize = 100000
	// DefaultBufferSize is the reader buffer size in bytes.
	DefaultBufferSize = record.DefaultBufferSize

	// minShardRecords keeps shards of small batches from being split further
	// than is worth a task hand-off.
	minShardRecords = 256
)

// Options are fixed for the lifetime of one run.
type Options struct {
	// Threads is the number of worker goroutines.
	Threads int
	// BatchSize is the maximum number of records per batch.
	BatchSize int
	// BufferSize is the read buffer size in bytes.
	BufferSize int
	// PreserveOrder delivers issues sorted by record number, then by
	// validator configuration order. Off by default.
	PreserveOrder bool
	// ResultBuffer bounds the result queue. Zero selects an unbounded queue
	// on which workers never wait for the collector.
	ResultBuffer int
	// Quote is the quote byte used for record boundary detection.
	Quote byte
	// SkipHeader excludes record 1 from validation. It keeps its number.
	SkipHeader bool
	// Encoding is a WHATWG encoding label for the input. Empty means the
	// input is already UTF-8 (or raw bytes).
	Encoding string
	// DetectBOM lets a leading byte order mark select the input encoding.
	DetectBOM bool
	// Logger receives run diagnostics. Nil discards them.
	Logger logging.Logger
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Threads:    runtime.NumCPU(),
		BatchSize:  DefaultBatchSize,
		BufferSize: DefaultBufferSize,
		Quote:      record.DefaultQuote,
		DetectBOM:  true,
	}
}

// withDefaults fills zero values from DefaultOptions.
func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Threads == 0 {
		o.Threads = def.Threads
	}
	if o.BatchSize == 0 {
		o.BatchSize = def.BatchSize
	}
	if o.BufferSize == 0 {
		o.BufferSize = def.BufferSize
	}
	if o.Quote == 0 {
		o.Quote = def.Quote
	}
	if o.Logger == nil {
		o.Logger = logging.NewNop()
	}

	return o
}

// Validate checks option ranges after defaults are applied.
func (o Options) Validate() error {
	var errs []error
	if o.Threads < 1 {
		errs = append(errs, fmt.Errorf("threads must be at least 1, got %d", o.Threads))
	}
	if o.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("batch size must be at least 1, got %d", o.BatchSize))
	}
	if o.BufferSize < 0 {
		errs = append(errs, fmt.Errorf("buffer size cannot be negative, got %d", o.BufferSize))
	}
	if o.ResultBuffer < 0 {
		errs = append(errs, fmt.Errorf("result buffer cannot be negative, got %d", o.ResultBuffer))
	}

	if err := cgerrors.Combine(errs...); err != nil {
		return cgerrors.WrapConfig(err, cgerrors.ErrCodeConfigInvalid, "invalid engine options")
	}

	return nil
}

// shardCount splits n records into at most threads shards of at least
// minShardRecords each.
func shardCount(n, threads int) int {
	shards := (n + minShardRecords - 1) / minShardRecords
	if shards > threads {
		shards = threads
	}
	if shards < 1 {
		shards = 1
	}

	return shards
}
