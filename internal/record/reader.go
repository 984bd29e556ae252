// Package record splits a byte stream into logical records.
//
// A logical record is one or more physical lines: a line feed only ends a
// record when the number of quote bytes seen since the record started is
// even. Quote bytes are counted per physical line as it is read, so the cost
// of a record is proportional to its own length however many lines it spans.
// The reader never loads the whole stream; a physical line longer than the
// read buffer is accumulated across buffer refills.
package record

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"

	cgerrors "github.com/conneroisu/csvguard/internal/errors"
)

const (
	// DefaultBufferSize is the read buffer size used when none is given.
	DefaultBufferSize = 8 * 1024 * 1024
	// DefaultQuote is the quote byte used for parity tracking.
	DefaultQuote = '"'

	minBufferSize     = 16
	initialRecordSize = 1024
)

// Reader yields logical records from an underlying byte stream.
//
// A Reader is not safe for concurrent use; it is owned by the producer
// goroutine of a run.
type Reader struct {
	src   *bufio.Reader
	quote []byte
	crlf  bool

	buf  []byte
	done bool

	lines   int64
	bytes   int64
	records int64
}

// Option configures a Reader.
type Option func(*readerConfig)

type readerConfig struct {
	bufferSize int
	quote      byte
	crlf       bool
}

// WithBufferSize sets the read buffer size in bytes. Values below 16 are raised to 16.
func WithBufferSize(n int) Option {
	return func(c *readerConfig) {
		c.bufferSize = n
	}
}

// WithQuote sets the quote byte whose parity decides record boundaries.
func WithQuote(q byte) Option {
	return func(c *readerConfig) {
		if q != 0 {
			c.quote = q
		}
	}
}

// WithCRLF controls whether a carriage return directly before the closing
// line feed is treated as part of the terminator. Enabled by default.
func WithCRLF(enabled bool) Option {
	return func(c *readerConfig) {
		c.crlf = enabled
	}
}

// NewReader wraps r. It panics if r is nil.
func NewReader(r io.Reader, opts ...Option) *Reader {
	if r == nil {
		panic("record: reader source cannot be nil")
	}

	cfg := readerConfig{
		bufferSize: DefaultBufferSize,
		quote:      DefaultQuote,
		crlf:       true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.bufferSize < minBufferSize {
		cfg.bufferSize = minBufferSize
	}

	return &Reader{
		src:   bufio.NewReaderSize(r, cfg.bufferSize),
		quote: []byte{cfg.quote},
		crlf:  cfg.crlf,
		buf:   make([]byte, 0, initialRecordSize),
	}
}

// Next returns the next logical record without its trailing terminator.
//
// The returned slice is only valid until the following call to Next; callers
// that keep records must copy them. io.EOF is returned once the stream is
// exhausted and no partial record is pending. If the stream ends inside an
// open quote, the accumulated bytes are returned unchanged as a final record.
// ctx is checked before every physical line read.
func (r *Reader) Next(ctx context.Context) ([]byte, error) {
	if r.done {
		return nil, io.EOF
	}

	done := ctx.Done()
	r.buf = r.buf[:0]
	quotes := 0

	for {
		select {
		case <-done:
			return nil, ctx.Err()
		default:
		}

		chunk, err := r.src.ReadSlice('\n')
		if len(chunk) > 0 {
			r.buf = append(r.buf, chunk...)
			r.bytes += int64(len(chunk))
			quotes += bytes.Count(chunk, r.quote)
		}

		switch {
		case err == nil:
			r.lines++
			if quotes%2 == 0 {
				r.records++
				return r.trimTerminator(), nil
			}
		case errors.Is(err, bufio.ErrBufferFull):
			// Line continues past the buffer; keep accumulating.
		case errors.Is(err, io.EOF):
			r.done = true
			if len(chunk) > 0 {
				r.lines++
			}
			if len(r.buf) == 0 {
				return nil, io.EOF
			}
			r.records++
			return r.buf, nil
		default:
			r.done = true
			return nil, cgerrors.NewIOError(cgerrors.ErrCodeReadFailed, "read input", err).
				WithLine(int(r.records) + 1)
		}
	}
}

func (r *Reader) trimTerminator() []byte {
	rec := r.buf
	if n := len(rec); n > 0 && rec[n-1] == '\n' {
		rec = rec[:n-1]
		if r.crlf {
			if n := len(rec); n > 0 && rec[n-1] == '\r' {
				rec = rec[:n-1]
			}
		}
	}

	return rec
}

// ReadAll drains the reader, returning copies of every remaining record.
func (r *Reader) ReadAll(ctx context.Context) ([][]byte, error) {
	var records [][]byte
	for {
		rec, err := r.Next(ctx)
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, bytes.Clone(rec))
	}
}

// Stats reports how much of the stream has been consumed.
type Stats struct {
	PhysicalLines int64
	Bytes         int64
	Records       int64
}

// Stats returns the counters accumulated so far.
func (r *Reader) Stats() Stats {
	return Stats{
		PhysicalLines: r.lines,
		Bytes:         r.bytes,
		Records:       r.records,
	}
}
