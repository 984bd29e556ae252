// Package output renders validation issues and run summaries.
package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	cgerrors "github.com/conneroisu/csvguard/internal/errors"
	"github.com/conneroisu/csvguard/internal/validator"
	"gopkg.in/yaml.v3"
)

// Stdout is the path sentinel for standard output.
const Stdout = "-"

// Formats lists the supported output formats.
var Formats = []string{"text", "json", "yaml"}

// Writer renders issues as they are produced. Write may be called many
// times; Close flushes buffered output and must be called once.
type Writer interface {
	Write(issues []validator.Issue) error
	Close() error
}

// NewWriter returns a Writer for format ("text", "json" or "yaml").
func NewWriter(w io.Writer, format string) (Writer, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return &textWriter{w: bufio.NewWriter(w)}, nil
	case "json":
		bw := bufio.NewWriter(w)
		return &jsonWriter{w: bw, enc: json.NewEncoder(bw)}, nil
	case "yaml":
		return &yamlWriter{enc: yaml.NewEncoder(w)}, nil
	default:
		return nil, cgerrors.NewConfigError(cgerrors.ErrCodeConfigInvalid,
			fmt.Sprintf("unknown output format %q", format)).
			WithContext("formats", Formats)
	}
}

// textWriter writes one line per issue:
// [validator] Line n, Position p: message
type textWriter struct {
	w *bufio.Writer
}

func (t *textWriter) Write(issues []validator.Issue) error {
	for _, issue := range issues {
		if _, err := t.w.WriteString(issue.String()); err != nil {
			return writeError(err)
		}
		if err := t.w.WriteByte('\n'); err != nil {
			return writeError(err)
		}
	}

	return nil
}

func (t *textWriter) Close() error {
	if err := t.w.Flush(); err != nil {
		return writeError(err)
	}

	return nil
}

// jsonWriter writes one JSON object per line.
type jsonWriter struct {
	w   *bufio.Writer
	enc *json.Encoder
}

func (j *jsonWriter) Write(issues []validator.Issue) error {
	for _, issue := range issues {
		if err := j.enc.Encode(issue); err != nil {
			return writeError(err)
		}
	}

	return nil
}

func (j *jsonWriter) Close() error {
	if err := j.w.Flush(); err != nil {
		return writeError(err)
	}

	return nil
}

// yamlWriter writes one YAML document per issue.
type yamlWriter struct {
	enc *yaml.Encoder
}

func (y *yamlWriter) Write(issues []validator.Issue) error {
	for _, issue := range issues {
		if err := y.enc.Encode(issue); err != nil {
			return writeError(err)
		}
	}

	return nil
}

func (y *yamlWriter) Close() error {
	if err := y.enc.Close(); err != nil {
		return writeError(err)
	}

	return nil
}

func writeError(err error) error {
	return cgerrors.Wrap(err, cgerrors.ErrorTypeIO, cgerrors.ErrCodeWriteFailed, "write output")
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// Create opens the output destination. An empty path or "-" selects
// stdout, which is never closed; a nil stdout means os.Stdout.
func Create(path string, stdout io.Writer) (io.WriteCloser, error) {
	if path == "" || path == Stdout {
		if stdout == nil {
			stdout = os.Stdout
		}
		return nopWriteCloser{stdout}, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, cgerrors.Wrap(err, cgerrors.ErrorTypeIO, cgerrors.ErrCodeWriteFailed, "create output").
			WithPath(path)
	}

	return f, nil
}
