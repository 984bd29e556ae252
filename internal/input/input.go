// Package input opens validation sources and normalises their encoding.
package input

import (
	"io"
	"os"
	"strings"

	cgerrors "github.com/conneroisu/csvguard/internal/errors"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Stdin is the path sentinel for standard input.
const Stdin = "-"

// Open returns a reader for path. An empty path or "-" selects standard
// input, which is never closed by the returned ReadCloser.
func Open(path string) (io.ReadCloser, error) {
	if path == "" || path == Stdin {
		return io.NopCloser(os.Stdin), nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, cgerrors.WrapIO(err, "open input")
	}
	if info.IsDir() {
		return nil, cgerrors.NewIOError(cgerrors.ErrCodeReadFailed, "input is a directory", nil).
			WithPath(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, cgerrors.WrapIO(err, "open input")
	}

	return f, nil
}

// Name returns a display name for path.
func Name(path string) string {
	if path == "" || path == Stdin {
		return "<stdin>"
	}

	return path
}

// Decode wraps r so that it yields UTF-8.
//
// encoding is any WHATWG label ("utf-8", "latin1", "utf-16le", ...). An empty
// label passes bytes through untouched. With detectBOM, a leading UTF-8 or
// UTF-16 byte order mark overrides the label and is removed from the stream.
func Decode(r io.Reader, encoding string, detectBOM bool) (io.Reader, error) {
	label := strings.TrimSpace(strings.ToLower(encoding))

	var decoder transform.Transformer = transform.Nop
	if label != "" && !isUTF8(label) {
		enc, err := htmlindex.Get(label)
		if err != nil {
			return nil, cgerrors.NewConfigError(cgerrors.ErrCodeConfigInvalid,
				"unsupported input encoding").
				WithContext("encoding", encoding)
		}
		decoder = enc.NewDecoder()
	}

	if detectBOM {
		decoder = unicode.BOMOverride(decoder)
	}
	if decoder == transform.Nop {
		return r, nil
	}

	return transform.NewReader(r, decoder), nil
}

// ValidEncoding reports whether label names a supported encoding.
func ValidEncoding(label string) bool {
	label = strings.TrimSpace(strings.ToLower(label))
	if label == "" || isUTF8(label) {
		return true
	}
	_, err := htmlindex.Get(label)

	return err == nil
}

func isUTF8(label string) bool {
	return label == "utf-8" || label == "utf8"
}
