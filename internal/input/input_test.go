package input

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	cgerrors "github.com/conneroisu/csvguard/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeString(t *testing.T, in, encoding string, bom bool) string {
	t.Helper()

	r, err := Decode(strings.NewReader(in), encoding, bom)
	require.NoError(t, err)
	out, err := io.ReadAll(r)
	require.NoError(t, err)

	return string(out)
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		encoding string
		bom      bool
		expected string
	}{
		{"passthrough", "a;b\n", "", false, "a;b\n"},
		{"explicit utf-8", "a;b\n", "UTF-8", false, "a;b\n"},
		{"invalid bytes untouched without label", "a\xffb", "", false, "a\xffb"},
		{"latin1", "caf\xe9;x\n", "latin1", false, "café;x\n"},
		{"utf-8 bom stripped", "\xef\xbb\xbfa;b\n", "", true, "a;b\n"},
		{"utf-8 bom kept when detection off", "\xef\xbb\xbfa", "", false, "\xef\xbb\xbfa"},
		{"utf-16le bom", "\xff\xfea\x00;\x00b\x00\n\x00", "", true, "a;b\n"},
		{"utf-16be bom overrides label", "\xfe\xff\x00a\x00\n", "latin1", true, "a\n"},
		{"no bom falls back to label", "\xe9", "latin1", true, "é"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, decodeString(t, tt.input, tt.encoding, tt.bom))
		})
	}
}

func TestDecodeUnknownEncoding(t *testing.T) {
	_, err := Decode(strings.NewReader(""), "klingon", false)
	require.Error(t, err)
	assert.True(t, cgerrors.IsConfigError(err))
}

func TestValidEncoding(t *testing.T) {
	assert.True(t, ValidEncoding(""))
	assert.True(t, ValidEncoding("utf8"))
	assert.True(t, ValidEncoding("windows-1252"))
	assert.True(t, ValidEncoding("Shift_JIS"))
	assert.False(t, ValidEncoding("klingon"))
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("a;b\n"), 0o644))

	rc, err := Open(path)
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "a;b\n", string(data))
}

func TestOpenMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.csv")

	_, err := Open(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, cgerrors.ErrFileNotFound))

	var ce *cgerrors.CSVGuardError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, path, ce.Path)
}

func TestOpenDirectory(t *testing.T) {
	_, err := Open(t.TempDir())
	require.Error(t, err)
	assert.True(t, cgerrors.IsIOError(err))
}

func TestOpenStdin(t *testing.T) {
	for _, path := range []string{"", Stdin} {
		rc, err := Open(path)
		require.NoError(t, err)
		assert.NoError(t, rc.Close())
	}
}

func TestName(t *testing.T) {
	assert.Equal(t, "<stdin>", Name("-"))
	assert.Equal(t, "<stdin>", Name(""))
	assert.Equal(t, "x.csv", Name("x.csv"))
}
