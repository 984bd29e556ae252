package errors

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVGuardErrorError(t *testing.T) {
	tests := []struct {
		name     string
		err      *CSVGuardError
		contains []string
	}{
		{
			name:     "code and message",
			err:      NewConfigError(ErrCodeConfigInvalid, "threads must be positive"),
			contains: []string{"[ERR_CONFIG_INVALID]", "threads must be positive"},
		},
		{
			name:     "path and line",
			err:      NewIOError(ErrCodeReadFailed, "read failed", nil).WithPath("data.csv").WithLine(42),
			contains: []string{"data.csv:42", "read failed"},
		},
		{
			name:     "cause",
			err:      NewChannelError("publish failed", context.Canceled),
			contains: []string{"publish failed", "context canceled"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, want := range tt.contains {
				assert.Contains(t, msg, want)
			}
		})
	}
}

func TestSentinelMatching(t *testing.T) {
	err := fmt.Errorf("worker: %w", NewChannelError("result channel closed", context.Canceled))

	assert.True(t, errors.Is(err, ErrResultChannel))
	assert.False(t, errors.Is(err, ErrConfigInvalid))
	assert.True(t, IsChannelError(err))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestWrapIO(t *testing.T) {
	_, openErr := os.Open(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, openErr)

	err := WrapIO(openErr, "open input")
	require.NotNil(t, err)

	assert.Equal(t, ErrorTypeIO, err.Type)
	assert.Equal(t, ErrCodeFileNotFound, err.Code)
	assert.Contains(t, err.Path, "missing.csv")
	assert.True(t, errors.Is(err, ErrFileNotFound))
	assert.True(t, IsIOError(err))

	assert.Nil(t, WrapIO(nil, "noop"))
}

func TestWrapPreservesLocation(t *testing.T) {
	inner := NewIOError(ErrCodeReadFailed, "short read", nil).WithPath("in.csv").WithLine(7)
	outer := Wrap(inner, ErrorTypeInternal, ErrCodeInternalError, "run failed")

	assert.Equal(t, "in.csv", outer.Path)
	assert.Equal(t, 7, outer.Line)
	assert.True(t, errors.Is(outer, ErrReadFailed))
}

func TestWrapKeepsCombinedErrors(t *testing.T) {
	combined := Combine(
		NewConfigError(ErrCodeMissingField, "validators[1]: expected is required").WithLine(2),
		NewConfigError(ErrCodeUnknownRule, "validators[2]: unknown rule type \"nope\""),
		NewConfigError(ErrCodeConfigInvalid, "validators[3]: max_length must be >= 0"),
	)

	outer := WrapConfig(combined, ErrCodeConfigInvalid, "invalid validators")
	require.NotNil(t, outer)

	assert.Len(t, Errors(outer.Cause), 3)
	assert.Zero(t, outer.Line)
	assert.ErrorIs(t, outer, ErrMissingField)
	assert.ErrorIs(t, outer, ErrUnknownRule)
	assert.Contains(t, outer.Error(), "unknown rule type")
	assert.Contains(t, outer.Error(), "max_length must be >= 0")
}

func TestWrapCancelled(t *testing.T) {
	assert.Nil(t, WrapCancelled(nil))

	plain := errors.New("boom")
	assert.Same(t, plain, WrapCancelled(plain))

	wrapped := WrapCancelled(context.DeadlineExceeded)
	assert.True(t, IsCancelled(wrapped))
	assert.True(t, errors.Is(wrapped, ErrCancelled))
}

func TestCombineAndFormat(t *testing.T) {
	assert.NoError(t, Combine(nil, nil))

	single := NewConfigError(ErrCodeMissingField, "field_count: expected is required")
	assert.Equal(t, single.Error(), FormatError(Combine(nil, single)))

	combined := Combine(single, NewConfigError(ErrCodeUnknownRule, "unknown rule type \"nope\""))
	assert.Len(t, Errors(combined), 2)

	formatted := FormatError(combined)
	assert.Contains(t, formatted, "expected is required")
	assert.Contains(t, formatted, "unknown rule type")
	assert.True(t, IsConfigError(combined))
}

func TestGetErrorContext(t *testing.T) {
	err := NewIOError(ErrCodeReadFailed, "read failed", nil).
		WithPath("in.csv").
		WithLine(3).
		WithContext("bytes", 128)

	ctx := GetErrorContext(err)
	assert.Equal(t, "in.csv", ctx["path"])
	assert.Equal(t, 3, ctx["line"])
	assert.Equal(t, 128, ctx["bytes"])
	assert.Equal(t, "io", ctx["type"])

	plain := GetErrorContext(errors.New("plain"))
	assert.Equal(t, "unknown", plain["type"])
}
