package validator

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(v Validator, record string, line int) []Issue {
	var out []Issue
	v.Validate([]byte(record), line, &out)
	return out
}

func TestIllegalCharacters(t *testing.T) {
	v, err := NewIllegalCharacters([]string{"@", "!"})
	require.NoError(t, err)

	issues := run(v, "a@b!c", 7)
	require.Len(t, issues, 2)

	assert.Equal(t, Issue{
		Validator: IllegalCharactersName,
		Line:      7,
		Position:  1,
		Message:   "Illegal character(s) '@'",
	}, issues[0])
	assert.Equal(t, 3, issues[1].Position)
	assert.Equal(t, "Illegal character(s) '!'", issues[1].Message)
}

func TestIllegalCharactersMultiByte(t *testing.T) {
	v, err := NewIllegalCharacters([]string{"@@", "Zzzzz", "€"})
	require.NoError(t, err)

	issues := run(v, "x@@y Zzzzz €", 5)
	require.Len(t, issues, 3)

	assert.Equal(t, 1, issues[0].Position)
	assert.Equal(t, "Illegal character(s) '@@'", issues[0].Message)
	assert.Equal(t, 5, issues[1].Position)
	assert.Contains(t, issues[1].Message, "Zzzzz")
	assert.Equal(t, 11, issues[2].Position)
	assert.Contains(t, issues[2].Message, "€")
}

func TestIllegalCharactersOrderedByOffset(t *testing.T) {
	v, err := NewIllegalCharacters([]string{"bcd", "c"})
	require.NoError(t, err)

	issues := run(v, "abcd", 1)
	require.Len(t, issues, 2)
	assert.Equal(t, 1, issues[0].Position)
	assert.Equal(t, 2, issues[1].Position)
}

func TestIllegalCharactersInvalidUTF8(t *testing.T) {
	v, err := NewIllegalCharacters([]string{"\xff"})
	require.NoError(t, err)

	var issues []Issue
	assert.NotPanics(t, func() {
		v.Validate([]byte{'a', 0xff, 'b'}, 1, &issues)
	})
	require.Len(t, issues, 1)
	assert.Equal(t, 1, issues[0].Position)
	assert.Equal(t, "Illegal character(s) '<invalid utf8>'", issues[0].Message)
}

func TestIllegalCharactersSilentOnCleanRecord(t *testing.T) {
	v, err := NewIllegalCharacters([]string{"@"})
	require.NoError(t, err)

	assert.Empty(t, run(v, "clean_line", 1))
	assert.Empty(t, run(v, "", 2))
}

func TestNewIllegalCharactersRejectsEmpty(t *testing.T) {
	_, err := NewIllegalCharacters(nil)
	assert.Error(t, err)

	_, err = NewIllegalCharacters([]string{"@", ""})
	assert.Error(t, err)
}

func TestFieldCount(t *testing.T) {
	v, err := NewFieldCount(3, ';')
	require.NoError(t, err)

	tests := []struct {
		name    string
		record  string
		issues  int
		message string
	}{
		{name: "exact", record: "a;b;c", issues: 0},
		{name: "empty fields", record: ";;", issues: 0},
		{name: "one short", record: "a;b", issues: 1, message: "Expected 3 fields, found 2"},
		{name: "one long", record: "a;b;c;d", issues: 1, message: "Expected 3 fields, found 4"},
		{name: "far off", record: "a", issues: 1, message: "Expected 3 fields, found 1"},
		{name: "other delimiter ignored", record: "a,b,c", issues: 1, message: "Expected 3 fields, found 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := run(v, tt.record, 9)
			require.Len(t, issues, tt.issues)
			if tt.issues == 1 {
				assert.Equal(t, FieldCountName, issues[0].Validator)
				assert.Equal(t, 9, issues[0].Line)
				assert.False(t, issues[0].HasPosition())
				assert.Equal(t, tt.message, issues[0].Message)
			}
		})
	}
}

func TestValidatorSettings(t *testing.T) {
	patterns := []string{"@", "!!"}
	ic, err := NewIllegalCharacters(patterns)
	require.NoError(t, err)
	patterns[0] = "#"
	assert.Equal(t, []string{"@", "!!"}, ic.Patterns())

	got := ic.Patterns()
	got[1] = "?"
	assert.Equal(t, []string{"@", "!!"}, ic.Patterns())

	fc, err := NewFieldCount(5, '|')
	require.NoError(t, err)
	assert.Equal(t, 5, fc.Expected())
	assert.Equal(t, byte('|'), fc.Delimiter())

	ll, err := NewLineLength(0)
	require.NoError(t, err)
	assert.Equal(t, 0, ll.Max())
}

func TestNewFieldCountRejectsZero(t *testing.T) {
	_, err := NewFieldCount(0, ',')
	assert.Error(t, err)
}

func TestLineLength(t *testing.T) {
	v, err := NewLineLength(10)
	require.NoError(t, err)

	assert.Empty(t, run(v, strings.Repeat("x", 10), 1))
	assert.Empty(t, run(v, "", 1))

	issues := run(v, strings.Repeat("x", 11), 4)
	require.Len(t, issues, 1)
	assert.Equal(t, Issue{
		Validator: LineLengthName,
		Line:      4,
		Position:  NoPosition,
		Message:   "Line length 11 exceeds maximum 10",
	}, issues[0])
}

func TestLineLengthCountsBytes(t *testing.T) {
	v, err := NewLineLength(3)
	require.NoError(t, err)

	// "éé" is four bytes.
	assert.Len(t, run(v, "éé", 1), 1)
}

func TestIssueString(t *testing.T) {
	withPos := Issue{Validator: "illegal_characters", Line: 3, Position: 1, Message: "Illegal character(s) '@'"}
	assert.Equal(t, "[illegal_characters] Line 3, Position 1: Illegal character(s) '@'", withPos.String())

	noPos := Issue{Validator: "field_count", Line: 2, Position: NoPosition, Message: "Expected 3 fields, found 2"}
	assert.Equal(t, "[field_count] Line 2, Position none: Expected 3 fields, found 2", noPos.String())
}

func TestSetRunsValidatorsInOrder(t *testing.T) {
	ll, err := NewLineLength(2)
	require.NoError(t, err)
	fc, err := NewFieldCount(2, ',')
	require.NoError(t, err)
	ic, err := NewIllegalCharacters([]string{"@"})
	require.NoError(t, err)

	set := NewSet(ll, nil, fc, ic)
	assert.Equal(t, 3, set.Len())
	assert.Equal(t, []string{LineLengthName, FieldCountName, IllegalCharactersName}, set.Names())

	var out []Issue
	set.Validate([]byte("a@b"), 1, &out)
	require.Len(t, out, 3)
	assert.Equal(t, LineLengthName, out[0].Validator)
	assert.Equal(t, FieldCountName, out[1].Validator)
	assert.Equal(t, IllegalCharactersName, out[2].Validator)
}

func TestSetIsolatedFromCallerSlice(t *testing.T) {
	ll, err := NewLineLength(1)
	require.NoError(t, err)

	vs := []Validator{ll}
	set := NewSet(vs...)
	vs[0] = nil

	var out []Issue
	set.Validate([]byte("long"), 1, &out)
	assert.Len(t, out, 1)
}

func TestValidatorsConcurrentUse(t *testing.T) {
	ic, err := NewIllegalCharacters([]string{"@", "!"})
	require.NoError(t, err)
	fc, err := NewFieldCount(3, ';')
	require.NoError(t, err)
	set := NewSet(ic, fc)

	var serial []Issue
	set.Validate([]byte("a@b;c!"), 1, &serial)

	var wg sync.WaitGroup
	results := make([][]Issue, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			set.Validate([]byte("a@b;c!"), 1, &results[i])
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, serial, r)
	}
}
