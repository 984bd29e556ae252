package validator

import (
	"bytes"
	"fmt"
)

// FieldCountName identifies issues raised by FieldCount.
const FieldCountName = "field_count"

// FieldCount checks that a record splits into the expected number of fields.
//
// Fields are counted as delimiter occurrences plus one. Quoting is not taken
// into account, and no position is reported.
type FieldCount struct {
	expected  int
	delimiter byte
	sep       []byte
}

// NewFieldCount returns a FieldCount rule. expected must be at least 1.
func NewFieldCount(expected int, delimiter byte) (*FieldCount, error) {
	if expected < 1 {
		return nil, fmt.Errorf("field_count: expected must be >= 1, got %d", expected)
	}

	return &FieldCount{expected: expected, delimiter: delimiter, sep: []byte{delimiter}}, nil
}

// Name implements Validator.
func (v *FieldCount) Name() string {
	return FieldCountName
}

// Expected returns the configured field count.
func (v *FieldCount) Expected() int {
	return v.expected
}

// Delimiter returns the configured delimiter byte.
func (v *FieldCount) Delimiter() byte {
	return v.delimiter
}

// Validate implements Validator.
func (v *FieldCount) Validate(record []byte, line int, out *[]Issue) {
	actual := bytes.Count(record, v.sep) + 1
	if actual == v.expected {
		return
	}

	*out = append(*out, Issue{
		Validator: FieldCountName,
		Line:      line,
		Position:  NoPosition,
		Message:   fmt.Sprintf("Expected %d fields, found %d", v.expected, actual),
	})
}
