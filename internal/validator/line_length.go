package validator

import "fmt"

// LineLengthName identifies issues raised by LineLength.
const LineLengthName = "line_length"

// LineLength rejects records longer than a maximum byte length.
type LineLength struct {
	max int
}

// NewLineLength returns a LineLength rule. max must not be negative.
func NewLineLength(max int) (*LineLength, error) {
	if max < 0 {
		return nil, fmt.Errorf("line_length: max_length must be >= 0, got %d", max)
	}

	return &LineLength{max: max}, nil
}

// Name implements Validator.
func (v *LineLength) Name() string {
	return LineLengthName
}

// Max returns the configured maximum length in bytes.
func (v *LineLength) Max() int {
	return v.max
}

// Validate implements Validator.
func (v *LineLength) Validate(record []byte, line int, out *[]Issue) {
	if len(record) <= v.max {
		return
	}

	*out = append(*out, Issue{
		Validator: LineLengthName,
		Line:      line,
		Position:  NoPosition,
		Message:   fmt.Sprintf("Line length %d exceeds maximum %d", len(record), v.max),
	})
}
