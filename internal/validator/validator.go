// Package validator defines the per-record rule contract and the built-in
// rules.
//
// A Validator is a pure function of (record, record number): it appends zero
// or more Issues to a caller supplied slice and holds no mutable state, so a
// single instance is shared by every worker goroutine of a run. A record that
// satisfies a rule produces no output; absence of issues is the pass signal.
package validator

import (
	"fmt"
	"strconv"
	"unicode/utf8"
)

// NoPosition marks an Issue that carries no byte offset.
const NoPosition = -1

// invalidUTF8 replaces message fragments that are not valid UTF-8.
const invalidUTF8 = "<invalid utf8>"

// Validator checks one logical record.
type Validator interface {
	// Name identifies the rule in reported issues.
	Name() string
	// Validate appends issues for record (numbered line, 1-based) to out.
	// It must not retain record after returning.
	Validate(record []byte, line int, out *[]Issue)
}

// Issue is one reported rule violation.
type Issue struct {
	Validator string `json:"validator" yaml:"validator"`
	Line      int    `json:"line" yaml:"line"`
	Position  int    `json:"position" yaml:"position"`
	Message   string `json:"message" yaml:"message"`
}

// HasPosition reports whether the issue carries a byte offset.
func (i Issue) HasPosition() bool {
	return i.Position != NoPosition
}

// String renders the issue in the line-oriented output format.
func (i Issue) String() string {
	pos := "none"
	if i.HasPosition() {
		pos = strconv.Itoa(i.Position)
	}

	return fmt.Sprintf("[%s] Line %d, Position %s: %s", i.Validator, i.Line, pos, i.Message)
}

// Set is an immutable, ordered collection of validators. The zero value is
// an empty set. Order is the configuration order and determines the order of
// issues within one record when order preservation is requested.
type Set struct {
	validators []Validator
}

// NewSet copies validators into a new Set. Nil entries are skipped.
func NewSet(validators ...Validator) Set {
	vs := make([]Validator, 0, len(validators))
	for _, v := range validators {
		if v != nil {
			vs = append(vs, v)
		}
	}

	return Set{validators: vs}
}

// Len returns the number of validators in the set.
func (s Set) Len() int {
	return len(s.validators)
}

// Names returns the validator names in configuration order.
func (s Set) Names() []string {
	names := make([]string, len(s.validators))
	for i, v := range s.validators {
		names[i] = v.Name()
	}

	return names
}

// Validate runs every validator of the set against record in order.
func (s Set) Validate(record []byte, line int, out *[]Issue) {
	for _, v := range s.validators {
		v.Validate(record, line, out)
	}
}

// displayText renders raw bytes for a message, degrading invalid UTF-8 to a
// placeholder instead of failing.
func displayText(b []byte) string {
	if !utf8.Valid(b) {
		return invalidUTF8
	}

	return string(b)
}
