package validator

import (
	"fmt"
	"sort"

	ahocorasick "github.com/BobuSumisu/aho-corasick"
)

// IllegalCharactersName identifies issues raised by IllegalCharacters.
const IllegalCharactersName = "illegal_characters"

// IllegalCharacters reports every occurrence of a forbidden substring.
//
// Patterns are compiled once into an Aho-Corasick automaton, so a record is
// scanned in a single pass whose cost does not grow with the pattern count.
type IllegalCharacters struct {
	trie     *ahocorasick.Trie
	patterns []string
}

// NewIllegalCharacters builds the matcher. Patterns may be multi-byte; an
// empty list or an empty pattern is rejected.
func NewIllegalCharacters(patterns []string) (*IllegalCharacters, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("illegal_characters: at least one pattern is required")
	}
	for i, p := range patterns {
		if p == "" {
			return nil, fmt.Errorf("illegal_characters: pattern %d is empty", i)
		}
	}

	owned := make([]string, len(patterns))
	copy(owned, patterns)

	trie := ahocorasick.NewTrieBuilder().
		AddStrings(owned).
		Build()

	return &IllegalCharacters{trie: trie, patterns: owned}, nil
}

// Name implements Validator.
func (v *IllegalCharacters) Name() string {
	return IllegalCharactersName
}

// Patterns returns a copy of the configured patterns.
func (v *IllegalCharacters) Patterns() []string {
	out := make([]string, len(v.patterns))
	copy(out, v.patterns)
	return out
}

// Validate implements Validator. One issue is raised per match occurrence,
// ordered by starting offset.
func (v *IllegalCharacters) Validate(record []byte, line int, out *[]Issue) {
	if len(record) == 0 {
		return
	}

	matches := v.trie.Match(record)
	if len(matches) == 0 {
		return
	}

	// The automaton reports matches by end offset.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Pos() < matches[j].Pos()
	})

	for _, m := range matches {
		pos := int(m.Pos())
		end := pos + len(m.Match())
		*out = append(*out, Issue{
			Validator: IllegalCharactersName,
			Line:      line,
			Position:  pos,
			Message:   fmt.Sprintf("Illegal character(s) '%s'", displayText(record[pos:end])),
		})
	}
}
