// Package tokenize normalizes text into lowercase word tokens and token sets.
package tokenize

import (
	"regexp"
	"strings"
)

// wordPattern matches ASCII word characters only, so non-ASCII letters act as separators.
var wordPattern = regexp.MustCompile(`\w+`)

// Set is a set of unique tokens.
type Set map[string]struct{}

// Tokenize lowercases text and returns its maximal runs of word characters in order.
// Duplicates are kept. Text without word characters yields an empty slice.
func Tokenize(text string) []string {
	tokens := wordPattern.FindAllString(strings.ToLower(text), -1)
	if tokens == nil {
		return []string{}
	}
	return tokens
}

// NewSet tokenizes text and collapses duplicates.
func NewSet(text string) Set {
	return FromTokens(Tokenize(text))
}

// FromTokens builds a set from an existing token sequence.
func FromTokens(tokens []string) Set {
	s := make(Set, len(tokens))
	for _, t := range tokens {
		s[t] = struct{}{}
	}
	return s
}

// Len returns the number of unique tokens.
func (s Set) Len() int { return len(s) }

// Has reports whether the token is in the set.
func (s Set) Has(token string) bool {
	_, ok := s[token]
	return ok
}
