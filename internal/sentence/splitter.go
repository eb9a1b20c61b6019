// Package sentence splits document text into sentence candidates.
package sentence

import "regexp"

// boundary is a terminator followed by whitespace. The whitespace class mirrors
// the browser \s: ASCII space characters, vertical tab, Unicode separators and BOM.
var boundary = regexp.MustCompile(`[.?!][\s\x{0B}\p{Z}\x{FEFF}]+`)

// Split cuts text after every '.', '?' or '!' that is followed by whitespace.
// The terminator stays with the preceding sentence and the whitespace run is dropped.
// Fragments are returned verbatim, including empty or blank ones; only empty
// text yields no candidates. Abbreviations and decimals may split early.
func Split(text string) []string {
	if text == "" {
		return nil
	}
	matches := boundary.FindAllStringIndex(text, -1)
	sentences := make([]string, 0, len(matches)+1)
	start := 0
	for _, m := range matches {
		// terminators are single-byte, so m[0]+1 ends the sentence
		sentences = append(sentences, text[start:m[0]+1])
		start = m[1]
	}
	return append(sentences, text[start:])
}
