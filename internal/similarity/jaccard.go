// Package similarity scores the lexical overlap of two token sets.
package similarity

import "reportgen/internal/tokenize"

// Jaccard returns |A∩B| / |A∪B|. Two empty sets score 0.
func Jaccard(a, b tokenize.Set) float64 {
	// walk the smaller set
	if len(a) > len(b) {
		a, b = b, a
	}
	inter := 0
	for t := range a {
		if b.Has(t) {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
