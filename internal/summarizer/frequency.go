// Package summarizer produces short extractive overviews of a document.
package summarizer

import (
	"math"
	"regexp"
	"slices"
	"strings"

	"reportgen/internal/domain"
	"reportgen/internal/sentence"
)

const defaultMaxSentences = 3

// Frequency picks the sentences whose non-stopword terms are most frequent
// across the document and returns them in document order.
type Frequency struct {
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

var _ domain.Summarizer = (*Frequency)(nil)

// NewFrequency creates a frequency summarizer.
func NewFrequency() *Frequency {
	return &Frequency{
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`),
		stopwords:    defaultStopwords(),
	}
}

// Summarize returns up to maxSentences sentences joined by a space.
func (s *Frequency) Summarize(text string, maxSentences int) (string, error) {
	if maxSentences <= 0 {
		maxSentences = defaultMaxSentences
	}
	var sentences []string
	for _, sent := range sentence.Split(text) {
		if sent = strings.TrimSpace(sent); sent != "" {
			sentences = append(sentences, sent)
		}
	}
	if len(sentences) == 0 {
		return "", nil
	}

	tokens := make([][]string, len(sentences))
	freq := map[string]float64{}
	maxF := 0.0
	for i, sent := range sentences {
		tokens[i] = s.tokens(sent)
		for _, tok := range tokens[i] {
			if _, ok := s.stopwords[tok]; ok {
				continue
			}
			freq[tok]++
			maxF = max(maxF, freq[tok])
		}
	}

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(sentences))
	for i := range sentences {
		total := 0.0
		if n := len(tokens[i]); n > 0 && maxF > 0 {
			for _, tok := range tokens[i] {
				total += freq[tok] / maxF
			}
			total /= math.Sqrt(float64(n))
		}
		scores[i] = scored{i, total}
	}
	slices.SortStableFunc(scores, func(a, b scored) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		}
		return 0
	})

	n := min(maxSentences, len(scores))
	selected := make([]int, n)
	for i := range selected {
		selected[i] = scores[i].idx
	}
	slices.Sort(selected)
	out := make([]string, n)
	for i, idx := range selected {
		out[i] = sentences[idx]
	}
	return strings.Join(out, " "), nil
}

func (s *Frequency) tokens(text string) []string {
	return s.tokenPattern.FindAllString(strings.ToLower(text), -1)
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
