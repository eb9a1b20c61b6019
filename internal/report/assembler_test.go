package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"reportgen/internal/domain"
	"reportgen/internal/ranker"
)

var stamp = time.Date(2026, time.October, 18, 15, 4, 5, 0, time.UTC)

func ranked(texts ...string) domain.Ranking {
	r := domain.Ranking{}
	for i, t := range texts {
		r.Sentences = append(r.Sentences, domain.ScoredSentence{Index: i, Text: t, Score: 1})
	}
	return r
}

func TestAssemble(t *testing.T) {
	got := Assemble("test", ranked("A.", "B."), stamp, "")

	want := "=== AI-Generated Report ===\n\n" +
		"Prompt: test\n\n" +
		"Extracted Information:\nA.\nB." +
		"\n\nGenerated on: 10/18/2026, 3:04:05 PM"
	assert.Equal(t, want, got)
	assert.Equal(t, "A.\nB.", Body(ranked("A.", "B.")))
}

func TestAssemble_NoResults(t *testing.T) {
	got := Assemble("xylophone", ranker.Rank("Apples are red.", "xylophone", ranker.DefaultThreshold), stamp, "")

	assert.Contains(t, got, "Extracted Information:\n"+NoResultsLine+"\n\n")
	assert.True(t, strings.HasPrefix(got, Banner+"\n\nPrompt: xylophone\n\n"))
}

func TestAssemble_CustomLayout(t *testing.T) {
	got := Assemble("q", domain.Ranking{}, stamp, time.RFC3339)
	assert.True(t, strings.HasSuffix(got, "Generated on: 2026-10-18T15:04:05Z"))
}

func TestAssembler_UsesLocationAndClock(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	a := NewAssembler("", loc).WithClock(func() time.Time { return stamp })

	assert.Equal(t, "10/18/2026, 5:04:05 PM", a.Now().Format(DefaultTimeLayout))
	got := a.Assemble("cat", ranked("The cat sat."), a.Now())
	assert.True(t, strings.HasSuffix(got, "Generated on: 10/18/2026, 5:04:05 PM"))
	assert.Contains(t, got, "Extracted Information:\nThe cat sat.\n\n")
}
