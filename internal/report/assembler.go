// Package report formats ranked sentences into the fixed report layout.
package report

import (
	"strings"
	"time"

	"reportgen/internal/domain"
)

// Section labels are consumed verbatim by exporters and downstream readers.
const (
	Banner         = "=== AI-Generated Report ==="
	PromptLabel    = "Prompt: "
	ExtractedLabel = "Extracted Information:"
	GeneratedLabel = "Generated on: "
	NoResultsLine  = "No relevant information found in the PDF for the given prompt."
	sectionBreak   = "\n\n"
	sentenceBreak  = "\n"
)

// DefaultTimeLayout renders like an en-US toLocaleString, e.g. "10/18/2026, 3:04:05 PM".
const DefaultTimeLayout = "1/2/2006, 3:04:05 PM"

// Assemble builds the report for query from ranking, stamped with ts.
// An empty ranking renders NoResultsLine as the body.
func Assemble(query string, ranking domain.Ranking, ts time.Time, layout string) string {
	if layout == "" {
		layout = DefaultTimeLayout
	}
	var sb strings.Builder
	sb.WriteString(Banner)
	sb.WriteString(sectionBreak)
	sb.WriteString(PromptLabel)
	sb.WriteString(query)
	sb.WriteString(sectionBreak)
	sb.WriteString(ExtractedLabel)
	sb.WriteString(sentenceBreak)
	sb.WriteString(Body(ranking))
	sb.WriteString(sectionBreak)
	sb.WriteString(GeneratedLabel)
	sb.WriteString(ts.Format(layout))
	return sb.String()
}

// Body returns the ranked sentences one per line, or NoResultsLine.
func Body(ranking domain.Ranking) string {
	if ranking.Empty() {
		return NoResultsLine
	}
	return strings.Join(ranking.Texts(), sentenceBreak)
}

// Assembler stamps reports with the current time in a fixed location and layout.
type Assembler struct {
	layout   string
	location *time.Location
	now      func() time.Time
}

// NewAssembler creates an Assembler. A nil location means time.Local.
func NewAssembler(layout string, location *time.Location) *Assembler {
	if layout == "" {
		layout = DefaultTimeLayout
	}
	if location == nil {
		location = time.Local
	}
	return &Assembler{layout: layout, location: location, now: time.Now}
}

// WithClock replaces the time source.
func (a *Assembler) WithClock(now func() time.Time) *Assembler {
	a.now = now
	return a
}

// Now returns the current time in the assembler's location.
func (a *Assembler) Now() time.Time { return a.now().In(a.location) }

// Assemble builds a report stamped with ts.
func (a *Assembler) Assemble(query string, ranking domain.Ranking, ts time.Time) string {
	return Assemble(query, ranking, ts.In(a.location), a.layout)
}
