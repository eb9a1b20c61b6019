package domain

import (
	"context"
	"io"
	"time"
)

// Document is plain text extracted from a source file.
type Document struct {
	Name  string
	Text  string
	Pages int
}

// ScoredSentence is a sentence candidate with its similarity to the query.
// Index is the candidate position in the document and breaks ties.
type ScoredSentence struct {
	Index int
	Text  string
	Score float64
}

// Ranking holds the sentences that passed the relevance threshold,
// ordered by descending score. An empty ranking means no results.
type Ranking struct {
	Sentences []ScoredSentence
}

// Empty reports whether no sentence passed the threshold.
func (r Ranking) Empty() bool { return len(r.Sentences) == 0 }

// Texts returns the ranked sentence texts in ranking order.
func (r Ranking) Texts() []string {
	out := make([]string, len(r.Sentences))
	for i, s := range r.Sentences {
		out[i] = s.Text
	}
	return out
}

// Report is an assembled report together with its metadata.
type Report struct {
	ID        string
	Owner     string
	Prompt    string
	Source    string
	Content   string
	Matches   int
	CreatedAt time.Time
}

// Decoder turns a binary document into plain text.
type Decoder interface {
	Decode(ctx context.Context, r io.ReaderAt, size int64, name string) (Document, error)
	Formats() []string
}

// Exporter writes a report string into a downloadable file and returns its path.
type Exporter interface {
	Export(report string, dir string) (string, error)
	Extension() string
}

// Archive persists generated reports.
type Archive interface {
	Save(ctx context.Context, report *Report) error
	List(ctx context.Context, owner string, limit int) ([]Report, error)
	Get(ctx context.Context, id string) (*Report, error)
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}
