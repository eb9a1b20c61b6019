package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reportgen/internal/decoder"
	"reportgen/internal/domain"
	"reportgen/internal/export"
	"reportgen/internal/ranker"
	"reportgen/internal/report"
)

type memArchive struct {
	saved []domain.Report
	err   error
}

func (m *memArchive) Save(_ context.Context, r *domain.Report) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, *r)
	return nil
}

func (m *memArchive) List(_ context.Context, owner string, _ int) ([]domain.Report, error) {
	var out []domain.Report
	for _, r := range m.saved {
		if r.Owner == owner {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memArchive) Get(_ context.Context, id string) (*domain.Report, error) {
	for _, r := range m.saved {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, errors.New("missing")
}

type stubSummarizer struct{}

func (stubSummarizer) Summarize(text string, _ int) (string, error) { return "summary of " + text, nil }

func fixedAssembler() *report.Assembler {
	clock := func() time.Time { return time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC) }
	return report.NewAssembler("", time.UTC).WithClock(clock)
}

const catsDoc = "Cats purr loudly. Dogs bark. Cats sleep a lot."

func TestGenerate(t *testing.T) {
	arch := &memArchive{}
	svc := New(fixedAssembler(), WithArchive(arch))

	rep, err := svc.Generate(context.Background(), GenerateRequest{
		Prompt:   "  cats  ",
		Document: &domain.Document{Name: "pets.pdf", Text: catsDoc},
		Owner:    "ada@example.com",
	})
	require.NoError(t, err)

	want := "=== AI-Generated Report ===\n\n" +
		"Prompt: cats\n\n" +
		"Extracted Information:\n" +
		"Cats purr loudly.\nCats sleep a lot.\n\n" +
		"Generated on: 3/5/2024, 2:07:09 PM"
	assert.Equal(t, want, rep.Content)
	assert.Equal(t, "cats", rep.Prompt)
	assert.Equal(t, "pets.pdf", rep.Source)
	assert.Equal(t, 2, rep.Matches)
	assert.NotEmpty(t, rep.ID)
	require.Len(t, arch.saved, 1)
	assert.Equal(t, rep.ID, arch.saved[0].ID)

	last, err := svc.Last()
	require.NoError(t, err)
	assert.Same(t, rep, last)
}

func TestGenerate_PooledRankerMatchesInline(t *testing.T) {
	r, err := ranker.New(ranker.WithWorkers(2), ranker.WithParallelMin(1))
	require.NoError(t, err)
	defer r.Release()

	req := GenerateRequest{Prompt: "cats", Document: &domain.Document{Text: catsDoc}}
	pooled, err := New(fixedAssembler(), WithRanker(r)).Generate(context.Background(), req)
	require.NoError(t, err)
	inline, err := New(fixedAssembler()).Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, inline.Content, pooled.Content)
}

func TestGenerate_NoMatches(t *testing.T) {
	svc := New(fixedAssembler())
	rep, err := svc.Generate(context.Background(), GenerateRequest{
		Prompt:   "quantum",
		Document: &domain.Document{Text: catsDoc},
	})
	require.NoError(t, err)
	assert.Contains(t, rep.Content, "Extracted Information:\n"+report.NoResultsLine+"\n\n")
	assert.Zero(t, rep.Matches)
}

func TestGenerate_InputAbsent(t *testing.T) {
	svc := New(fixedAssembler())
	ctx := context.Background()

	_, err := svc.Generate(ctx, GenerateRequest{Prompt: "   ", Document: &domain.Document{Text: catsDoc}})
	assert.ErrorIs(t, err, ErrPromptRequired)

	_, err = svc.Generate(ctx, GenerateRequest{Prompt: "cats"})
	assert.ErrorIs(t, err, ErrDocumentRequired)

	_, err = svc.Last()
	assert.ErrorIs(t, err, ErrNoReport)
}

func TestGenerate_ArchiveFailure(t *testing.T) {
	svc := New(fixedAssembler(), WithArchive(&memArchive{err: errors.New("disk full")}))
	_, err := svc.Generate(context.Background(), GenerateRequest{Prompt: "cats", Document: &domain.Document{Text: catsDoc}})
	assert.ErrorContains(t, err, "disk full")
	_, err = svc.Last()
	assert.ErrorIs(t, err, ErrNoReport)
}

func TestGenerateFromFileAndExport(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "pets.txt")
	require.NoError(t, os.WriteFile(src, []byte(catsDoc), 0o644))

	svc := New(fixedAssembler(),
		WithDecoder(decoder.NewRegistry(decoder.Text{})),
		WithExporter(export.NewText()),
	)

	_, err := svc.Export(dir)
	assert.ErrorIs(t, err, ErrNoReport)

	rep, err := svc.GenerateFromFile(context.Background(), src, "cats", "")
	require.NoError(t, err)
	assert.Equal(t, "pets.txt", rep.Source)

	path, err := svc.Export(filepath.Join(dir, "out"))
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, rep.Content, string(data))

	_, err = svc.GenerateFromFile(context.Background(), filepath.Join(dir, "table.xlsx"), "cats", "")
	assert.Error(t, err)
	_, err = svc.GenerateFromFile(context.Background(), src, "", "")
	assert.ErrorIs(t, err, ErrPromptRequired)
}

func TestHistoryAndOverview(t *testing.T) {
	arch := &memArchive{}
	svc := New(fixedAssembler(), WithArchive(arch), WithSummarizer(stubSummarizer{}))
	ctx := context.Background()

	rep, err := svc.Generate(ctx, GenerateRequest{Prompt: "cats", Document: &domain.Document{Text: catsDoc}, Owner: "ada"})
	require.NoError(t, err)

	hist, err := svc.History(ctx, "ada", 10)
	require.NoError(t, err)
	require.Len(t, hist, 1)

	found, err := svc.Find(ctx, rep.ID)
	require.NoError(t, err)
	assert.Equal(t, rep.Content, found.Content)

	assert.Equal(t, "summary of x", svc.Overview(domain.Document{Text: "x"}, 2))
	assert.Empty(t, New(fixedAssembler()).Overview(domain.Document{Text: "x"}, 2))
}
