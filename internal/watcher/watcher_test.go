package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reportgen/internal/domain"
)

func TestWatch_EmitsSettledEvent(t *testing.T) {
	dir := t.TempDir()
	w, err := New([]string{".txt"}, 50*time.Millisecond, nil)
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := w.Watch(ctx, dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.csv"), []byte("a,b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, reportPrefix+"1.txt"), []byte("old"), 0o644))
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("Cats purr."), 0o644))

	select {
	case ev := <-events:
		assert.Equal(t, path, ev.Path)
	case <-time.After(5 * time.Second):
		t.Fatal("no event")
	}

	select {
	case ev := <-events:
		t.Fatalf("unexpected second event %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}
}

func receiveOne(t *testing.T, ready <-chan Event) Event {
	t.Helper()
	var ev Event
	select {
	case ev = <-ready:
	case <-time.After(5 * time.Second):
		t.Fatal("no event")
	}
	select {
	case extra := <-ready:
		t.Fatalf("unexpected second event %+v", extra)
	case <-time.After(100 * time.Millisecond):
	}
	return ev
}

func TestDebouncer_CoalescesBurst(t *testing.T) {
	d := newDebouncer(20*time.Millisecond, nil)
	d.touch("a.txt", Created)
	d.touch("a.txt", Modified)
	d.touch("a.txt", Modified)

	ev := receiveOne(t, d.ready)
	assert.Equal(t, Event{Path: "a.txt", Operation: Created}, ev)
	assert.Empty(t, d.pending)
}

func TestDebouncer_TakesLatestOperation(t *testing.T) {
	d := newDebouncer(20*time.Millisecond, nil)
	d.touch("a.txt", Modified)
	d.touch("a.txt", Created)

	assert.Equal(t, Created, receiveOne(t, d.ready).Operation)
}

func TestDebouncer_WriteAfterTimerFired(t *testing.T) {
	d := newDebouncer(20*time.Millisecond, nil)
	d.touch("a.txt", Modified)

	// Stop the timer as if it had fired but its callback had not yet run.
	d.mu.Lock()
	stale := d.pending["a.txt"]
	stale.timer.Stop()
	d.mu.Unlock()

	d.touch("a.txt", Modified)
	d.fire("a.txt", stale)

	ev := receiveOne(t, d.ready)
	assert.Equal(t, Event{Path: "a.txt", Operation: Modified}, ev)
}

func TestDebouncer_StopDropsPending(t *testing.T) {
	d := newDebouncer(20*time.Millisecond, nil)
	d.touch("a.txt", Created)
	d.stop()

	select {
	case ev := <-d.ready:
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatch_MissingDir(t *testing.T) {
	w, err := New(nil, 0, nil)
	require.NoError(t, err)
	defer w.Stop()

	_, err = w.Watch(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestIsWatched(t *testing.T) {
	w := &Watcher{extensions: []string{".pdf", ".txt"}}
	assert.True(t, w.isWatched("/in/a.PDF"))
	assert.True(t, w.isWatched("b.txt"))
	assert.False(t, w.isWatched("c.md"))
	assert.False(t, w.isWatched("/in/AI_Report_1700000000000.txt"))
}

type fakeGenerator struct {
	failOn  string
	prompts []string
}

func (f *fakeGenerator) GenerateFromFile(_ context.Context, path, prompt, _ string) (*domain.Report, error) {
	if path == f.failOn {
		return nil, errors.New("decode failed")
	}
	f.prompts = append(f.prompts, prompt)
	return &domain.Report{Source: filepath.Base(path), Content: "report"}, nil
}

func (f *fakeGenerator) ExportReport(rep *domain.Report, dir string) (string, error) {
	return filepath.Join(dir, "AI_Report_"+rep.Source), nil
}

func TestProcessor_Run(t *testing.T) {
	gen := &fakeGenerator{failOn: "bad.pdf"}
	p := NewProcessor(gen, "summary", "", "out", nil)

	events := make(chan Event, 3)
	events <- Event{Path: "a.pdf"}
	events <- Event{Path: "bad.pdf"}
	events <- Event{Path: "b.txt", Operation: Modified}
	close(events)

	done := make(chan string, 3)
	p.Run(context.Background(), events, done)
	close(done)

	var got []string
	for path := range done {
		got = append(got, path)
	}
	assert.Equal(t, []string{filepath.Join("out", "AI_Report_a.pdf"), filepath.Join("out", "AI_Report_b.txt")}, got)
	assert.Equal(t, []string{"summary", "summary"}, gen.prompts)
}
