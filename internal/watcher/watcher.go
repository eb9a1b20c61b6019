// Package watcher generates reports for documents dropped into a folder.
package watcher

import (
	"context"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"reportgen/internal/domain"
	"reportgen/internal/logging"
)

const (
	defaultSettle = 300 * time.Millisecond
	reportPrefix  = "AI_Report_"
)

// Operation is the kind of change seen on a document.
type Operation int

const (
	Created Operation = iota
	Modified
)

// Event is a settled change to a watched document.
type Event struct {
	Path      string
	Operation Operation
}

// Watcher reports document changes in one directory. Bursts of writes to
// the same file are coalesced into one event once the file settles.
type Watcher struct {
	fs         *fsnotify.Watcher
	extensions []string
	settle     time.Duration
	logger     *logrus.Entry
}

// New creates a watcher for files with the given extensions.
func New(extensions []string, settle time.Duration, logger *logrus.Entry) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if len(extensions) == 0 {
		extensions = []string{".pdf", ".txt", ".md"}
	}
	if settle <= 0 {
		settle = defaultSettle
	}
	return &Watcher{fs: fw, extensions: extensions, settle: settle, logger: logging.Component(logger, "watcher")}, nil
}

// Watch starts monitoring dir. The channel closes when ctx is done or the watcher stops.
func (w *Watcher) Watch(ctx context.Context, dir string) (<-chan Event, error) {
	if err := w.fs.Add(dir); err != nil {
		return nil, err
	}

	events := make(chan Event, 100)
	deb := newDebouncer(w.settle, ctx.Done())

	go func() {
		defer close(events)
		defer deb.stop()

		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-deb.ready:
				select {
				case events <- ev:
				case <-ctx.Done():
					return
				}
			case event, ok := <-w.fs.Events:
				if !ok {
					return
				}
				if !w.isWatched(event.Name) {
					continue
				}
				switch {
				case event.Op.Has(fsnotify.Create):
					deb.touch(event.Name, Created)
				case event.Op.Has(fsnotify.Write):
					deb.touch(event.Name, Modified)
				}
			case err, ok := <-w.fs.Errors:
				if !ok {
					return
				}
				w.logger.WithError(err).Warn("watch error")
			}
		}
	}()

	return events, nil
}

type pendingEvent struct {
	timer *time.Timer
	op    Operation
}

// debouncer holds one settle timer per path. An entry leaves pending when its
// timer fires, so each burst yields exactly one event on ready.
type debouncer struct {
	settle  time.Duration
	done    <-chan struct{}
	ready   chan Event
	mu      sync.Mutex
	pending map[string]*pendingEvent
}

func newDebouncer(settle time.Duration, done <-chan struct{}) *debouncer {
	return &debouncer{settle: settle, done: done, ready: make(chan Event, 100), pending: map[string]*pendingEvent{}}
}

// touch records a change to path and restarts its settle timer. A burst that
// began with Created stays Created.
func (d *debouncer) touch(path string, op Operation) {
	d.mu.Lock()
	defer d.mu.Unlock()
	prev, ok := d.pending[path]
	if ok && prev.op == Created {
		op = Created
	}
	if ok && prev.timer.Stop() {
		prev.op = op
		prev.timer.Reset(d.settle)
		return
	}
	// Either nothing is pending or the old timer already fired and its
	// callback, still waiting on mu, will find itself replaced.
	pe := &pendingEvent{op: op}
	d.pending[path] = pe
	pe.timer = time.AfterFunc(d.settle, func() { d.fire(path, pe) })
}

func (d *debouncer) fire(path string, pe *pendingEvent) {
	d.mu.Lock()
	if d.pending[path] != pe {
		d.mu.Unlock()
		return
	}
	delete(d.pending, path)
	ev := Event{Path: path, Operation: pe.op}
	d.mu.Unlock()

	select {
	case d.ready <- ev:
	case <-d.done:
	}
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for path, pe := range d.pending {
		pe.timer.Stop()
		delete(d.pending, path)
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() error { return w.fs.Close() }

// isWatched accepts configured extensions and skips exported reports.
func (w *Watcher) isWatched(path string) bool {
	if strings.HasPrefix(filepath.Base(path), reportPrefix) {
		return false
	}
	return slices.Contains(w.extensions, strings.ToLower(filepath.Ext(path)))
}

// Generator is the report service as used by the watch loop.
type Generator interface {
	GenerateFromFile(ctx context.Context, path, prompt, owner string) (*domain.Report, error)
	ExportReport(rep *domain.Report, dir string) (string, error)
}

// Processor turns watch events into exported reports.
type Processor struct {
	gen       Generator
	prompt    string
	owner     string
	exportDir string
	logger    *logrus.Entry
}

// NewProcessor creates a processor that answers prompt for every document.
func NewProcessor(gen Generator, prompt, owner, exportDir string, logger *logrus.Entry) *Processor {
	return &Processor{gen: gen, prompt: prompt, owner: owner, exportDir: exportDir, logger: logging.Component(logger, "watch-processor")}
}

// Run handles events until the channel closes or ctx is done. Failures are
// logged and do not stop the loop. Each exported path is sent to done if non-nil.
func (p *Processor) Run(ctx context.Context, events <-chan Event, done chan<- string) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			path, err := p.handle(ctx, ev)
			log := p.logger.WithField("document", ev.Path)
			if err != nil {
				log.WithError(err).Error("generate report")
				continue
			}
			log.WithField("export", path).Info("report exported")
			if done != nil {
				select {
				case done <- path:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

func (p *Processor) handle(ctx context.Context, ev Event) (string, error) {
	rep, err := p.gen.GenerateFromFile(ctx, ev.Path, p.prompt, p.owner)
	if err != nil {
		return "", err
	}
	return p.gen.ExportReport(rep, p.exportDir)
}
