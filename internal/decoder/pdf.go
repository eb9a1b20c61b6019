package decoder

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"reportgen/internal/domain"
	"reportgen/internal/logging"
)

// PDF extracts page text from PDF documents.
type PDF struct {
	workers int
	logger  *logrus.Entry
}

// NewPDF creates a PDF decoder. workers <= 0 uses runtime.NumCPU().
func NewPDF(workers int, logger *logrus.Entry) *PDF {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &PDF{workers: workers, logger: logging.Component(logger, "pdf-decoder")}
}

// Formats returns the extensions this decoder handles.
func (d *PDF) Formats() []string { return []string{".pdf"} }

// Decode reads every page and joins the page texts with a single space.
// Pages are split into contiguous ranges, one goroutine per range, each with its
// own reader; results land in a page-indexed buffer and Wait is the barrier.
// The pdf reader panics on broken object references; those panics surface as
// ErrDecode.
func (d *PDF) Decode(ctx context.Context, r io.ReaderAt, size int64, name string) (doc domain.Document, err error) {
	defer func() {
		if p := recover(); p != nil {
			doc, err = domain.Document{}, fmt.Errorf("%w: %s: malformed pdf: %v", ErrDecode, name, p)
		}
	}()

	head, err := pdf.NewReader(r, size)
	if err != nil {
		return domain.Document{}, fmt.Errorf("%w: %s: %w", ErrDecode, name, err)
	}
	total := head.NumPage()
	if total < 0 {
		return domain.Document{}, fmt.Errorf("%w: %s: negative page count %d", ErrDecode, name, total)
	}
	pages := make([]string, total)

	workers := min(d.workers, total)
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		from, to := pageRange(w, workers, total)
		g.Go(func() (err error) {
			defer recoverPage(&err)
			rd := head
			if w > 0 {
				if rd, err = pdf.NewReader(r, size); err != nil {
					return err
				}
			}
			for n := from; n < to; n++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				text, err := pageText(rd, n+1)
				if err != nil {
					return fmt.Errorf("page %d: %w", n+1, err)
				}
				pages[n] = text
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.Document{}, fmt.Errorf("%w: %s: %w", ErrDecode, name, err)
	}

	d.logger.WithFields(logrus.Fields{"document": name, "pages": total}).Debug("decoded pdf")
	return domain.Document{Name: name, Text: strings.Join(pages, " "), Pages: total}, nil
}

// recoverPage turns a reader panic inside a page worker into its error.
func recoverPage(err *error) {
	if p := recover(); p != nil {
		*err = fmt.Errorf("malformed pdf: %v", p)
	}
}

// pageRange returns the half-open page range [from, to) handled by worker w.
func pageRange(w, workers, total int) (int, int) {
	per := (total + workers - 1) / workers
	from := min(w*per, total)
	return from, min(from+per, total)
}

// pageText returns the text of a 1-based page with its runs joined by single spaces.
func pageText(r *pdf.Reader, num int) (string, error) {
	p := r.Page(num)
	if p.V.IsNull() {
		return "", nil
	}
	text, err := p.GetPlainText(nil)
	if err != nil {
		return "", err
	}
	return strings.Join(strings.Fields(text), " "), nil
}
