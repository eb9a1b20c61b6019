// Package export writes assembled reports to downloadable files.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"reportgen/internal/domain"
)

// ErrUnknownFormat is returned by New for formats other than pdf and txt.
var ErrUnknownFormat = errors.New("unknown export format")

const (
	filePrefix = "AI_Report_"

	pageMargin = 10.0
	wrapWidth  = 180.0
	lineHeight = 6.0
	fontFamily = "Helvetica"
	fontSize   = 11.0
)

// New returns the exporter for format ("pdf" or "txt").
func New(format string) (domain.Exporter, error) {
	switch strings.ToLower(format) {
	case "pdf", "":
		return NewPDF(), nil
	case "txt", "text":
		return NewText(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// FileName returns the export file name for a report created at ts.
func FileName(ts time.Time, ext string) string {
	return fmt.Sprintf("%s%d.%s", filePrefix, ts.UnixMilli(), ext)
}

// PDF lays a report out on A4 pages, one wrapped cell per line of text.
type PDF struct {
	now func() time.Time
}

// NewPDF creates a PDF exporter.
func NewPDF() *PDF { return &PDF{now: time.Now} }

// Extension implements domain.Exporter.
func (p *PDF) Extension() string { return "pdf" }

// Export writes report into dir and returns the file path.
func (p *PDF) Export(report string, dir string) (string, error) {
	path, err := target(dir, FileName(p.now(), p.Extension()))
	if err != nil {
		return "", err
	}
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(pageMargin, pageMargin, pageMargin)
	doc.SetAutoPageBreak(true, pageMargin)
	doc.AddPage()
	doc.SetFont(fontFamily, "", fontSize)
	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.MultiCell(wrapWidth, lineHeight, tr(report), "", "L", false)
	if err := doc.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("write pdf %s: %w", path, err)
	}
	return path, nil
}

// Text writes the report verbatim as UTF-8.
type Text struct {
	now func() time.Time
}

// NewText creates a plain text exporter.
func NewText() *Text { return &Text{now: time.Now} }

// Extension implements domain.Exporter.
func (t *Text) Extension() string { return "txt" }

// Export writes report into dir and returns the file path.
func (t *Text) Export(report string, dir string) (string, error) {
	path, err := target(dir, FileName(t.now(), t.Extension()))
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(report), 0o644); err != nil {
		return "", fmt.Errorf("write text %s: %w", path, err)
	}
	return path, nil
}

func target(dir, name string) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	return filepath.Join(dir, name), nil
}
