// Package decoder turns source documents into the plain text the ranker consumes.
package decoder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"reportgen/internal/domain"
)

var (
	// ErrDecode wraps every failure to read a document's content.
	ErrDecode = errors.New("decode document")

	// ErrUnsupportedFormat is returned for extensions no decoder handles.
	ErrUnsupportedFormat = errors.New("unsupported document format")
)

// Text passes UTF-8 text documents through unchanged.
type Text struct{}

// Formats returns the extensions this decoder handles.
func (Text) Formats() []string { return []string{".txt", ".md"} }

// Decode reads the whole document as text.
func (Text) Decode(_ context.Context, r io.ReaderAt, size int64, name string) (domain.Document, error) {
	data, err := io.ReadAll(io.NewSectionReader(r, 0, size))
	if err != nil {
		return domain.Document{}, fmt.Errorf("%w: %s: %w", ErrDecode, name, err)
	}
	if !utf8.Valid(data) {
		return domain.Document{}, fmt.Errorf("%w: %s: not valid UTF-8", ErrDecode, name)
	}
	return domain.Document{Name: name, Text: string(data), Pages: 1}, nil
}

// Registry dispatches to a decoder by file extension.
type Registry struct {
	byExt map[string]domain.Decoder
}

// NewRegistry registers the given decoders under each of their formats.
func NewRegistry(decoders ...domain.Decoder) *Registry {
	reg := &Registry{byExt: make(map[string]domain.Decoder)}
	for _, d := range decoders {
		for _, ext := range d.Formats() {
			reg.byExt[strings.ToLower(ext)] = d
		}
	}
	return reg
}

// Supports reports whether name has a registered extension.
func (r *Registry) Supports(name string) bool {
	_, ok := r.byExt[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Formats lists the registered extensions.
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		out = append(out, ext)
	}
	return out
}

// Decode picks the decoder for name and runs it.
func (r *Registry) Decode(ctx context.Context, rd io.ReaderAt, size int64, name string) (domain.Document, error) {
	d, ok := r.byExt[strings.ToLower(filepath.Ext(name))]
	if !ok {
		return domain.Document{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
	return d.Decode(ctx, rd, size, name)
}

// DecodeFile opens path and decodes it.
func (r *Registry) DecodeFile(ctx context.Context, path string) (domain.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Document{}, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return domain.Document{}, err
	}
	return r.Decode(ctx, f, info.Size(), filepath.Base(path))
}
