package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = "AI-Generated Report\n\nPrompt: cats\n\nExtracted Information:\nCats purr.\n\nGenerated on: 1/2/2024, 3:04:05 PM"

func fixedClock() time.Time { return time.UnixMilli(1700000000123) }

func TestFileName(t *testing.T) {
	assert.Equal(t, "AI_Report_1700000000123.pdf", FileName(fixedClock(), "pdf"))
}

func TestNew(t *testing.T) {
	e, err := New("pdf")
	require.NoError(t, err)
	assert.Equal(t, "pdf", e.Extension())

	e, err = New("TXT")
	require.NoError(t, err)
	assert.Equal(t, "txt", e.Extension())

	_, err = New("docx")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestText_Export(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	e := &Text{now: fixedClock}

	path, err := e.Export(sample, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "AI_Report_1700000000123.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sample, string(data))
}

func TestPDF_Export(t *testing.T) {
	dir := t.TempDir()
	e := &PDF{now: fixedClock}

	path, err := e.Export(sample, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "AI_Report_1700000000123.pdf"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}
