// Package csvfile appends records to the flat output file.
//
// Lines are joined with ", " and never quoted, so a field containing the
// delimiter shifts that row's column boundaries.
package csvfile

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/JakeFAU/hasaki-crawler/internal/crawler"
)

// SinkName identifies this sink in logs and metrics.
const SinkName = "csv"

// Delimiter separates columns on every line.
const Delimiter = ", "

// bom marks the file as UTF-8 for spreadsheet tools.
var bom = []byte{0xEF, 0xBB, 0xBF}

// Header names the six output columns.
var Header = []string{"NSX", "Description", "New Price", "Discount percent", "Old Price", "Link Page"}

// Writer appends one line per record to an open stream.
type Writer struct {
	w      io.Writer
	closer io.Closer
	path   string
}

// Create truncates path, writes the byte-order mark and header, and returns
// a Writer holding the file open until Close.
func Create(path string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create output dir %s: %w", dir, err)
		}
	}
	f, err := os.Create(path) //nolint:gosec // operator-supplied output path
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	w, err := NewWriter(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	w.closer = f
	w.path = path
	return w, nil
}

// NewWriter writes the byte-order mark and header to w.
func NewWriter(w io.Writer) (*Writer, error) {
	if _, err := w.Write(bom); err != nil {
		return nil, fmt.Errorf("write byte order mark: %w", err)
	}
	if _, err := io.WriteString(w, formatLine(Header)); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	return &Writer{w: w}, nil
}

// Path is the file being written, empty for plain streams.
func (w *Writer) Path() string { return w.path }

// Name implements crawler.Sink.
func (w *Writer) Name() string { return SinkName }

// Write appends record as one line.
func (w *Writer) Write(_ context.Context, record crawler.Record) error {
	if _, err := io.WriteString(w.w, formatLine(record.CSVFields())); err != nil {
		return fmt.Errorf("append line: %w", err)
	}
	return nil
}

// Close closes the underlying file, if any.
func (w *Writer) Close() error {
	if w == nil || w.closer == nil {
		return nil
	}
	if err := w.closer.Close(); err != nil {
		return fmt.Errorf("close %s: %w", w.path, err)
	}
	return nil
}

func formatLine(fields []string) string {
	return strings.Join(fields, Delimiter) + "\n"
}
