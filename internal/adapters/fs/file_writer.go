package fs

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bft-labs/tracesink/internal/domain"
	"github.com/bft-labs/tracesink/internal/ports"
)

const writeBufferSize = 64 * 1024

// FileWriterOptions configures a FileWriter.
type FileWriterOptions struct {
	// Formatter renders each record. Defaults to DefaultFormatter.
	Formatter ports.Formatter

	// JSONArray keeps the file a valid trace-event JSON array. The file is
	// truncated on open and terminated with "]" on Close.
	JSONArray bool

	// Append preserves existing content. Ignored in JSONArray mode.
	Append bool
}

// DefaultFormatter returns the record payload unchanged.
func DefaultFormatter(rec domain.Record) string {
	return rec.Message
}

// FileWriter implements ports.Writer on a buffered file.
// It is driven by a single goroutine and is not safe for concurrent use.
type FileWriter struct {
	path      string
	file      *os.File
	buf       *bufio.Writer
	format    ports.Formatter
	jsonArray bool
	written   int
	closed    bool
}

// OpenFileWriter opens path for writing, creating parent directories as needed.
func OpenFileWriter(path string, opts FileWriterOptions) (*FileWriter, error) {
	if opts.Formatter == nil {
		opts.Formatter = DefaultFormatter
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if opts.Append && !opts.JSONArray {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open output file: %w", err)
	}

	w := &FileWriter{
		path:      path,
		file:      f,
		buf:       bufio.NewWriterSize(f, writeBufferSize),
		format:    opts.Formatter,
		jsonArray: opts.JSONArray,
	}

	if w.jsonArray {
		if _, err := w.buf.WriteString("["); err != nil {
			f.Close()
			return nil, err
		}
	}

	return w, nil
}

// Write appends one formatted record.
func (w *FileWriter) Write(rec domain.Record) error {
	if w.closed {
		return domain.ErrClosed
	}

	line := w.format(rec)
	if w.jsonArray {
		if w.written > 0 {
			if _, err := w.buf.WriteString(elementSeparator); err != nil {
				return err
			}
		}
		if _, err := w.buf.WriteString(line); err != nil {
			return err
		}
	} else {
		if _, err := w.buf.WriteString(line); err != nil {
			return err
		}
		if err := w.buf.WriteByte('\n'); err != nil {
			return err
		}
	}

	w.written++
	return nil
}

// Flush writes buffered data to the file and syncs it.
func (w *FileWriter) Flush() error {
	if w.closed {
		return domain.ErrClosed
	}
	if err := w.buf.Flush(); err != nil {
		return err
	}
	return w.file.Sync()
}

// Close terminates the JSON array if needed, flushes, and closes the file.
func (w *FileWriter) Close() error {
	if w.closed {
		return domain.ErrClosed
	}
	w.closed = true

	var firstErr error
	if w.jsonArray {
		if _, err := w.buf.WriteString("]\n"); err != nil {
			firstErr = err
		}
	}
	if err := w.buf.Flush(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := w.file.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Path returns the output file path.
func (w *FileWriter) Path() string {
	return w.path
}
