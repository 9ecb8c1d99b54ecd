package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// JSONLWriter writes one JSON record per line.
// Each record is encoded in full before it is written, and writes are
// serialised, so concurrent callers never produce interleaved lines.
type JSONLWriter struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
}

// NewJSONLWriter writes records to w.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	return &JSONLWriter{w: w}
}

// OpenJSONL opens path for appending, creating it and its parent
// directories if needed. The file is created with mode 0600.
func OpenJSONL(path string) (*JSONLWriter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
	}
	f, err := os.OpenFile(filepath.Clean(path), os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return &JSONLWriter{w: f, closer: f}, nil
}

// Write appends rec as one line.
func (j *JSONLWriter) Write(rec Record) error {
	line, err := EncodeRecord(rec)
	if err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.w.Write(line); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// Close closes the underlying file if the writer owns one.
func (j *JSONLWriter) Close() error {
	if j.closer == nil {
		return nil
	}
	return j.closer.Close()
}

// EncodeRecord returns rec as a single newline-terminated JSON line.
// HTML characters are written as-is rather than as \u escapes.
func EncodeRecord(rec Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rec); err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	return buf.Bytes(), nil
}
