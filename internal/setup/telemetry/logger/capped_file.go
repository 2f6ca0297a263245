// Package logger provides log file writers.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// CappedFile is a log file that keeps roughly the last maxLines lines.
// Once twice that many lines have been written since the last trim, the file
// is rewritten with only the most recent maxLines.
type CappedFile struct {
	mu       sync.Mutex
	file     *os.File
	path     string
	recent   *ring
	maxLines int
	written  int
}

// OpenCappedFile opens path for appending. A non-positive maxLines disables trimming.
func OpenCappedFile(path string, maxLines int) (*CappedFile, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("cannot open log file %s: %w", path, err)
	}

	return &CappedFile{
		file:     file,
		path:     path,
		recent:   newRing(maxLines),
		maxLines: maxLines,
	}, nil
}

// Write implements io.Writer.
func (f *CappedFile) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n, err := f.file.Write(p)
	if err != nil || f.maxLines <= 0 {
		return n, err
	}

	for line := range strings.SplitSeq(strings.TrimRight(string(p), "\n"), "\n") {
		if line == "" {
			continue
		}
		f.recent.push(line)
		f.written++
	}

	if f.written >= 2*f.maxLines {
		if err := f.trim(); err != nil {
			return n, fmt.Errorf("failed to trim log file: %w", err)
		}
	}

	return n, nil
}

// Sync flushes the file to disk.
func (f *CappedFile) Sync() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.file.Sync()
}

// Close closes the underlying file.
func (f *CappedFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.file.Close()
}

// trim replaces the file with the recent lines through a temp file and rename.
func (f *CappedFile) trim() error {
	lines := f.recent.ordered()

	temp, err := os.CreateTemp(filepath.Dir(f.path), "trim-log-")
	if err != nil {
		return err
	}
	tempPath := temp.Name()

	if _, err := temp.WriteString(strings.Join(lines, "\n") + "\n"); err != nil {
		temp.Close()
		os.Remove(tempPath)
		return err
	}
	if err := temp.Close(); err != nil {
		os.Remove(tempPath)
		return err
	}

	f.file.Close()

	if err := os.Rename(tempPath, f.path); err != nil {
		return err
	}

	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	f.file = file
	f.written = len(lines)
	return nil
}
