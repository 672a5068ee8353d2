package logging

import (
	"strings"
	"sync"
)

// LogCaptureWriter keeps the most recent lines written to it.
type LogCaptureWriter struct {
	mu    sync.RWMutex
	lines []string
	size  int
}

// NewLogCaptureWriter keeps up to size lines (at least one).
func NewLogCaptureWriter(size int) *LogCaptureWriter {
	return &LogCaptureWriter{size: max(size, 1)}
}

// GlobalLogCapture holds the latest INFO+ server log line.
var GlobalLogCapture = NewLogCaptureWriter(1)

// GlobalEventCapture holds the recent flight events.
var GlobalEventCapture = NewLogCaptureWriter(20)

// Write implements io.Writer. Each call is one line.
func (w *LogCaptureWriter) Write(p []byte) (n int, err error) {
	line := strings.TrimRight(string(p), "\n")
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.lines) == w.size {
		copy(w.lines, w.lines[1:])
		w.lines = w.lines[:w.size-1]
	}
	w.lines = append(w.lines, line)
	return len(p), nil
}

// GetLastLine returns the most recent line, or "" before the first write.
func (w *LogCaptureWriter) GetLastLine() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if len(w.lines) == 0 {
		return ""
	}
	return w.lines[len(w.lines)-1]
}

// Lines returns the kept lines, oldest first.
func (w *LogCaptureWriter) Lines() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]string(nil), w.lines...)
}
