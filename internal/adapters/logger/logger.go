// Package logger implements a logging adapter using log/slog.
package logger

import (
	"io"
	"log/slog"
	"os"
	"sync"

	"go.trai.ch/prefab/internal/core/ports"
)

// DocumentKey is the attribute naming the document an entry belongs to. Pretty output
// renders it as a prefix so concurrent document passes stay readable.
const DocumentKey = "document"

// sink is the destination shared by a logger and all loggers derived from it.
type sink struct {
	mu       sync.RWMutex
	handler  slog.Handler
	output   io.Writer
	jsonMode bool
}

func (s *sink) reset() {
	if s.output == nil {
		s.output = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if s.jsonMode {
		s.handler = slog.NewJSONHandler(s.output, opts)
		return
	}
	s.handler = NewPrettyHandler(s.output, opts)
}

// Logger implements ports.Logger using log/slog.
type Logger struct {
	sink  *sink
	attrs []slog.Attr
}

// New creates a new Logger instance writing pretty output to stderr.
func New() ports.Logger {
	s := &sink{output: os.Stderr}
	s.reset()
	return &Logger{sink: s}
}

// SetOutput updates the destination of this logger and every logger derived from it,
// preserving the JSON mode. If w is nil, os.Stderr is used.
func (l *Logger) SetOutput(w io.Writer) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	l.sink.output = w
	l.sink.reset()
}

// SetJSON switches between JSON and pretty logging, preserving the output destination.
func (l *Logger) SetJSON(enable bool) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	l.sink.jsonMode = enable
	l.sink.reset()
}

// With returns a logger sharing this logger's destination that adds key=value to every entry.
func (l *Logger) With(key, value string) ports.Logger {
	attrs := make([]slog.Attr, len(l.attrs), len(l.attrs)+1)
	copy(attrs, l.attrs)
	return &Logger{sink: l.sink, attrs: append(attrs, slog.String(key, value))}
}

func (l *Logger) slog() (*slog.Logger, bool) {
	l.sink.mu.RLock()
	defer l.sink.mu.RUnlock()

	h := l.sink.handler
	if len(l.attrs) > 0 {
		h = h.WithAttrs(l.attrs)
	}
	return slog.New(h), l.sink.jsonMode
}

// Info logs an informational message.
func (l *Logger) Info(msg string) {
	lg, _ := l.slog()
	lg.Info(msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string) {
	lg, _ := l.slog()
	lg.Warn(msg)
}

// Error logs an error. Pretty output renders the zerr chain hierarchically.
func (l *Logger) Error(err error) {
	if err == nil {
		return
	}

	lg, jsonMode := l.slog()
	if jsonMode {
		lg.Error("operation failed", "error", err)
		return
	}
	lg.Error(formatErrorEntries(collectErrorEntries(err)))
}
