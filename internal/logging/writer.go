package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
)

// Writer is an io.Writer that forwards child process output to slog, one record per line.
// Partial lines are buffered until a newline or Flush.
type Writer struct {
	logger *slog.Logger
	level  slog.Level
	source string
	buf    bytes.Buffer
}

// NewWriter constructs a Writer bound to the provided logger.
// Lines are logged at debug level and tagged with source (e.g. "npm stdout").
func NewWriter(logger *slog.Logger, source string) *Writer {
	return &Writer{logger: logger, level: slog.LevelDebug, source: source}
}

// Write logs every complete line in p.
func (w *Writer) Write(p []byte) (int, error) {
	w.buf.Write(p)
	for {
		idx := bytes.IndexByte(w.buf.Bytes(), '\n')
		if idx < 0 {
			break
		}
		line := string(w.buf.Next(idx + 1))
		w.emit(line)
	}
	return len(p), nil
}

// Flush logs any buffered partial line.
func (w *Writer) Flush() {
	if w.buf.Len() == 0 {
		return
	}
	w.emit(w.buf.String())
	w.buf.Reset()
}

func (w *Writer) emit(line string) {
	if w.logger == nil {
		return
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return
	}
	w.logger.Log(context.Background(), w.level, "command output", "source", w.source, "line", line)
}
