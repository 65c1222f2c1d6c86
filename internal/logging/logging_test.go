package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		" DEBUG ": LevelDebug,
		"warn":    LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"info":    LevelInfo,
		"":        LevelInfo,
		"verbose": LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "input %q", in)
	}
}

func TestWriterSplitsLines(t *testing.T) {
	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug}))

	w := NewWriter(logger, "npm stdout")
	n, err := w.Write([]byte("added 12 packages\nfound 0 vuln"))
	assert.NoError(t, err)
	assert.Equal(t, len("added 12 packages\nfound 0 vuln"), n)
	assert.Contains(t, out.String(), `line="added 12 packages"`)
	assert.NotContains(t, out.String(), "found 0 vuln")

	_, _ = w.Write([]byte("erabilities\n\n"))
	assert.Contains(t, out.String(), `line="found 0 vulnerabilities"`)

	_, _ = w.Write([]byte("tail"))
	w.Flush()
	assert.Contains(t, out.String(), "line=tail")
	assert.Contains(t, out.String(), `source="npm stdout"`)
}
