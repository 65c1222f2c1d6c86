package ghoutput

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAppendsSortedSanitizedOutputs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output")
	require.NoError(t, os.WriteFile(path, []byte("existing=1\n"), 0o600))
	t.Setenv("GITHUB_OUTPUT", path)

	require.NoError(t, Write(map[string]string{"version": "1.2.0", "tag": "v1.2.0", "notes": "a\nb", " ": "x"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "existing=1\nnotes=a%0Ab\ntag=v1.2.0\nversion=1.2.0\n", string(data))
}

func TestWriteWithoutGitHubOutput(t *testing.T) {
	t.Setenv("GITHUB_OUTPUT", "")
	assert.NoError(t, Write(map[string]string{"version": "1.0.0"}))
}
