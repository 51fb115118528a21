package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs(t *testing.T) {
	cmd, err := parseArgs([]string{"scrape", " 123 ", "me", "repo"})
	require.NoError(t, err)
	assert.Equal(t, command{kind: "scrape", value: "123", owner: "me", repo: "repo"}, cmd)

	cmd, err = parseArgs([]string{"import", "John Smith 1500"})
	require.NoError(t, err)
	assert.Equal(t, "John Smith 1500", cmd.value)
	assert.Empty(t, cmd.owner)

	file := filepath.Join(t.TempDir(), "in.txt")
	require.NoError(t, os.WriteFile(file, []byte("Ana Ruiz 1700\n"), 0o644))
	cmd, err = parseArgs([]string{"import", "-f", file, "me"})
	require.NoError(t, err)
	assert.Equal(t, "Ana Ruiz 1700\n", cmd.value)
	assert.Equal(t, "me", cmd.owner)
}

func TestParseArgsErrors(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{nil, "Usage"},
		{[]string{"scrape"}, "Usage"},
		{[]string{"deploy", "x"}, "Usage"},
		{[]string{"import", "-f"}, "requires a filename"},
		{[]string{"import", "-f", "/does/not/exist.txt"}, "File not found"},
		{[]string{"import", "   "}, "No text provided"},
	}
	for _, tt := range tests {
		_, err := parseArgs(tt.args)
		assert.ErrorContains(t, err, tt.want, tt.args)
	}
}

func TestRunMissingToken(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 1, run([]string{"scrape", "123"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "GITHUB_TOKEN environment variable is not set")
	assert.Empty(t, stdout.String())
}
