package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestRunAllWritesFilesAndSummary(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "outputs")
	var active, peak int32
	run := func(_ context.Context, id string) ([]byte, []byte, error) {
		n := atomic.AddInt32(&active, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		switch id {
		case "bad":
			return nil, []byte("boom"), errors.New("exit status 1")
		case "raw":
			return []byte("not json"), nil, nil
		}
		return []byte(`{"player":{"uscf_id":"` + id + `"},"games":{}}`), nil, nil
	}

	results, err := runAll(context.Background(), []string{"1", "2", "bad", "raw"}, 2, dir, run, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.True(t, results[0].Success)
	assert.False(t, results[2].Success)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))

	data, err := os.ReadFile(filepath.Join(dir, "chess-games-bad.json"))
	require.NoError(t, err)
	var failure map[string]string
	require.NoError(t, json.Unmarshal(data, &failure))
	assert.Equal(t, "bad", failure["player_id"])
	assert.Equal(t, "boom", failure["stderr"])
	assert.Contains(t, failure["error"], "Failed to scrape games for player ID bad")

	path, err := writeSummary(dir)
	require.NoError(t, err)
	summary, err := os.ReadFile(path)
	require.NoError(t, err)

	var got map[string]map[string]any
	require.NoError(t, json.Unmarshal(summary, &got))
	assert.Len(t, got, 4)
	assert.Equal(t, map[string]any{"raw_output": "not json"}, got["raw"])
	assert.Equal(t, "bad", got["bad"]["player_id"])
	assert.Equal(t, map[string]any{"uscf_id": "1"}, got["1"]["player"])
}

func TestExecRunnerTimeout(t *testing.T) {
	if _, err := os.Stat("/bin/sleep"); err != nil {
		t.Skip("sleep not available")
	}
	run := execRunner("/bin/sleep", 20*time.Millisecond)
	_, _, err := run(context.Background(), "5")
	assert.ErrorContains(t, err, "timeout")
}

func TestRunAllRejectsPathIDs(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "outputs")
	var calls int32
	run := func(context.Context, string) ([]byte, []byte, error) {
		atomic.AddInt32(&calls, 1)
		return []byte(`{}`), nil, nil
	}

	results, err := runAll(context.Background(), []string{"../x", `a\b`, "..", "7"}, 2, dir, run, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.False(t, results[0].Success)
	assert.Empty(t, results[0].File)
	assert.True(t, results[3].Success)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "nothing is written next to the output directory")
	written, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, written, 1)
	assert.Equal(t, "chess-games-7.json", written[0].Name())
}
