package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanshanhsieh/riptide/internal/record"
)

func TestTune_GridEndToEnd(t *testing.T) {
	path := writeJobSpec(t, validJobCUE)
	out, _, err := execute(t, "tune", path)
	require.NoError(t, err)

	assert.Contains(t, out, "Best: index 0")
	assert.Contains(t, out, "0.2960 ms")
	assert.Contains(t, out, "Schedule: split(y,[1,4]); split(x,[1,4])")

	// Every trial landed in the log next to the spec.
	logPath := filepath.Join(filepath.Dir(path), "trials.jsonl")
	var records []record.Record
	require.NoError(t, record.ForEachInFile(context.Background(), logPath, func(r record.Record) error {
		records = append(records, r)
		return nil
	}))
	assert.Len(t, records, 9)
}

func TestTune_JSONOutput(t *testing.T) {
	path := writeJobSpec(t, validJobCUE)
	out, _, err := execute(t, "--format", "json", "tune", path)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result TuneResult
	require.NoError(t, json.Unmarshal(data, &result))

	assert.Equal(t, "matmul_tile", result.Task)
	assert.Equal(t, "[4,4]", result.Args)
	assert.Equal(t, int64(9), result.SpaceSize)
	assert.Equal(t, 9, result.Trials)
	require.NotNil(t, result.Best)
	assert.Equal(t, int64(0), result.Best.Index)
}

func TestTune_StoreMirror(t *testing.T) {
	path := writeJobSpec(t, `
job: {
	task:     "matmul_tile"
	args:     [4, 4]
	strategy: "grid"
	trials:   9
	batch:    3
	store:    "trials.db"
}
`)
	_, _, err := execute(t, "tune", path)
	require.NoError(t, err)

	store, err := record.OpenStore(filepath.Join(filepath.Dir(path), "trials.db"))
	require.NoError(t, err)
	defer store.Close()
	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(9), count)
}

func TestTune_InvalidSpecFailsWithCommandError(t *testing.T) {
	path := writeJobSpec(t, `
job: {
	task: "conv9000"
	args: [1]
}
`)
	_, _, err := execute(t, "tune", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTune_MissingSpecPath(t *testing.T) {
	_, _, err := execute(t, "tune", filepath.Join(t.TempDir(), "nope.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTune_ResumeAppendsToExistingLog(t *testing.T) {
	path := writeJobSpec(t, `
job: {
	task:     "vecadd_unroll"
	args:     [64]
	strategy: "random"
	seed:     3
	trials:   5
	batch:    5
}
`)
	_, _, err := execute(t, "tune", path)
	require.NoError(t, err)
	_, _, err = execute(t, "tune", path)
	require.NoError(t, err)

	logPath := filepath.Join(filepath.Dir(path), "trials.jsonl")
	count := 0
	sessions := map[string]struct{}{}
	require.NoError(t, record.ForEachInFile(context.Background(), logPath, func(r record.Record) error {
		count++
		sessions[r.Session] = struct{}{}
		return nil
	}))
	assert.Equal(t, 10, count, "second session appends, never truncates")
	assert.Len(t, sessions, 2, "each run gets its own session token")

	// The log file survives as plain JSONL.
	info, err := os.Stat(logPath)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}
