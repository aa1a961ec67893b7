package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tuneFixture runs a grid tune and returns the spec directory.
func tuneFixture(t *testing.T, extra string) string {
	t.Helper()
	path := writeJobSpec(t, `
job: {
	task:     "matmul_tile"
	args:     [4, 4]
	strategy: "grid"
	trials:   9
	batch:    3
`+extra+`
}
`)
	_, _, err := execute(t, "tune", path)
	require.NoError(t, err)
	return filepath.Dir(path)
}

func TestBest_FromLog(t *testing.T) {
	dir := tuneFixture(t, "")

	out, _, err := execute(t, "best",
		"--log", filepath.Join(dir, "trials.jsonl"),
		"--task", "matmul_tile",
		"--args", "4,4")
	require.NoError(t, err)

	assert.Contains(t, out, "Best for matmul_tile[4,4]@llvm-sim: index 0")
	assert.Contains(t, out, "tile_y=[1,4]")
	assert.Contains(t, out, "Schedule: split(y,[1,4]); split(x,[1,4])")
}

func TestBest_FromStore(t *testing.T) {
	dir := tuneFixture(t, "\n\tstore: \"trials.db\"")

	out, _, err := execute(t, "best",
		"--store", filepath.Join(dir, "trials.db"),
		"--task", "matmul_tile",
		"--args", "4,4")
	require.NoError(t, err)
	assert.Contains(t, out, "index 0")
}

func TestBest_UnknownTaskKeyFails(t *testing.T) {
	dir := tuneFixture(t, "")

	_, _, err := execute(t, "best",
		"--log", filepath.Join(dir, "trials.jsonl"),
		"--task", "matmul_tile",
		"--args", "512,512")
	require.Error(t, err, "no record matches the 512x512 key")
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestBest_RequiresExactlyOneSource(t *testing.T) {
	_, _, err := execute(t, "best", "--task", "matmul_tile")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, _, err = execute(t, "best", "--task", "matmul_tile",
		"--log", "a.jsonl", "--store", "b.db")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestParseArgList(t *testing.T) {
	args, err := parseArgList("512, 512")
	require.NoError(t, err)
	assert.Equal(t, []int64{512, 512}, args)

	args, err = parseArgList("")
	require.NoError(t, err)
	assert.Nil(t, args)

	_, err = parseArgList("4,x")
	require.Error(t, err)
}

func TestArgSig(t *testing.T) {
	assert.Equal(t, "[512,512]", argSig([]int64{512, 512}))
	assert.Equal(t, "[]", argSig(nil))
}
