package record

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTee_AppendsToEverySink(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trials.jsonl")

	fileLog, err := OpenFileLog(path)
	require.NoError(t, err)
	store, err := OpenStore(filepath.Join(dir, "trials.db"))
	require.NoError(t, err)

	log := Tee(fileLog, store)
	require.NoError(t, log.Append(context.Background(), sampleRecord(3, "success", 1.5)))
	require.NoError(t, log.Close())

	var fromFile []Record
	require.NoError(t, ForEachInFile(context.Background(), path, func(r Record) error {
		fromFile = append(fromFile, r)
		return nil
	}))
	assert.Len(t, fromFile, 1)

	reopened, err := OpenStore(filepath.Join(dir, "trials.db"))
	require.NoError(t, err)
	defer reopened.Close()
	count, err := reopened.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
