package tuner

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanshanhsieh/riptide/internal/measure"
	"github.com/wanshanhsieh/riptide/internal/record"
	"github.com/wanshanhsieh/riptide/internal/space"
	"github.com/wanshanhsieh/riptide/internal/template"
	"github.com/wanshanhsieh/riptide/internal/testutil"
)

// openSessionLog creates a fresh persistence log under t.TempDir.
func openSessionLog(t *testing.T) (*record.FileLog, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trials.jsonl")
	log, err := record.OpenFileLog(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = log.Close() })
	return log, path
}

// readRecords replays every record in the log file.
func readRecords(t *testing.T, path string) []record.Record {
	t.Helper()
	var records []record.Record
	err := record.ForEachInFile(context.Background(), path, func(r record.Record) error {
		records = append(records, r)
		return nil
	})
	require.NoError(t, err)
	return records
}

func TestSession_TenTrialsPersistTenDistinctRecords(t *testing.T) {
	task := vecaddTask(t)
	runner := &testutil.Runner{}
	log, path := openSessionLog(t)
	clock := testutil.NewClock(0)

	session := NewSession(task, runner, NewRandom(1), log, NewFixedGenerator("sess-0001"),
		WithClock(clock.NowUnixMs))
	best, err := session.Tune(context.Background(), Options{NTrial: 10, BatchSize: 4})
	require.NoError(t, err)
	require.NotNil(t, best)

	records := readRecords(t, path)
	require.Len(t, records, 10, "one record per trial")

	indices := make([]int64, len(records))
	for i, r := range records {
		indices[i] = r.Index
		assert.Equal(t, "sess-0001", r.Session)
		assert.Equal(t, "vecadd_unroll", r.Template)
		assert.Equal(t, "[64]", r.ArgSig)
		assert.Equal(t, "llvm-sim", r.Target)
		assert.Equal(t, int64(i+1), r.AtUnixMs, "injected clock advances per record")
		assert.NotEmpty(t, r.Knobs)
	}
	assertDistinct(t, indices)
}

func TestSession_BuildFailuresNeverAbort(t *testing.T) {
	task := vecaddTask(t)
	runner := &testutil.Runner{
		Fail: map[int64]measure.Status{
			0: measure.StatusBuildError,
			1: measure.StatusBuildError,
		},
	}
	log, path := openSessionLog(t)

	session := NewSession(task, runner, NewGrid(), log, NewFixedGenerator("sess-0002"))
	best, err := session.Tune(context.Background(), Options{NTrial: 6, BatchSize: 3})
	require.NoError(t, err, "failed candidates are data, not errors")
	require.NotNil(t, best)
	assert.Equal(t, int64(2), best.Entity.Index(), "first feasible index wins under index cost")
	assert.Equal(t, 3.0, best.MeanLatency)

	records := readRecords(t, path)
	require.Len(t, records, 6)
	assert.Equal(t, "build_error", records[0].Status)
	assert.Equal(t, "build_error", records[1].Status)
	assert.Equal(t, "success", records[2].Status)
}

func TestSession_UnreachableDeviceIsFatal(t *testing.T) {
	task := vecaddTask(t)
	runner := &testutil.Runner{PingErr: errors.New("device unreachable")}

	session := NewSession(task, runner, NewGrid(), nil, nil)
	best, err := session.Tune(context.Background(), Options{NTrial: 4})
	require.Error(t, err)
	assert.Nil(t, best)
	assert.Zero(t, runner.Batches(), "no measurements after a failed ping")
}

func TestSession_EarlyStoppingOnStaleTrials(t *testing.T) {
	task := vecaddTask(t)
	// Flat cost: the first trial sets the best, nothing improves on it.
	runner := &testutil.Runner{Cost: func(*space.Entity) float64 { return 1.0 }}

	session := NewSession(task, runner, NewGrid(), nil, nil)
	best, err := session.Tune(context.Background(), Options{
		NTrial:        40,
		BatchSize:     2,
		EarlyStopping: 4,
	})
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, 1, best.Trial)
	assert.Len(t, runner.Measured(), 6, "stop at the first batch boundary with 4 stale trials")
}

func TestSession_CancelBetweenBatches(t *testing.T) {
	task := vecaddTask(t)
	runner := &testutil.Runner{}
	log, path := openSessionLog(t)

	ctx, cancel := context.WithCancel(context.Background())
	session := NewSession(task, runner, NewGrid(), log, NewFixedGenerator("sess-0003"))
	best, err := session.Tune(ctx, Options{NTrial: 20, BatchSize: 5},
		func(Progress) { cancel() })
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, best, "best-so-far survives cancellation")

	records := readRecords(t, path)
	assert.Len(t, records, 5, "only the completed batch is recorded")
}

func TestSession_CancelDuringMeasurePersistsCompletedBatch(t *testing.T) {
	task := vecaddTask(t)
	ctx, cancel := context.WithCancel(context.Background())
	// Cancel while the first batch is being measured. The completed
	// measurements must still reach the log; the cancellation takes
	// effect at the next batch boundary.
	runner := &testutil.Runner{Cost: func(*space.Entity) float64 {
		cancel()
		return 1.0
	}}
	log, path := openSessionLog(t)

	session := NewSession(task, runner, NewGrid(), log, NewFixedGenerator("sess-0006"))
	best, err := session.Tune(ctx, Options{NTrial: 9, BatchSize: 3})
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, best)

	records := readRecords(t, path)
	assert.Len(t, records, 3, "every measured candidate of the batch is recorded")
}

func TestSession_StopsWhenSpaceExhausted(t *testing.T) {
	task := vecaddTask(t)
	runner := &testutil.Runner{}
	log, path := openSessionLog(t)

	session := NewSession(task, runner, NewGrid(), log, NewFixedGenerator("sess-0004"))
	best, err := session.Tune(context.Background(), Options{NTrial: 100, BatchSize: 8})
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, int64(0), best.Entity.Index())
	assert.Equal(t, 1.0, best.MeanLatency)

	records := readRecords(t, path)
	assert.Len(t, records, 42, "a 100-trial budget cannot exceed the space size")
}

func TestSession_RejectsNonPositiveTrialBudget(t *testing.T) {
	task := vecaddTask(t)
	session := NewSession(task, &testutil.Runner{}, NewGrid(), nil, nil)

	_, err := session.Tune(context.Background(), Options{NTrial: 0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NTrial")
}

func TestSession_RandomSamplesHundredPointSpace(t *testing.T) {
	// 512 split into 2 parts gives 10 factorizations per axis, so the
	// two tile knobs span exactly 100 combinations.
	task, err := template.NewTask("matmul_tile", template.MatmulTile, []int64{512, 512}, "llvm-sim")
	require.NoError(t, err)
	require.Equal(t, int64(100), task.Space.Size())

	runner := &testutil.Runner{
		Fail: map[int64]measure.Status{7: measure.StatusBuildError},
	}
	log, path := openSessionLog(t)

	session := NewSession(task, runner, NewRandom(3), log, NewFixedGenerator("sess-0005"))
	_, err = session.Tune(context.Background(), Options{NTrial: 10, BatchSize: 4})
	require.NoError(t, err)

	records := readRecords(t, path)
	require.Len(t, records, 10)

	indices := make([]int64, len(records))
	for i, r := range records {
		indices[i] = r.Index
		if r.Status == "success" {
			assert.NotEmpty(t, r.Latencies)
		} else {
			assert.NotEmpty(t, r.Err, "failed trials carry an error marker")
		}
	}
	assertDistinct(t, indices)
}

func TestSession_ProgressCallbackSeesRunningBest(t *testing.T) {
	task := vecaddTask(t)
	runner := &testutil.Runner{}

	var seen []Progress
	session := NewSession(task, runner, NewGrid(), nil, nil)
	_, err := session.Tune(context.Background(), Options{NTrial: 6, BatchSize: 3},
		func(p Progress) { seen = append(seen, p) })
	require.NoError(t, err)

	require.Len(t, seen, 2)
	assert.Equal(t, 3, seen[0].Trials)
	assert.Equal(t, 6, seen[1].Trials)
	require.NotNil(t, seen[0].Best)
	assert.Equal(t, 1.0, seen[0].Best.MeanLatency, "grid order makes index 0 the running best")
}
