package tuner

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wanshanhsieh/riptide/internal/measure"
	"github.com/wanshanhsieh/riptide/internal/space"
	"github.com/wanshanhsieh/riptide/internal/template"
)

// enumSpace builds a frozen space with one enum knob of n int values.
// Entity indices equal knob ordinals, which keeps assertions direct.
func enumSpace(t *testing.T, n int) *space.Space {
	t.Helper()
	values := make([]space.Value, n)
	for i := range values {
		values[i] = space.IntValue(i)
	}
	sp := space.New()
	require.NoError(t, sp.DefineKnob("x", values))
	sp.Freeze()
	return sp
}

// pairSpace builds a frozen two-knob space of size rows*cols.
func pairSpace(t *testing.T, rows, cols int) *space.Space {
	t.Helper()
	rv := make([]space.Value, rows)
	for i := range rv {
		rv[i] = space.IntValue(i)
	}
	cv := make([]space.Value, cols)
	for i := range cv {
		cv[i] = space.IntValue(i)
	}
	sp := space.New()
	require.NoError(t, sp.DefineKnob("row", rv))
	require.NoError(t, sp.DefineKnob("col", cv))
	sp.Freeze()
	return sp
}

// vecaddTask builds the 42-point vector-add tuning task.
func vecaddTask(t *testing.T) *template.Task {
	t.Helper()
	task, err := template.NewTask("vecadd_unroll", template.VecaddUnroll, []int64{64}, "llvm-sim")
	require.NoError(t, err)
	return task
}

// successResults fabricates successful measurements where the latency
// of each entity is its flat index plus one.
func successResults(batch []*space.Entity) []measure.Result {
	results := make([]measure.Result, len(batch))
	for i, e := range batch {
		results[i] = measure.Result{
			Status:    measure.StatusSuccess,
			Latencies: []float64{float64(e.Index() + 1)},
		}
	}
	return results
}

// drainTuner runs propose/update rounds until the strategy reports
// exhaustion, returning every proposed index in order.
func drainTuner(t *testing.T, tn Tuner, sp *space.Space, batchSize int) []int64 {
	t.Helper()
	var indices []int64
	for {
		batch, err := tn.ProposeBatch(sp, batchSize)
		require.NoError(t, err)
		if len(batch) == 0 {
			return indices
		}
		for _, e := range batch {
			indices = append(indices, e.Index())
		}
		tn.Update(batch, successResults(batch))
	}
}

// assertDistinct fails when any index repeats.
func assertDistinct(t *testing.T, indices []int64) {
	t.Helper()
	seen := make(map[int64]int, len(indices))
	for pos, index := range indices {
		prev, dup := seen[index]
		require.False(t, dup, "index %d proposed at positions %d and %d", index, prev, pos)
		seen[index] = pos
	}
}
