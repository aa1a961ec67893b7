package tuner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanshanhsieh/riptide/internal/space"
)

func TestRandom_NeverRepeatsWhileUnexploredRemain(t *testing.T) {
	sp := enumSpace(t, 30)
	indices := drainTuner(t, NewRandom(7), sp, 10)

	require.Len(t, indices, 30)
	assertDistinct(t, indices)
}

func TestRandom_ExhaustedSpaceProposesNothing(t *testing.T) {
	sp := enumSpace(t, 4)
	r := NewRandom(1)

	batch, err := r.ProposeBatch(sp, 4)
	require.NoError(t, err)
	require.Len(t, batch, 4)

	batch, err = r.ProposeBatch(sp, 1)
	require.NoError(t, err)
	assert.Empty(t, batch)
}

func TestRandom_SameSeedSameSequence(t *testing.T) {
	a := drainTuner(t, NewRandom(42), enumSpace(t, 20), 5)
	b := drainTuner(t, NewRandom(42), enumSpace(t, 20), 5)
	assert.Equal(t, a, b, "sampling must be reproducible from the seed")
}

func TestRandom_LargeSpaceSamplesWithoutMaterializing(t *testing.T) {
	// 128^3 indices exceeds the materialization limit, forcing the
	// rejection path.
	values := make([]space.Value, 128)
	for i := range values {
		values[i] = space.IntValue(i)
	}
	sp := space.New()
	require.NoError(t, sp.DefineKnob("a", values))
	require.NoError(t, sp.DefineKnob("b", values))
	require.NoError(t, sp.DefineKnob("c", values))
	sp.Freeze()
	require.Greater(t, sp.Size(), materializeLimit)

	r := NewRandom(3)
	batch, err := r.ProposeBatch(sp, 64)
	require.NoError(t, err)
	require.Len(t, batch, 64)

	indices := make([]int64, len(batch))
	for i, e := range batch {
		indices[i] = e.Index()
	}
	assertDistinct(t, indices)
}
