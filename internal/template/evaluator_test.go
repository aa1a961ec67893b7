package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanshanhsieh/riptide/internal/space"
)

func TestDiscover_CollectsKnobsAndFreezes(t *testing.T) {
	sp, err := Discover(MatmulTile, []int64{512, 512})
	require.NoError(t, err)

	require.True(t, sp.Frozen(), "discovery must freeze the space")
	assert.Equal(t, int64(100), sp.Size(), "two 10-way split knobs over 512")

	ky, ok := sp.Knob("tile_y")
	require.True(t, ok)
	assert.Equal(t, 10, ky.Len())
	kx, ok := sp.Knob("tile_x")
	require.True(t, ok)
	assert.Equal(t, 10, kx.Len())
}

func TestDiscover_Idempotent(t *testing.T) {
	sp1, err := Discover(VecaddUnroll, []int64{1024})
	require.NoError(t, err)
	sp2, err := Discover(VecaddUnroll, []int64{1024})
	require.NoError(t, err)

	assert.Equal(t, sp1.Size(), sp2.Size())
	assert.Equal(t, sp1.Len(), sp2.Len())
	for i := 0; i < sp1.Len(); i++ {
		assert.Equal(t, sp1.KnobAt(i).Name(), sp2.KnobAt(i).Name())
		assert.Equal(t, sp1.KnobAt(i).Len(), sp2.KnobAt(i).Len())
	}
}

func TestDiscover_SurfacesDefinitionErrors(t *testing.T) {
	duplicate := func(ctx Context, sched *Schedule, args []int64) error {
		if err := ctx.DefineKnob("k", []space.Value{space.IntValue(1)}); err != nil {
			return err
		}
		return ctx.DefineKnob("k", []space.Value{space.IntValue(2)})
	}

	_, err := Discover(duplicate, nil)
	require.Error(t, err)
	assert.True(t, space.IsDefinitionError(err), "duplicate knob must surface as DefinitionError")
}

func TestApply_MaterializesBoundValues(t *testing.T) {
	sp, err := Discover(MatmulTile, []int64{512, 512})
	require.NoError(t, err)

	e, err := sp.Entity(0)
	require.NoError(t, err)

	sched, err := Apply(MatmulTile, e, []int64{512, 512})
	require.NoError(t, err)

	require.Equal(t, 2, sched.Len())
	assert.Equal(t, "split(y,[1,512]); split(x,[1,512])", sched.String())
}

func TestApply_Deterministic(t *testing.T) {
	sp, err := Discover(VecaddUnroll, []int64{1024})
	require.NoError(t, err)

	e, err := sp.Entity(17)
	require.NoError(t, err)

	s1, err := Apply(VecaddUnroll, e, []int64{1024})
	require.NoError(t, err)
	s2, err := Apply(VecaddUnroll, e, []int64{1024})
	require.NoError(t, err)

	assert.Equal(t, s1.String(), s2.String(), "apply mode must be deterministic")
	assert.Equal(t, s1.Directives(), s2.Directives())
}

func TestApply_DistinctEntitiesDistinctSchedules(t *testing.T) {
	sp, err := Discover(MatmulTile, []int64{512, 512})
	require.NoError(t, err)

	e0, err := sp.Entity(0)
	require.NoError(t, err)
	e1, err := sp.Entity(1)
	require.NoError(t, err)

	s0, err := Apply(MatmulTile, e0, []int64{512, 512})
	require.NoError(t, err)
	s1, err := Apply(MatmulTile, e1, []int64{512, 512})
	require.NoError(t, err)

	assert.NotEqual(t, s0.String(), s1.String())
}

func TestApplyContext_DefinesAreNoOps(t *testing.T) {
	sp, err := Discover(MatmulTile, []int64{512, 512})
	require.NoError(t, err)
	e, err := sp.Entity(5)
	require.NoError(t, err)

	ctx := NewApplyContext(e)
	require.NoError(t, ctx.DefineKnob("anything", nil))
	require.NoError(t, ctx.DefineSplit("anything", 0, 0))

	assert.Equal(t, int64(100), sp.Size(), "apply-mode definitions must not mutate the space")
}

func TestDiscoveryContext_ValueReturnsFirstElement(t *testing.T) {
	sp := space.New()
	ctx := NewDiscoveryContext(sp)
	require.NoError(t, ctx.DefineKnob("k", []space.Value{space.IntValue(7), space.IntValue(9)}))

	v, err := ctx.Value("k")
	require.NoError(t, err)
	assert.Equal(t, "7", v.Encode())

	_, err = ctx.Value("undefined")
	require.Error(t, err)
}
