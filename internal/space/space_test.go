package space

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpace_DefineKnob(t *testing.T) {
	s := New()

	err := s.DefineKnob("unroll", []Value{IntValue(1), IntValue(2), IntValue(4)})
	require.NoError(t, err)

	k, ok := s.Knob("unroll")
	require.True(t, ok, "knob should be registered")
	assert.Equal(t, KindEnum, k.Kind())
	assert.Equal(t, 3, k.Len())
	assert.Equal(t, int64(3), s.Size())
}

func TestSpace_DefineKnob_Duplicate(t *testing.T) {
	s := New()
	require.NoError(t, s.DefineKnob("unroll", []Value{IntValue(1)}))

	err := s.DefineKnob("unroll", []Value{IntValue(2)})
	require.Error(t, err)

	var de *DefinitionError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, ErrCodeDuplicateKnob, de.Code)
	assert.Equal(t, "unroll", de.Knob)
}

func TestSpace_DefineKnob_EmptyDomain(t *testing.T) {
	s := New()

	err := s.DefineKnob("empty", nil)
	var de *DefinitionError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, ErrCodeEmptyDomain, de.Code)
}

func TestSpace_DefineSplit_PowerOfTwo(t *testing.T) {
	// Splitting 512 into 2 parts: one candidate per divisor of 512,
	// so exactly 10 (1, 2, 4, ..., 512).
	s := New()
	require.NoError(t, s.DefineSplit("tile_y", 512, 2))

	k, ok := s.Knob("tile_y")
	require.True(t, ok)
	assert.Equal(t, 10, k.Len())

	// First and last candidates in enumeration order.
	assert.Equal(t, "[1,512]", k.At(0).Encode())
	assert.Equal(t, "[512,1]", k.At(9).Encode())
}

func TestSpace_DefineSplit_TwoKnobsProduct(t *testing.T) {
	// Two independent 10-way split knobs give a 100-point space.
	s := New()
	require.NoError(t, s.DefineSplit("tile_y", 512, 2))
	require.NoError(t, s.DefineSplit("tile_x", 512, 2))

	assert.Equal(t, int64(100), s.Size())
}

func TestSpace_DefineSplit_Invalid(t *testing.T) {
	s := New()

	err := s.DefineSplit("bad", 0, 2)
	var de *DefinitionError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, ErrCodeInvalidSplit, de.Code)

	err = s.DefineSplit("bad", 16, 0)
	require.ErrorAs(t, err, &de)
	assert.Equal(t, ErrCodeInvalidSplit, de.Code)
}

func TestSpace_DefineSplit_HugeDomainRejected(t *testing.T) {
	// 2^62 split into 64 parts has roughly 2.4e36 factorizations, far
	// past the index range. The analytic count must refuse rather than
	// wrap and register a knob with a garbage length.
	s := New()
	err := s.DefineSplit("huge", 1<<62, 64)
	var de *DefinitionError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, ErrCodeInvalidSplit, de.Code)
	assert.Equal(t, "huge", de.Knob)
	assert.Equal(t, int64(1), s.Size(), "rejected knob leaves the space untouched")
}

func TestSpace_AppendGuardsSizeWithoutWrapping(t *testing.T) {
	// Each knob alone is fine: 2^40 into 9 parts gives C(48,8) =
	// 377348994 candidates, and two such knobs still fit the index
	// range (~1.4e17). A third pushes the product past 2^62, where a
	// multiply-then-compare guard would wrap int64 and wave it through.
	s := New()
	require.NoError(t, s.DefineSplit("a", 1<<40, 9))
	require.NoError(t, s.DefineSplit("b", 1<<40, 9))
	require.Equal(t, int64(377348994)*377348994, s.Size())

	err := s.DefineSplit("c", 1<<40, 9)
	var de *DefinitionError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, ErrCodeInvalidSplit, de.Code)
	assert.Equal(t, "c", de.Knob)
}

func TestSpace_DefineReorder(t *testing.T) {
	s := New()
	require.NoError(t, s.DefineReorder("order", []string{"i", "j", "k"}, nil))

	k, ok := s.Knob("order")
	require.True(t, ok)
	assert.Equal(t, 6, k.Len(), "3 axes admit 3! permutations")
	assert.Equal(t, "[0,1,2]", k.At(0).Encode(), "identity permutation enumerates first")
}

func TestSpace_DefineReorder_OuterFixed(t *testing.T) {
	s := New()
	require.NoError(t, s.DefineReorder("order", []string{"i", "j", "k"}, PolicyOuterFixed{}))

	k, _ := s.Knob("order")
	assert.Equal(t, 2, k.Len(), "outer axis pinned leaves 2! permutations")
}

func TestSpace_DefineAnnotate(t *testing.T) {
	s := New()
	require.NoError(t, s.DefineAnnotate("ann", []string{"none", "unroll", "vectorize"}))

	k, _ := s.Knob("ann")
	assert.Equal(t, KindAnnotate, k.Kind())
	assert.Equal(t, "none", k.At(0).Encode())
	assert.Equal(t, int64(3), s.Size())
}

func TestSpace_SizeIsProductOfDomains(t *testing.T) {
	s := New()
	require.NoError(t, s.DefineSplit("tile", 512, 2))                       // 10
	require.NoError(t, s.DefineReorder("order", []string{"i", "j"}, nil))   // 2
	require.NoError(t, s.DefineAnnotate("ann", []string{"none", "unroll"})) // 2

	assert.Equal(t, int64(40), s.Size())
}

func TestSpace_Freeze(t *testing.T) {
	s := New()
	require.NoError(t, s.DefineKnob("a", []Value{IntValue(1)}))
	require.False(t, s.Frozen())

	s.Freeze()
	require.True(t, s.Frozen())

	err := s.DefineKnob("b", []Value{IntValue(2)})
	var de *DefinitionError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, ErrCodeFrozenSpace, de.Code)
}

func TestSpace_EmptySpaceHasSizeOne(t *testing.T) {
	s := New()
	assert.Equal(t, int64(1), s.Size())
}
