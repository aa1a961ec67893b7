package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanshanhsieh/riptide/internal/space"
)

func sampleRecord(index int64, status string, latencies ...float64) Record {
	return Record{
		Session:   "sess-1",
		Template:  "matmul_tile",
		ArgSig:    "[512,512]",
		Target:    "llvm-sim",
		Index:     index,
		Knobs:     []space.Pair{{Name: "tile_y", Value: "[16,32]"}, {Name: "tile_x", Value: "[4,128]"}},
		Status:    status,
		Latencies: latencies,
		AtUnixMs:  1700000000000,
	}
}

func TestRecord_LineRoundTrip(t *testing.T) {
	r := sampleRecord(42, "success", 0.125, 0.25)

	line, err := r.MarshalLine()
	require.NoError(t, err)
	assert.Equal(t, byte('\n'), line[len(line)-1], "a record is exactly one line")

	parsed, err := ParseLine(line[:len(line)-1])
	require.NoError(t, err)
	assert.Equal(t, r, parsed)
}

func TestRecord_FailureMarker(t *testing.T) {
	r := sampleRecord(7, "build_error")
	r.Err = "vectorize requires inner factor divisible by 4"

	line, err := r.MarshalLine()
	require.NoError(t, err)
	parsed, err := ParseLine(line[:len(line)-1])
	require.NoError(t, err)

	assert.False(t, parsed.OK())
	assert.Empty(t, parsed.Latencies)
	assert.NotEmpty(t, parsed.Err)
}

func TestRecord_Mean(t *testing.T) {
	r := sampleRecord(0, "success", 1.0, 3.0)
	assert.Equal(t, 2.0, r.Mean())

	assert.Equal(t, 0.0, sampleRecord(0, "timeout").Mean())
}

func TestRecord_ID_Idempotent(t *testing.T) {
	a := sampleRecord(3, "success", 0.5)
	b := sampleRecord(3, "success", 0.5)

	ida, err := a.ID()
	require.NoError(t, err)
	idb, err := b.ID()
	require.NoError(t, err)
	assert.Equal(t, ida, idb, "same session/task/index gives the same id")

	c := sampleRecord(4, "success", 0.5)
	idc, err := c.ID()
	require.NoError(t, err)
	assert.NotEqual(t, ida, idc)
}

func TestKey_String(t *testing.T) {
	k := Key{Template: "matmul_tile", ArgSig: "[512,512]", Target: "llvm-sim"}
	assert.Equal(t, "matmul_tile[512,512]@llvm-sim", k.String())
}
