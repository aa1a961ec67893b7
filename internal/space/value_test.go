package space

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_EncodeParseRoundTrip(t *testing.T) {
	values := []Value{
		IntValue(0),
		IntValue(512),
		IntValue(-3),
		StringValue("vectorize"),
		TupleValue{4, 128},
		TupleValue{},
	}
	for _, v := range values {
		parsed, err := ParseValue(v.Encode())
		require.NoError(t, err, "encoding %q should parse", v.Encode())
		assert.Equal(t, v.Encode(), parsed.Encode())
	}
}

func TestParseValue_MalformedTuple(t *testing.T) {
	_, err := ParseValue("[1,2")
	require.Error(t, err)

	_, err = ParseValue("[1,x]")
	require.Error(t, err)
}

func TestMarshalCanonical_SortedKeysNoEscaping(t *testing.T) {
	b, err := MarshalCanonical(map[string]any{
		"b": "x<y",
		"a": int64(1),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":"x<y"}`, string(b))
}

func TestMarshalCanonical_RejectsFloatsAndNull(t *testing.T) {
	_, err := MarshalCanonical(nil)
	require.Error(t, err)

	_, err = MarshalCanonical(3.14)
	require.Error(t, err)
}

func TestTaskHash_Stable(t *testing.T) {
	h1, err := TaskHash("matmul", "[512,512]", "llvm-sim")
	require.NoError(t, err)
	h2, err := TaskHash("matmul", "[512,512]", "llvm-sim")
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	h3, err := TaskHash("matmul", "[256,256]", "llvm-sim")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}
