package space

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is a sealed interface over the types a knob domain may hold.
// Only IntValue, StringValue, and TupleValue implement it.
// NO float values - domains are exact and enumerable.
type Value interface {
	value() // Sealed - only these types implement it

	// Encode returns the canonical string form of the value, used for
	// persistence records and content hashing. Encodings are unique
	// within a domain.
	Encode() string
}

// IntValue is a plain enumerated integer (e.g. an unroll factor).
type IntValue int64

func (IntValue) value() {}

// Encode returns the decimal form, e.g. "16".
func (v IntValue) Encode() string { return strconv.FormatInt(int64(v), 10) }

// StringValue is an enumerated symbolic choice (e.g. an annotation).
type StringValue string

func (StringValue) value() {}

// Encode returns the string itself.
func (v StringValue) Encode() string { return string(v) }

// TupleValue is an ordered integer tuple. Split knobs use it for
// outer-to-inner factor lists; reorder knobs use it for axis
// permutations (positions into the declared axis list).
type TupleValue []int

func (TupleValue) value() {}

// Encode returns a bracketed comma-joined form, e.g. "[4,128]".
func (v TupleValue) Encode() string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// ParseValue parses the canonical string form produced by Encode back
// into a Value. Tuples are bracketed, integers are bare decimals, and
// anything else round-trips as a StringValue.
func ParseValue(s string) (Value, error) {
	if strings.HasPrefix(s, "[") {
		if !strings.HasSuffix(s, "]") {
			return nil, fmt.Errorf("malformed tuple value %q", s)
		}
		inner := strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
		if inner == "" {
			return TupleValue{}, nil
		}
		parts := strings.Split(inner, ",")
		tuple := make(TupleValue, len(parts))
		for i, p := range parts {
			n, err := strconv.Atoi(p)
			if err != nil {
				return nil, fmt.Errorf("malformed tuple value %q: %w", s, err)
			}
			tuple[i] = n
		}
		return tuple, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return IntValue(n), nil
	}
	return StringValue(s), nil
}
