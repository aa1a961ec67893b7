package space

import (
	"fmt"
	"strings"
)

// Entity is one concrete point in a frozen space: an ordinal chosen for
// every knob, in knob declaration order.
//
// Entities are immutable once constructed and decode to exactly one
// flat index via a mixed-radix codec where the first-declared knob is
// the most significant digit (row-major order).
type Entity struct {
	space *Space
	ords  []int
}

// Entity decodes a flat index in [0, Size()) into an entity.
// Returns a DecodeError for indices outside the range or when the space
// is not yet frozen.
func (s *Space) Entity(index int64) (*Entity, error) {
	if !s.frozen {
		return nil, &DecodeError{Index: index, Size: s.Size(), Message: "space is not frozen"}
	}
	size := s.Size()
	if index < 0 || index >= size {
		return nil, &DecodeError{Index: index, Size: size, Message: "index out of range"}
	}
	ords := make([]int, len(s.knobs))
	rem := index
	for i := len(s.knobs) - 1; i >= 0; i-- {
		radix := int64(s.knobs[i].length)
		ords[i] = int(rem % radix)
		rem /= radix
	}
	return &Entity{space: s, ords: ords}, nil
}

// EntityFromOrdinals constructs an entity from one ordinal per knob in
// declaration order. Returns a DecodeError when the vector length or
// any ordinal is out of range.
func (s *Space) EntityFromOrdinals(ords []int) (*Entity, error) {
	if !s.frozen {
		return nil, &DecodeError{Index: -1, Size: s.Size(), Message: "space is not frozen"}
	}
	if len(ords) != len(s.knobs) {
		return nil, &DecodeError{
			Index: -1, Size: s.Size(),
			Message: fmt.Sprintf("ordinal vector has %d entries, space has %d knobs", len(ords), len(s.knobs)),
		}
	}
	for i, o := range ords {
		if o < 0 || o >= s.knobs[i].length {
			return nil, &DecodeError{
				Index: -1, Size: s.Size(),
				Message: fmt.Sprintf("ordinal %d out of range for knob %q (domain size %d)", o, s.knobs[i].name, s.knobs[i].length),
			}
		}
	}
	copied := make([]int, len(ords))
	copy(copied, ords)
	return &Entity{space: s, ords: copied}, nil
}

// Index encodes the entity back to its flat index. Round-trips with
// Space.Entity: Index(Entity(i)) == i.
func (e *Entity) Index() int64 {
	index := int64(0)
	for i, k := range e.space.knobs {
		index = index*int64(k.length) + int64(e.ords[i])
	}
	return index
}

// Space returns the space the entity belongs to.
func (e *Entity) Space() *Space { return e.space }

// Ordinals returns a copy of the per-knob ordinal vector in knob
// declaration order.
func (e *Entity) Ordinals() []int {
	out := make([]int, len(e.ords))
	copy(out, e.ords)
	return out
}

// Value returns the chosen value for the named knob, or false if the
// space has no such knob.
func (e *Entity) Value(name string) (Value, bool) {
	i, ok := e.space.byName[name]
	if !ok {
		return nil, false
	}
	return e.space.knobs[i].At(e.ords[i]), true
}

// Pairs returns the ordered (knob name, encoded value) list. This is
// the persistence encoding of the entity.
func (e *Entity) Pairs() []Pair {
	pairs := make([]Pair, len(e.ords))
	for i, k := range e.space.knobs {
		pairs[i] = Pair{Name: k.name, Value: k.At(e.ords[i]).Encode()}
	}
	return pairs
}

// Pair is one (knob name, encoded value) element of an entity encoding.
type Pair struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// String returns a compact human-readable form, e.g.
// "tile_x=[4,128] tile_y=[16,32] annotate=unroll".
func (e *Entity) String() string {
	parts := make([]string, len(e.ords))
	for i, p := range e.Pairs() {
		parts[i] = p.Name + "=" + p.Value
	}
	return strings.Join(parts, " ")
}
