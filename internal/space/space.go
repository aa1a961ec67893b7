package space

import "fmt"

// maxSpaceSize bounds the flat index range. Spaces larger than this are
// rejected at definition time so int64 index arithmetic never overflows.
const maxSpaceSize = int64(1) << 62

// Space is an ordered knob registry describing every tunable dimension
// of one template invocation.
//
// A Space is mutable only during the discovery pass. Freeze() is called
// once discovery completes; after that all Define* calls fail and the
// space is safe for concurrent read access.
//
// INVARIANTS:
//   - knob order never changes after a knob is appended
//   - knob names are unique
//   - Size() equals the product of all knob domain cardinalities
type Space struct {
	knobs  []*Knob
	byName map[string]int
	frozen bool
}

// New creates an empty, unfrozen space.
func New() *Space {
	return &Space{byName: make(map[string]int)}
}

// DefineKnob appends an explicitly enumerated knob.
// Fails with a DefinitionError if the name is taken, the value list is
// empty, or the space is frozen.
func (s *Space) DefineKnob(name string, values []Value) error {
	if len(values) == 0 {
		return &DefinitionError{Code: ErrCodeEmptyDomain, Knob: name, Message: "enumerated knob has no values"}
	}
	domain := make([]Value, len(values))
	copy(domain, values)
	return s.append(&Knob{name: name, kind: KindEnum, length: len(domain), values: domain})
}

// DefineSplit appends a derived knob whose domain is every ordered way
// to factor extent into parts positive integers, outer-to-inner.
// The domain cardinality is computed analytically; values materialize
// lazily on first access.
func (s *Space) DefineSplit(name string, extent int64, parts int) error {
	if extent <= 0 || parts <= 0 {
		return &DefinitionError{
			Code: ErrCodeInvalidSplit,
			Knob: name,
			Message: fmt.Sprintf("extent and parts must be positive (extent=%d, parts=%d)", extent, parts),
		}
	}
	count := factorizationCount(extent, parts)
	if count == countOverflow {
		return &DefinitionError{Code: ErrCodeInvalidSplit, Knob: name, Message: "split domain exceeds the index range"}
	}
	return s.append(&Knob{name: name, kind: KindSplit, length: int(count), extent: extent, parts: parts})
}

// DefineReorder appends a knob over permutations of the given axes
// filtered by policy. A nil policy admits all permutations.
//
// With a filtering policy the domain is materialized eagerly, since the
// cardinality depends on which permutations the policy admits.
func (s *Space) DefineReorder(name string, axes []string, policy ReorderPolicy) error {
	if len(axes) == 0 {
		return &DefinitionError{Code: ErrCodeEmptyDomain, Knob: name, Message: "reorder knob has no axes"}
	}
	k := &Knob{name: name, kind: KindReorder, axes: append([]string(nil), axes...), policy: policy}
	if policy == nil {
		k.length = factorial(len(axes))
	} else {
		k.materialize()
		k.length = len(k.values)
		if k.length == 0 {
			return &DefinitionError{Code: ErrCodeEmptyDomain, Knob: name, Message: "reorder policy admits no permutations"}
		}
	}
	return s.append(k)
}

// DefineAnnotate appends a knob over a fixed enumerated annotation set
// (e.g. "none", "unroll", "vectorize").
func (s *Space) DefineAnnotate(name string, annotations []string) error {
	if len(annotations) == 0 {
		return &DefinitionError{Code: ErrCodeEmptyDomain, Knob: name, Message: "annotate knob has no annotations"}
	}
	domain := make([]Value, len(annotations))
	for i, a := range annotations {
		domain[i] = StringValue(a)
	}
	return s.append(&Knob{name: name, kind: KindAnnotate, length: len(domain), values: domain})
}

// append validates uniqueness and mutability, then appends the knob.
func (s *Space) append(k *Knob) error {
	if s.frozen {
		return &DefinitionError{Code: ErrCodeFrozenSpace, Knob: k.name, Message: "space is frozen after discovery"}
	}
	if _, exists := s.byName[k.name]; exists {
		return &DefinitionError{Code: ErrCodeDuplicateKnob, Knob: k.name, Message: "knob already defined"}
	}
	// Compare by division: multiplying first could wrap past
	// maxSpaceSize and slip through the check.
	if s.Size() > maxSpaceSize/int64(k.length) {
		return &DefinitionError{Code: ErrCodeInvalidSplit, Knob: k.name, Message: "space size exceeds index range"}
	}
	s.byName[k.name] = len(s.knobs)
	s.knobs = append(s.knobs, k)
	return nil
}

// Freeze marks the end of the discovery pass. Further Define* calls
// fail with ErrCodeFrozenSpace. Idempotent.
func (s *Space) Freeze() { s.frozen = true }

// Frozen reports whether the discovery pass has completed.
func (s *Space) Frozen() bool { return s.frozen }

// Len returns the number of knobs.
func (s *Space) Len() int { return len(s.knobs) }

// KnobAt returns the i-th knob in declaration order.
func (s *Space) KnobAt(i int) *Knob { return s.knobs[i] }

// Knob returns the named knob, or false if no such knob exists.
func (s *Space) Knob(name string) (*Knob, bool) {
	i, ok := s.byName[name]
	if !ok {
		return nil, false
	}
	return s.knobs[i], true
}

// Size returns the total number of distinct entities: the product of
// all knob domain cardinalities. An empty space has size 1 (the single
// empty assignment).
func (s *Space) Size() int64 {
	size := int64(1)
	for _, k := range s.knobs {
		size *= int64(k.length)
	}
	return size
}

// factorial computes n! for the small axis counts reorder knobs use.
func factorial(n int) int {
	result := 1
	for i := 2; i <= n; i++ {
		result *= i
	}
	return result
}
