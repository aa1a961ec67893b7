package space

// KnobKind distinguishes how a knob's domain was declared.
type KnobKind int

const (
	// KindEnum is an explicitly enumerated value list.
	KindEnum KnobKind = iota + 1
	// KindSplit is a derived domain over ordered factorizations.
	KindSplit
	// KindReorder is a derived domain over filtered axis permutations.
	KindReorder
	// KindAnnotate is a fixed small enumerated annotation set.
	KindAnnotate
)

// String returns a human-readable kind label.
func (k KnobKind) String() string {
	switch k {
	case KindEnum:
		return "enum"
	case KindSplit:
		return "split"
	case KindReorder:
		return "reorder"
	case KindAnnotate:
		return "annotate"
	default:
		return "unknown"
	}
}

// ReorderPolicy filters which axis permutations a reorder knob admits.
// Admit receives a permutation of positions into the declared axis list.
type ReorderPolicy interface {
	// Admit reports whether the permutation belongs to the domain.
	Admit(perm []int) bool

	// Name identifies the policy for diagnostics.
	Name() string
}

// PolicyAll admits every permutation of the declared axes.
type PolicyAll struct{}

// Admit always returns true.
func (PolicyAll) Admit([]int) bool { return true }

// Name returns "all".
func (PolicyAll) Name() string { return "all" }

// PolicyOuterFixed admits only permutations that keep the first declared
// axis outermost. Useful when the outer loop carries a reduction or a
// parallelization constraint that reordering must not disturb.
type PolicyOuterFixed struct{}

// Admit returns true when position 0 stays first.
func (PolicyOuterFixed) Admit(perm []int) bool {
	return len(perm) == 0 || perm[0] == 0
}

// Name returns "outer_fixed".
func (PolicyOuterFixed) Name() string { return "outer_fixed" }

// Knob is one named tunable dimension of a ConfigSpace.
//
// The domain is finite and enumerable. For derived kinds (split,
// reorder) the cardinality is known analytically before the value list
// is materialized; materialization happens lazily on first access and
// is cached.
type Knob struct {
	name   string
	kind   KnobKind
	length int

	// Lazily materialized domain values; nil until first access for
	// derived kinds.
	values []Value

	// Derived-domain parameters.
	extent int64
	parts  int
	axes   []string
	policy ReorderPolicy
}

// Name returns the knob's unique name within its space.
func (k *Knob) Name() string { return k.name }

// Kind returns how the knob's domain was declared.
func (k *Knob) Kind() KnobKind { return k.kind }

// Len returns the domain cardinality without materializing the values.
func (k *Knob) Len() int { return k.length }

// Axes returns the declared axis names of a reorder knob, nil otherwise.
func (k *Knob) Axes() []string { return k.axes }

// At returns the i-th domain value. Derived domains are materialized on
// first call and cached. Panics if i is out of range, matching slice
// semantics; callers decode ordinals through the space, which validates.
func (k *Knob) At(i int) Value {
	if k.values == nil {
		k.materialize()
	}
	return k.values[i]
}

// materialize fills the cached value list for derived kinds.
func (k *Knob) materialize() {
	switch k.kind {
	case KindSplit:
		tuples := enumerateFactorizations(k.extent, k.parts)
		k.values = make([]Value, len(tuples))
		for i, t := range tuples {
			k.values[i] = t
		}
	case KindReorder:
		tuples := enumeratePermutations(len(k.axes), k.policy)
		k.values = make([]Value, len(tuples))
		for i, t := range tuples {
			k.values[i] = t
		}
	}
}
