package tuner

import (
	"github.com/wanshanhsieh/riptide/internal/measure"
	"github.com/wanshanhsieh/riptide/internal/space"
)

// Tuner proposes candidate entities and incorporates measurement
// feedback. Implementations hold only the state their strategy needs;
// there is no base type to inherit from.
//
// Contract:
//   - ProposeBatch returns at most n entities, all previously
//     unproposed within this tuner's lifetime. An empty batch signals
//     space exhaustion.
//   - Update receives the batch and its results in matching order.
//     Failed results carry worst-case fitness; they must never make
//     Update fail.
//
// Tuners are not safe for concurrent use. The tuning loop is
// single-threaded by design.
type Tuner interface {
	// Name identifies the strategy ("random", "grid", ...).
	Name() string

	// ProposeBatch proposes up to n unexplored entities from the space.
	ProposeBatch(sp *space.Space, n int) ([]*space.Entity, error)

	// Update folds the measured batch back into the strategy state.
	Update(batch []*space.Entity, results []measure.Result)
}

// visitSet tracks proposed entity indices so strategies never repeat a
// candidate within a session.
type visitSet struct {
	seen map[int64]struct{}
}

func newVisitSet() *visitSet {
	return &visitSet{seen: make(map[int64]struct{})}
}

func (v *visitSet) has(index int64) bool {
	_, ok := v.seen[index]
	return ok
}

func (v *visitSet) add(index int64) {
	v.seen[index] = struct{}{}
}

func (v *visitSet) count() int64 {
	return int64(len(v.seen))
}

// remaining returns how many indices of a size-sized space are still
// unexplored.
func (v *visitSet) remaining(size int64) int64 {
	return size - v.count()
}
