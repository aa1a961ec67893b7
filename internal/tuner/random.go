package tuner

import (
	"fmt"
	"math/rand"

	"github.com/wanshanhsieh/riptide/internal/measure"
	"github.com/wanshanhsieh/riptide/internal/space"
)

// materializeLimit is the largest space for which Random keeps an
// explicit shuffled index pool. Above it, sampling falls back to
// rejection with a sequential probe, which stays correct for sparse
// exploration of huge spaces without allocating them.
const materializeLimit = int64(1) << 20

// Random samples entities uniformly without replacement: no index is
// proposed twice while unexplored indices remain.
type Random struct {
	rng     *rand.Rand
	visited *visitSet

	// pool is the shuffled remainder for small spaces; nil for large
	// spaces.
	pool     []int64
	poolInit bool
}

// NewRandom creates a random-search tuner with a deterministic seed.
func NewRandom(seed int64) *Random {
	return &Random{
		rng:     rand.New(rand.NewSource(seed)),
		visited: newVisitSet(),
	}
}

// Name returns "random".
func (r *Random) Name() string { return "random" }

// ProposeBatch draws up to n unexplored indices. Returns an empty batch
// once the space is exhausted.
func (r *Random) ProposeBatch(sp *space.Space, n int) ([]*space.Entity, error) {
	size := sp.Size()
	want := int64(n)
	if rem := r.visited.remaining(size); want > rem {
		want = rem
	}
	if want <= 0 {
		return nil, nil
	}

	batch := make([]*space.Entity, 0, want)
	for int64(len(batch)) < want {
		index, err := r.draw(size)
		if err != nil {
			return nil, err
		}
		e, err := sp.Entity(index)
		if err != nil {
			return nil, fmt.Errorf("random propose: %w", err)
		}
		r.visited.add(index)
		batch = append(batch, e)
	}
	return batch, nil
}

// Update is a no-op: uniform sampling ignores feedback.
func (r *Random) Update([]*space.Entity, []measure.Result) {}

// draw returns one unexplored index.
func (r *Random) draw(size int64) (int64, error) {
	if size <= materializeLimit {
		if !r.poolInit {
			r.pool = make([]int64, size)
			for i := range r.pool {
				r.pool[i] = int64(i)
			}
			r.rng.Shuffle(len(r.pool), func(i, j int) {
				r.pool[i], r.pool[j] = r.pool[j], r.pool[i]
			})
			r.poolInit = true
		}
		for len(r.pool) > 0 {
			index := r.pool[len(r.pool)-1]
			r.pool = r.pool[:len(r.pool)-1]
			if !r.visited.has(index) {
				return index, nil
			}
		}
		return 0, fmt.Errorf("random draw: pool exhausted with %d unexplored", r.visited.remaining(size))
	}

	// Large space: rejection sampling, then a sequential probe from the
	// last rejected position so the draw always terminates.
	const attempts = 64
	index := int64(0)
	for i := 0; i < attempts; i++ {
		index = r.rng.Int63n(size)
		if !r.visited.has(index) {
			return index, nil
		}
	}
	for probed := int64(0); probed < size; probed++ {
		index = (index + 1) % size
		if !r.visited.has(index) {
			return index, nil
		}
	}
	return 0, fmt.Errorf("random draw: space exhausted")
}
