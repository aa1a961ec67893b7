// Package testutil provides deterministic fakes for tuning tests: a
// scripted measurement runner and cost functions with known optima.
package testutil

import (
	"context"
	"sync"

	"github.com/wanshanhsieh/riptide/internal/measure"
	"github.com/wanshanhsieh/riptide/internal/space"
	"github.com/wanshanhsieh/riptide/internal/template"
)

// Runner is a deterministic measure.Runner. Latency comes from a cost
// function over entities; failures are scripted per entity index. No
// goroutines, no timing, fully reproducible.
type Runner struct {
	// Cost returns the latency in milliseconds for an entity. Defaults
	// to IndexCost when nil.
	Cost func(e *space.Entity) float64

	// Fail maps entity indices to forced failure statuses.
	Fail map[int64]measure.Status

	// PingErr, when set, makes Ping fail (unreachable device).
	PingErr error

	// Repeats is the sample count per measurement. Defaults to 1.
	Repeats int

	mu       sync.Mutex
	measured []int64
	batches  int
}

// IndexCost is the default cost function: latency equals the entity's
// flat index plus one, so index 0 is always the optimum.
func IndexCost(e *space.Entity) float64 {
	return float64(e.Index() + 1)
}

// Ping returns the scripted ping error, if any.
func (r *Runner) Ping(ctx context.Context) error {
	if r.PingErr != nil {
		return r.PingErr
	}
	return ctx.Err()
}

// Measure scores every entity with the cost function, honoring
// scripted failures. Results are in candidate order.
func (r *Runner) Measure(ctx context.Context, task *template.Task, entities []*space.Entity) ([]measure.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cost := r.Cost
	if cost == nil {
		cost = IndexCost
	}
	repeats := r.Repeats
	if repeats <= 0 {
		repeats = 1
	}

	r.mu.Lock()
	r.batches++
	results := make([]measure.Result, len(entities))
	for i, e := range entities {
		r.measured = append(r.measured, e.Index())
		if status, failed := r.Fail[e.Index()]; failed {
			results[i] = measure.Result{Status: status, Err: "scripted failure"}
			continue
		}
		samples := make([]float64, repeats)
		for s := range samples {
			samples[s] = cost(e)
		}
		results[i] = measure.Result{Status: measure.StatusSuccess, Latencies: samples}
	}
	r.mu.Unlock()
	return results, nil
}

// Measured returns the entity indices measured so far, in order.
func (r *Runner) Measured() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int64, len(r.measured))
	copy(out, r.measured)
	return out
}

// Batches returns how many Measure calls were made.
func (r *Runner) Batches() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.batches
}

var _ measure.Runner = (*Runner)(nil)
