package template

import (
	"fmt"

	"github.com/wanshanhsieh/riptide/internal/space"
)

// Template is a parametrized schedule-construction function. The same
// body serves both as space declaration (discovery) and as schedule
// materialization (apply), depending on the context it is given.
//
// args carries the workload parameters (e.g. tensor extents) the
// template was instantiated for. Templates must be deterministic and
// side-effect-free with respect to the space: evaluating twice with the
// same context kind, args, and entity yields identical results.
type Template func(ctx Context, sched *Schedule, args []int64) error

// Discover runs one discovery pass: the template is evaluated against a
// fresh mutable space, every Define* call is collected, and the space
// is frozen before being returned.
func Discover(tmpl Template, args []int64) (*space.Space, error) {
	sp := space.New()
	ctx := NewDiscoveryContext(sp)
	if err := tmpl(ctx, NewSchedule(), args); err != nil {
		return nil, fmt.Errorf("discovery pass: %w", err)
	}
	sp.Freeze()
	return sp, nil
}

// Apply evaluates the template against a read-only context bound to the
// entity's values, returning the materialized schedule. Definitions are
// no-ops; value lookups return the fixed chosen values.
func Apply(tmpl Template, entity *space.Entity, args []int64) (*Schedule, error) {
	sched := NewSchedule()
	if err := tmpl(NewApplyContext(entity), sched, args); err != nil {
		return nil, fmt.Errorf("apply pass: %w", err)
	}
	return sched, nil
}
