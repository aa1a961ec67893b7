package measure

import (
	"context"
	"fmt"

	"github.com/wanshanhsieh/riptide/internal/space"
	"github.com/wanshanhsieh/riptide/internal/template"
)

// SimBuilder is the reference Builder: it performs no compilation but
// applies the same feasibility checks a real backend would, so tuning
// sessions exercise the failed-candidate paths.
//
// Feasibility: a "vectorize" annotation requires the innermost factor
// of every preceding split to be a multiple of the vector width.
type SimBuilder struct {
	// VectorWidth is the lane count vectorized inner loops must align
	// to. Defaults to 4 when zero.
	VectorWidth int
}

// simArtifact carries the schedule through to the simulated device.
type simArtifact struct {
	sched *template.Schedule
}

// Build validates the schedule and wraps it as an artifact.
func (b *SimBuilder) Build(ctx context.Context, sched *template.Schedule, target string) (Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	width := b.VectorWidth
	if width <= 0 {
		width = 4
	}

	vectorized := false
	for _, d := range sched.Directives() {
		if d.Op == "annotate" && d.Arg == "vectorize" {
			vectorized = true
		}
	}
	if vectorized {
		for _, d := range sched.Directives() {
			if d.Op != "split" {
				continue
			}
			factors, err := space.ParseValue(d.Arg)
			if err != nil {
				return nil, &BuildError{Detail: fmt.Sprintf("malformed split arg %q", d.Arg)}
			}
			tuple, ok := factors.(space.TupleValue)
			if !ok || len(tuple) == 0 {
				continue
			}
			inner := tuple[len(tuple)-1]
			if inner%width != 0 {
				return nil, &BuildError{
					Detail: fmt.Sprintf("vectorize requires inner factor divisible by %d, got %d on axis %s", width, inner, d.Axis),
				}
			}
		}
	}
	return simArtifact{sched: sched}, nil
}

// SimDevice is the reference Device: a deterministic cost model over
// schedule directives standing in for real hardware. Latency is exact
// (integer microseconds converted to milliseconds), so repeated runs of
// the same schedule measure identically - convenient for tests and
// golden traces.
type SimDevice struct {
	// Unreachable makes Ping fail, simulating a missing target.
	Unreachable bool
}

// Ping reports device availability.
func (d *SimDevice) Ping(ctx context.Context) error {
	if d.Unreachable {
		return &DeviceError{Detail: "simulated device offline"}
	}
	return ctx.Err()
}

// Run scores the artifact's schedule and returns repeats identical
// samples in milliseconds.
func (d *SimDevice) Run(ctx context.Context, art Artifact, repeats int) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sim, ok := art.(simArtifact)
	if !ok {
		return nil, &DeviceError{Detail: fmt.Sprintf("foreign artifact type %T", art)}
	}
	latency := float64(SimCostMicros(sim.sched)) / 1000.0
	samples := make([]float64, repeats)
	for i := range samples {
		samples[i] = latency
	}
	return samples, nil
}

// SimCostMicros is the deterministic cost model, in whole microseconds.
//
// Splits are scored by the squared distance of the inner factor from a
// cache-friendly 32; annotations and non-identity reorders add fixed
// offsets. The model has a unique optimum, which makes search-strategy
// convergence observable in tests.
func SimCostMicros(sched *template.Schedule) int64 {
	cost := int64(100)
	for _, d := range sched.Directives() {
		switch d.Op {
		case "split":
			factors, err := space.ParseValue(d.Arg)
			if err != nil {
				continue
			}
			if tuple, ok := factors.(space.TupleValue); ok && len(tuple) > 0 {
				inner := int64(tuple[len(tuple)-1])
				delta := inner - 32
				cost += delta * delta / 8
			}
		case "annotate":
			switch d.Arg {
			case "none":
				cost += 50
			case "unroll":
				cost += 20
			case "vectorize":
				cost += 10
			}
		case "reorder":
			if !isIdentityPerm(d.Arg) {
				cost += 5
			}
		}
	}
	return cost
}

// isIdentityPerm reports whether an encoded permutation is [0,1,...,n).
func isIdentityPerm(arg string) bool {
	v, err := space.ParseValue(arg)
	if err != nil {
		return false
	}
	tuple, ok := v.(space.TupleValue)
	if !ok {
		return false
	}
	for i, p := range tuple {
		if p != i {
			return false
		}
	}
	return true
}

// Ensure the reference implementations satisfy the interfaces.
var (
	_ Builder = (*SimBuilder)(nil)
	_ Device  = (*SimDevice)(nil)
	_ Runner  = (*LocalRunner)(nil)
)
