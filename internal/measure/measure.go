package measure

import (
	"context"
	"time"

	"github.com/wanshanhsieh/riptide/internal/space"
	"github.com/wanshanhsieh/riptide/internal/template"
)

// Status classifies the outcome of measuring one candidate.
type Status int

const (
	// StatusSuccess means the candidate built, ran, and produced samples.
	StatusSuccess Status = iota + 1
	// StatusBuildError means compilation failed.
	StatusBuildError
	// StatusRunError means execution failed on the device.
	StatusRunError
	// StatusTimeout means the build or run exceeded its allotted time.
	StatusTimeout
)

// String returns the persistence marker for the status.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusBuildError:
		return "build_error"
	case StatusRunError:
		return "run_error"
	case StatusTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// ParseStatus maps a persistence marker back to its Status.
// Unknown markers map to StatusRunError, the conservative failure.
func ParseStatus(s string) Status {
	switch s {
	case "success":
		return StatusSuccess
	case "build_error":
		return StatusBuildError
	case "run_error":
		return StatusRunError
	case "timeout":
		return StatusTimeout
	default:
		return StatusRunError
	}
}

// Result is the outcome of executing one candidate entity.
type Result struct {
	// Status classifies the outcome.
	Status Status

	// Latencies holds the timing samples in milliseconds, empty on
	// failure.
	Latencies []float64

	// Err holds the failure detail, empty on success.
	Err string
}

// OK reports whether the measurement succeeded.
func (r Result) OK() bool { return r.Status == StatusSuccess }

// Mean returns the mean latency in milliseconds, or 0 when there are
// no samples. Callers must check OK() before ranking by Mean().
func (r Result) Mean() float64 {
	if len(r.Latencies) == 0 {
		return 0
	}
	sum := 0.0
	for _, l := range r.Latencies {
		sum += l
	}
	return sum / float64(len(r.Latencies))
}

// Artifact is an opaque buildable produced by a Builder and consumed by
// the Device executing it.
type Artifact any

// Builder compiles a materialized schedule into a runnable artifact.
// External collaborator: the in-tree SimBuilder is a reference
// implementation only.
type Builder interface {
	Build(ctx context.Context, sched *template.Schedule, target string) (Artifact, error)
}

// Device loads and runs a built artifact, returning latency samples in
// milliseconds. External collaborator: may be remote. At most one Run
// executes at a time; the Runner enforces this.
type Device interface {
	// Ping verifies the device is reachable. Called once at session
	// start; an unreachable device is fatal.
	Ping(ctx context.Context) error

	// Run executes the artifact repeats times.
	Run(ctx context.Context, art Artifact, repeats int) ([]float64, error)
}

// Options configures a measurement batch.
type Options struct {
	// Parallelism bounds the build worker pool. Runs are always
	// sequential regardless of this value.
	Parallelism int

	// BuildTimeout bounds each candidate's build step.
	BuildTimeout time.Duration

	// RunTimeout bounds each candidate's run step.
	RunTimeout time.Duration

	// Repeats is the number of timing samples per candidate.
	Repeats int
}

// DefaultOptions returns the measurement defaults.
func DefaultOptions() Options {
	return Options{
		Parallelism:  4,
		BuildTimeout: 30 * time.Second,
		RunTimeout:   10 * time.Second,
		Repeats:      3,
	}
}

// Runner measures batches of candidate entities for a task.
type Runner interface {
	// Ping verifies the measurement target is reachable.
	Ping(ctx context.Context) error

	// Measure builds and runs every entity, returning one Result per
	// entity in candidate order. Per-candidate failures become failed
	// Results; Measure itself only errors on malformed input.
	Measure(ctx context.Context, task *template.Task, entities []*space.Entity) ([]Result, error)
}
