package measure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/wanshanhsieh/riptide/internal/space"
	"github.com/wanshanhsieh/riptide/internal/template"
)

// LocalRunner measures candidates against a Builder and a Device.
//
// Concurrency model: builds fan out over a worker pool bounded by
// Options.Parallelism; runs execute sequentially in candidate order so
// timing on the device is never contended. Results are positioned by
// candidate index, preserving order regardless of build completion
// order.
type LocalRunner struct {
	builder Builder
	device  Device
	opts    Options
	log     *slog.Logger
}

// NewLocalRunner creates a runner. Zero or negative option fields fall
// back to DefaultOptions values.
func NewLocalRunner(builder Builder, device Device, opts Options) *LocalRunner {
	def := DefaultOptions()
	if opts.Parallelism <= 0 {
		opts.Parallelism = def.Parallelism
	}
	if opts.BuildTimeout <= 0 {
		opts.BuildTimeout = def.BuildTimeout
	}
	if opts.RunTimeout <= 0 {
		opts.RunTimeout = def.RunTimeout
	}
	if opts.Repeats <= 0 {
		opts.Repeats = def.Repeats
	}
	return &LocalRunner{
		builder: builder,
		device:  device,
		opts:    opts,
		log:     slog.Default().With("component", "measure"),
	}
}

// Ping verifies the device is reachable. Fatal to the session when it
// fails: no measurement can proceed without a device.
func (r *LocalRunner) Ping(ctx context.Context) error {
	if err := r.device.Ping(ctx); err != nil {
		return fmt.Errorf("device unreachable: %w", err)
	}
	return nil
}

// buildOutcome carries one candidate's build result to the run phase.
type buildOutcome struct {
	artifact Artifact
	result   *Result // non-nil when the candidate already failed
}

// Measure builds every entity concurrently, then runs the successful
// builds sequentially on the device. One Result per entity, in
// candidate order. Build and run failures become failed Results.
func (r *LocalRunner) Measure(ctx context.Context, task *template.Task, entities []*space.Entity) ([]Result, error) {
	if task == nil {
		return nil, fmt.Errorf("measure: nil task")
	}
	outcomes := make([]buildOutcome, len(entities))

	// Build phase: bounded worker pool.
	jobs := make(chan int)
	var wg sync.WaitGroup
	workers := r.opts.Parallelism
	if workers > len(entities) {
		workers = len(entities)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = r.buildOne(ctx, task, entities[i])
			}
		}()
	}
	for i := range entities {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	// Run phase: strictly sequential, device is exclusive.
	results := make([]Result, len(entities))
	for i, out := range outcomes {
		if out.result != nil {
			results[i] = *out.result
			continue
		}
		results[i] = r.runOne(ctx, out.artifact)
		if !results[i].OK() {
			r.log.Debug("candidate failed",
				"index", entities[i].Index(),
				"status", results[i].Status.String(),
				"err", results[i].Err)
		}
	}
	return results, nil
}

// buildOne materializes and compiles one candidate under the build
// timeout. Failures are captured in the outcome, never returned.
func (r *LocalRunner) buildOne(ctx context.Context, task *template.Task, entity *space.Entity) buildOutcome {
	sched, err := task.Apply(entity)
	if err != nil {
		return buildOutcome{result: &Result{Status: StatusBuildError, Err: err.Error()}}
	}

	buildCtx, cancel := context.WithTimeout(ctx, r.opts.BuildTimeout)
	defer cancel()

	artifact, err := r.builder.Build(buildCtx, sched, task.Target)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return buildOutcome{result: &Result{Status: StatusTimeout, Err: "build timed out"}}
		}
		return buildOutcome{result: &Result{Status: StatusBuildError, Err: err.Error()}}
	}
	return buildOutcome{artifact: artifact}
}

// runOne executes one built artifact under the run timeout.
func (r *LocalRunner) runOne(ctx context.Context, artifact Artifact) Result {
	runCtx, cancel := context.WithTimeout(ctx, r.opts.RunTimeout)
	defer cancel()

	samples, err := r.device.Run(runCtx, artifact, r.opts.Repeats)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Result{Status: StatusTimeout, Err: "run timed out"}
		}
		return Result{Status: StatusRunError, Err: err.Error()}
	}
	return Result{Status: StatusSuccess, Latencies: samples}
}
