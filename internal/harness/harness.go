package harness

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/wanshanhsieh/riptide/internal/measure"
	"github.com/wanshanhsieh/riptide/internal/record"
	"github.com/wanshanhsieh/riptide/internal/template"
	"github.com/wanshanhsieh/riptide/internal/testutil"
	"github.com/wanshanhsieh/riptide/internal/tuner"
)

// Run executes a scenario and validates its assertions and principles.
//
// The session is fully deterministic: fixed session token, seeded
// strategy, logical clock, simulator cost model. A non-nil error means
// the scenario could not run at all; assertion failures are reported
// through Result.Errors with Pass set to false.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-provided context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	registry := template.Builtin()
	tmpl, ok := registry.Lookup(scenario.Task)
	if !ok {
		return nil, fmt.Errorf("unknown template %q (registered: %v)", scenario.Task, registry.Names())
	}
	task, err := template.NewTask(scenario.Task, tmpl, scenario.Args, scenario.Target)
	if err != nil {
		return nil, fmt.Errorf("building task: %w", err)
	}

	strategy, err := newStrategy(scenario)
	if err != nil {
		return nil, err
	}

	mopts := measure.DefaultOptions()
	mopts.Repeats = scenario.Repeats
	runner := measure.NewLocalRunner(
		&measure.SimBuilder{VectorWidth: scenario.VectorWidth},
		&measure.SimDevice{},
		mopts,
	)

	log := newMemoryLog()
	clock := testutil.NewClock(0)
	session := tuner.NewSession(task, runner, strategy, log,
		tuner.NewFixedGenerator(scenario.SessionToken),
		tuner.WithClock(clock.NowUnixMs))

	best, err := session.Tune(ctx, tuner.Options{
		NTrial:        scenario.Trials,
		BatchSize:     scenario.Batch,
		EarlyStopping: scenario.EarlyStop,
	})
	if err != nil {
		return nil, fmt.Errorf("tuning: %w", err)
	}

	result := NewResult()
	result.SpaceSize = task.Space.Size()
	for _, r := range log.records() {
		event := TraceEvent{
			Seq:     r.AtUnixMs,
			Index:   r.Index,
			Knobs:   knobString(r),
			Status:  r.Status,
			Err:     r.Err,
			Session: r.Session,
		}
		if r.OK() {
			event.MeanUs = int64(math.Round(r.Mean() * 1000))
		}
		result.Trace = append(result.Trace, event)
	}
	if best != nil {
		result.BestIndex = best.Entity.Index()
		result.BestUs = int64(math.Round(best.MeanLatency * 1000))
	}

	applyAssertions(scenario, result)
	applyPrinciples(scenario, result)
	return result, nil
}

// newStrategy builds the tuner named by the scenario.
func newStrategy(s *Scenario) (tuner.Tuner, error) {
	switch s.Strategy {
	case "random":
		return tuner.NewRandom(s.Seed), nil
	case "grid":
		return tuner.NewGrid(), nil
	case "genetic":
		return tuner.NewGenetic(s.Seed, tuner.GeneticConfig{}), nil
	case "model":
		return tuner.NewModel(s.Seed, tuner.ModelConfig{}), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", s.Strategy)
	}
}

// knobString renders a record's knobs as "name=value ..." pairs.
func knobString(r record.Record) string {
	out := ""
	for i, p := range r.Knobs {
		if i > 0 {
			out += " "
		}
		out += p.Name + "=" + p.Value
	}
	return out
}

// memoryLog is an in-process record.Log capturing trials for trace
// inspection, isolated per scenario run.
type memoryLog struct {
	mu   sync.Mutex
	recs []record.Record
}

func newMemoryLog() *memoryLog {
	return &memoryLog{}
}

func (l *memoryLog) Append(ctx context.Context, r record.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	l.recs = append(l.recs, r)
	l.mu.Unlock()
	return nil
}

func (l *memoryLog) Close() error { return nil }

func (l *memoryLog) records() []record.Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]record.Record, len(l.recs))
	copy(out, l.recs)
	return out
}

var _ record.Log = (*memoryLog)(nil)
