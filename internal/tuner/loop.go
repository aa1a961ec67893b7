package tuner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wanshanhsieh/riptide/internal/measure"
	"github.com/wanshanhsieh/riptide/internal/record"
	"github.com/wanshanhsieh/riptide/internal/space"
	"github.com/wanshanhsieh/riptide/internal/template"
)

// Options configures a tuning session.
type Options struct {
	// NTrial caps how many candidates the session measures.
	NTrial int

	// BatchSize is how many candidates each batch proposes. Defaults
	// to 8.
	BatchSize int

	// EarlyStopping stops the session after this many consecutive
	// trials without improvement. Zero disables early stopping.
	EarlyStopping int
}

// Best is the best configuration a session has observed.
type Best struct {
	// Entity is the winning configuration.
	Entity *space.Entity

	// MeanLatency is its mean measured latency in milliseconds.
	MeanLatency float64

	// Trial is the 1-based trial number that produced it.
	Trial int
}

// Progress is the per-batch callback payload.
type Progress struct {
	// Trials is the cumulative measured trial count.
	Trials int

	// Batch and Results are the batch just measured, in matching order.
	Batch   []*space.Entity
	Results []measure.Result

	// Best is the best-so-far, nil until a candidate succeeds.
	Best *Best
}

// Callback observes tuning progress between batches.
type Callback func(Progress)

// Session drives the tuning loop for one task.
//
// The loop is single-threaded: propose, measure (blocking until the
// whole batch returns), persist, update, repeat. Batches never overlap.
// Cancellation is honored between batches only, so an interrupt cannot
// tear a partially-written record.
type Session struct {
	task   *template.Task
	runner measure.Runner
	tn     Tuner
	log    record.Log
	tokens TokenGenerator
	now    func() int64
	logger *slog.Logger
}

// SessionOption customizes a Session.
type SessionOption func(*Session)

// WithClock overrides the record timestamp source (unix milliseconds).
// Deterministic clocks make persistence logs byte-comparable.
func WithClock(now func() int64) SessionOption {
	return func(s *Session) { s.now = now }
}

// NewSession wires a session. log may be nil to skip persistence;
// tokens may be nil for UUIDv7 session tokens.
func NewSession(task *template.Task, runner measure.Runner, tn Tuner, log record.Log, tokens TokenGenerator, opts ...SessionOption) *Session {
	if tokens == nil {
		tokens = UUIDv7Generator{}
	}
	s := &Session{
		task:   task,
		runner: runner,
		tn:     tn,
		log:    log,
		tokens: tokens,
		now:    func() int64 { return time.Now().UnixMilli() },
		logger: slog.Default().With("component", "tuner", "strategy", tn.Name()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tune runs the loop until NTrial is reached, the space is exhausted,
// early stopping triggers, or ctx is cancelled. Returns the best
// configuration found (nil when nothing succeeded) together with any
// fatal error.
//
// Failed measurements are recorded and treated as worst-case fitness;
// they never abort the session. Fatal errors are: unreachable device at
// session start, proposal errors, and persistence failures.
func (s *Session) Tune(ctx context.Context, opts Options, callbacks ...Callback) (*Best, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 8
	}
	if opts.NTrial <= 0 {
		return nil, fmt.Errorf("tune: NTrial must be positive, got %d", opts.NTrial)
	}
	if !s.task.Space.Frozen() {
		return nil, fmt.Errorf("tune: task space is not frozen")
	}

	// No reachable device means no measurement can proceed: fail now,
	// before any state is written.
	if err := s.runner.Ping(ctx); err != nil {
		return nil, fmt.Errorf("tune: %w", err)
	}

	session := s.tokens.Generate()
	s.logger.Info("tuning session started",
		"session", session,
		"task", s.task.Name,
		"args", s.task.ArgSig(),
		"target", s.task.Target,
		"space_size", s.task.Space.Size(),
		"n_trial", opts.NTrial)

	var best *Best
	trials := 0
	sinceImprove := 0

	for trials < opts.NTrial {
		// Cancellation boundary: only between batches.
		select {
		case <-ctx.Done():
			s.logger.Info("tuning session cancelled", "session", session, "trials", trials)
			return best, ctx.Err()
		default:
		}

		want := opts.BatchSize
		if remaining := opts.NTrial - trials; want > remaining {
			want = remaining
		}

		batch, err := s.tn.ProposeBatch(s.task.Space, want)
		if err != nil {
			return best, fmt.Errorf("tune: propose: %w", err)
		}
		if len(batch) == 0 {
			s.logger.Info("space exhausted", "session", session, "trials", trials)
			break
		}

		results, err := s.runner.Measure(ctx, s.task, batch)
		if err != nil {
			return best, fmt.Errorf("tune: measure: %w", err)
		}

		// Persist every completed measurement before updating strategy
		// state, so a crash in Update never loses results. The write
		// context is detached from cancellation: an interrupt arriving
		// mid-batch takes effect at the next batch boundary, never by
		// dropping results that were already measured.
		persistCtx := context.WithoutCancel(ctx)
		for i, e := range batch {
			if err := s.persist(persistCtx, session, e, results[i]); err != nil {
				return best, fmt.Errorf("tune: persist: %w", err)
			}
		}

		s.tn.Update(batch, results)

		for i, res := range results {
			trials++
			if res.OK() && (best == nil || res.Mean() < best.MeanLatency) {
				best = &Best{Entity: batch[i], MeanLatency: res.Mean(), Trial: trials}
				sinceImprove = 0
			} else {
				sinceImprove++
			}
		}

		progress := Progress{Trials: trials, Batch: batch, Results: results, Best: best}
		for _, cb := range callbacks {
			cb(progress)
		}

		if opts.EarlyStopping > 0 && sinceImprove >= opts.EarlyStopping {
			s.logger.Info("early stopping",
				"session", session,
				"trials", trials,
				"stale_trials", sinceImprove)
			break
		}
	}

	if best != nil {
		s.logger.Info("tuning session finished",
			"session", session,
			"trials", trials,
			"best_index", best.Entity.Index(),
			"best_latency_ms", best.MeanLatency)
	} else {
		s.logger.Warn("tuning session finished without a successful candidate",
			"session", session, "trials", trials)
	}
	return best, nil
}

// persist appends one trial record, atomic per completed measurement.
func (s *Session) persist(ctx context.Context, session string, e *space.Entity, res measure.Result) error {
	if s.log == nil {
		return nil
	}
	return s.log.Append(ctx, record.Record{
		Session:   session,
		Template:  s.task.Name,
		ArgSig:    s.task.ArgSig(),
		Target:    s.task.Target,
		Index:     e.Index(),
		Knobs:     e.Pairs(),
		Status:    res.Status.String(),
		Latencies: res.Latencies,
		Err:       res.Err,
		AtUnixMs:  s.now(),
	})
}

// ProgressLogger returns a callback that logs per-batch progress.
func ProgressLogger(logger *slog.Logger) Callback {
	return func(p Progress) {
		failed := 0
		for _, r := range p.Results {
			if !r.OK() {
				failed++
			}
		}
		attrs := []any{"trials", p.Trials, "batch", len(p.Batch), "failed", failed}
		if p.Best != nil {
			attrs = append(attrs, "best_latency_ms", p.Best.MeanLatency)
		}
		logger.Info("batch measured", attrs...)
	}
}
