package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wanshanhsieh/riptide/internal/measure"
	"github.com/wanshanhsieh/riptide/internal/record"
	"github.com/wanshanhsieh/riptide/internal/space"
	"github.com/wanshanhsieh/riptide/internal/template"
	"github.com/wanshanhsieh/riptide/internal/tuner"
)

// TuneResult is the JSON payload of a completed tuning run.
type TuneResult struct {
	Task      string       `json:"task"`
	Args      string       `json:"args"`
	Target    string       `json:"target"`
	Strategy  string       `json:"strategy"`
	SpaceSize int64        `json:"space_size"`
	Trials    int          `json:"trials"`
	Log       string       `json:"log"`
	Best      *BestPayload `json:"best,omitempty"`
}

// BestPayload describes a winning configuration.
type BestPayload struct {
	Index    int64        `json:"index"`
	Knobs    []space.Pair `json:"knobs"`
	MeanMs   float64      `json:"mean_latency_ms"`
	Trial    int          `json:"trial,omitempty"`
	Schedule string       `json:"schedule"`
}

// NewTuneCommand creates the tune command.
func NewTuneCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tune <job.cue>",
		Short: "Run a tuning session for a job spec",
		Long: `Loads a CUE job spec, explores its schedule space with the configured
strategy, measures candidates on the target, and appends every trial to
the job's persistence log.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTune(cmd, opts, args[0])
		},
	}
	return cmd
}

func runTune(cmd *cobra.Command, opts *RootOptions, specPath string) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	registry := template.Builtin()
	result, errs := LoadJob(specPath, registry, LoadModeFailFast)
	if len(errs) > 0 {
		_ = formatter.Error(loadErrorCode(errs[0]), errs[0].Error(), nil)
		return NewExitError(ExitCommandError, errs[0].Error())
	}
	job := result.Job

	tmpl, _ := registry.Lookup(job.Task)
	task, err := template.NewTask(job.Task, tmpl, job.Args, job.Target)
	if err != nil {
		_ = formatter.Error(ErrCodeBadArgs, err.Error(), nil)
		return WrapExitError(ExitCommandError, "building task", err)
	}
	formatter.VerboseLog("task %s: space size %d", task.Name, task.Space.Size())

	log, err := openJobLog(job)
	if err != nil {
		_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "opening trial log", err)
	}
	defer log.Close()

	strategy, err := newStrategy(job)
	if err != nil {
		_ = formatter.Error(ErrCodeBadStrategy, err.Error(), nil)
		return WrapExitError(ExitCommandError, "building strategy", err)
	}

	trialsRun := 0
	session := tuner.NewSession(task, newRunner(job), strategy, log, nil)
	best, err := session.Tune(cmd.Context(), tuner.Options{
		NTrial:        job.Trials,
		BatchSize:     job.Batch,
		EarlyStopping: job.EarlyStop,
	}, func(p tuner.Progress) { trialsRun = p.Trials }, progressPrinter(formatter))
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "tuning", err)
	}

	payload := TuneResult{
		Task:      job.Task,
		Args:      task.ArgSig(),
		Target:    job.Target,
		Strategy:  job.Strategy,
		SpaceSize: task.Space.Size(),
		Trials:    trialsRun,
		Log:       job.Log,
	}
	if best != nil {
		sched, err := task.Apply(best.Entity)
		if err != nil {
			return WrapExitError(ExitCommandError, "applying best entity", err)
		}
		payload.Best = &BestPayload{
			Index:    best.Entity.Index(),
			Knobs:    best.Entity.Pairs(),
			MeanMs:   best.MeanLatency,
			Trial:    best.Trial,
			Schedule: sched.String(),
		}
	}

	if opts.Format == "json" {
		if err := formatter.Success(payload); err != nil {
			return err
		}
	} else {
		printTuneText(formatter, payload)
	}
	if best == nil {
		return NewExitError(ExitFailure, "no candidate measured successfully")
	}
	return nil
}

// openJobLog opens the JSONL log, mirrored into SQLite when the job
// names a store.
func openJobLog(job Job) (record.Log, error) {
	fileLog, err := record.OpenFileLog(job.Log)
	if err != nil {
		return nil, err
	}
	if job.Store == "" {
		return fileLog, nil
	}
	store, err := record.OpenStore(job.Store)
	if err != nil {
		_ = fileLog.Close()
		return nil, err
	}
	return record.Tee(fileLog, store), nil
}

// newStrategy builds the tuner named by the job spec.
func newStrategy(job Job) (tuner.Tuner, error) {
	switch job.Strategy {
	case "random":
		return tuner.NewRandom(job.Seed), nil
	case "grid":
		return tuner.NewGrid(), nil
	case "genetic":
		return tuner.NewGenetic(job.Seed, tuner.GeneticConfig{}), nil
	case "model":
		return tuner.NewModel(job.Seed, tuner.ModelConfig{}), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", job.Strategy)
	}
}

// newRunner wires the simulator backend for the job's target.
func newRunner(job Job) measure.Runner {
	mopts := measure.DefaultOptions()
	if job.Measure.Parallelism > 0 {
		mopts.Parallelism = job.Measure.Parallelism
	}
	if job.Measure.Repeats > 0 {
		mopts.Repeats = job.Measure.Repeats
	}
	if t := job.Measure.BuildTimeout(); t > 0 {
		mopts.BuildTimeout = t
	}
	if t := job.Measure.RunTimeout(); t > 0 {
		mopts.RunTimeout = t
	}
	builder := &measure.SimBuilder{VectorWidth: job.Measure.VectorWidth}
	return measure.NewLocalRunner(builder, &measure.SimDevice{}, mopts)
}

// progressPrinter reports per-batch progress in verbose mode.
func progressPrinter(formatter *OutputFormatter) tuner.Callback {
	return func(p tuner.Progress) {
		if p.Best != nil {
			formatter.VerboseLog("trials %d: best %.4f ms (index %d)",
				p.Trials, p.Best.MeanLatency, p.Best.Entity.Index())
			return
		}
		formatter.VerboseLog("trials %d: no successful candidate yet", p.Trials)
	}
}

// printTuneText renders the human-readable summary.
func printTuneText(formatter *OutputFormatter, r TuneResult) {
	w := formatter.Writer
	fmt.Fprintf(w, "Tuned %s%s on %s (%s strategy, %d/%d points measured)\n",
		r.Task, r.Args, r.Target, r.Strategy, r.Trials, r.SpaceSize)
	fmt.Fprintf(w, "Log: %s\n", r.Log)
	if r.Best == nil {
		fmt.Fprintln(w, "No candidate measured successfully.")
		return
	}
	fmt.Fprintf(w, "Best: index %d at trial %d, %.4f ms\n", r.Best.Index, r.Best.Trial, r.Best.MeanMs)
	knobs := make([]string, len(r.Best.Knobs))
	for i, p := range r.Best.Knobs {
		knobs[i] = fmt.Sprintf("%s=%s", p.Name, p.Value)
	}
	fmt.Fprintf(w, "Knobs: %s\n", strings.Join(knobs, " "))
	fmt.Fprintf(w, "Schedule: %s\n", r.Best.Schedule)
}
