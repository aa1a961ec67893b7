package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wanshanhsieh/riptide/internal/record"
	"github.com/wanshanhsieh/riptide/internal/template"
)

// bestOptions holds flags for the best command.
type bestOptions struct {
	LogPath   string
	StorePath string
	Task      string
	Args      string
	Target    string
}

// BestResult is the JSON payload of a best-config query.
type BestResult struct {
	Task     string   `json:"task"`
	Args     string   `json:"args"`
	Target   string   `json:"target"`
	Session  string   `json:"session"`
	Index    int64    `json:"index"`
	Knobs    []string `json:"knobs"`
	MeanMs   float64  `json:"mean_latency_ms"`
	Schedule string   `json:"schedule,omitempty"`
}

// NewBestCommand creates the best command.
func NewBestCommand(opts *RootOptions) *cobra.Command {
	bopts := &bestOptions{}

	cmd := &cobra.Command{
		Use:   "best",
		Short: "Show the best recorded configuration for a task",
		Long: `Replays a trial log (or queries a SQLite store) and reports the lowest
mean-latency configuration for the given task key. For registered
templates the winning schedule is reconstructed as well.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBest(cmd, opts, bopts)
		},
	}

	cmd.Flags().StringVar(&bopts.LogPath, "log", "", "JSONL trial log to replay")
	cmd.Flags().StringVar(&bopts.StorePath, "store", "", "SQLite trial store to query")
	cmd.Flags().StringVar(&bopts.Task, "task", "", "template name (required)")
	cmd.Flags().StringVar(&bopts.Args, "args", "", "task args, e.g. 512,512")
	cmd.Flags().StringVar(&bopts.Target, "target", "llvm-sim", "measurement target")
	_ = cmd.MarkFlagRequired("task")

	return cmd
}

func runBest(cmd *cobra.Command, opts *RootOptions, bopts *bestOptions) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	if (bopts.LogPath == "") == (bopts.StorePath == "") {
		msg := "exactly one of --log or --store is required"
		_ = formatter.Error(ErrCodeNoLog, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	args, err := parseArgList(bopts.Args)
	if err != nil {
		_ = formatter.Error(ErrCodeBadArgs, err.Error(), nil)
		return WrapExitError(ExitCommandError, "parsing --args", err)
	}
	key := record.Key{
		Template: bopts.Task,
		ArgSig:   argSig(args),
		Target:   bopts.Target,
	}

	best, found, err := lookupBest(cmd, bopts, key)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "querying best", err)
	}
	if !found {
		msg := fmt.Sprintf("no successful trial recorded for %s", key)
		_ = formatter.Error(ErrCodeNoBest, msg, nil)
		return NewExitError(ExitFailure, msg)
	}

	payload := BestResult{
		Task:    best.Template,
		Args:    best.ArgSig,
		Target:  best.Target,
		Session: best.Session,
		Index:   best.Index,
		MeanMs:  best.Mean(),
	}
	for _, p := range best.Knobs {
		payload.Knobs = append(payload.Knobs, p.Name+"="+p.Value)
	}

	// Reconstruct the schedule when the template is registered.
	if tmpl, ok := template.Builtin().Lookup(best.Template); ok {
		if sched, applyErr := applyRecorded(tmpl, best, args); applyErr == nil {
			payload.Schedule = sched
		} else {
			formatter.VerboseLog("cannot reconstruct schedule: %v", applyErr)
		}
	}

	if opts.Format == "json" {
		return formatter.Success(payload)
	}
	w := formatter.Writer
	fmt.Fprintf(w, "Best for %s: index %d, %.4f ms (session %s)\n",
		key, payload.Index, payload.MeanMs, payload.Session)
	fmt.Fprintf(w, "Knobs: %s\n", strings.Join(payload.Knobs, " "))
	if payload.Schedule != "" {
		fmt.Fprintf(w, "Schedule: %s\n", payload.Schedule)
	}
	return nil
}

// lookupBest resolves the best record from the configured source.
func lookupBest(cmd *cobra.Command, bopts *bestOptions, key record.Key) (record.Record, bool, error) {
	ctx := cmd.Context()
	if bopts.StorePath != "" {
		store, err := record.OpenStore(bopts.StorePath)
		if err != nil {
			return record.Record{}, false, err
		}
		defer store.Close()
		return store.BestFor(ctx, key)
	}

	dispatch := record.NewDispatch()
	err := record.ForEachInFile(ctx, bopts.LogPath, func(r record.Record) error {
		dispatch.Observe(r)
		return nil
	})
	if err != nil {
		return record.Record{}, false, err
	}
	best, found := dispatch.Lookup(key)
	return best, found, nil
}

// applyRecorded rebuilds the winning schedule from a record.
func applyRecorded(tmpl template.Template, best record.Record, args []int64) (string, error) {
	task, err := template.NewTask(best.Template, tmpl, args, best.Target)
	if err != nil {
		return "", err
	}
	entity, err := task.Space.Entity(best.Index)
	if err != nil {
		return "", err
	}
	sched, err := task.Apply(entity)
	if err != nil {
		return "", err
	}
	return sched.String(), nil
}

// parseArgList parses "512,512" into int64 args. Empty means no args.
func parseArgList(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	args := make([]int64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid arg %q: %w", p, err)
		}
		args[i] = v
	}
	return args, nil
}

// argSig renders args the way tasks do, e.g. "[512,512]".
func argSig(args []int64) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = strconv.FormatInt(a, 10)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
