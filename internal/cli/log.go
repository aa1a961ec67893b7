package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/wanshanhsieh/riptide/internal/record"
)

// logOptions holds flags for the log command.
type logOptions struct {
	ToStore string
	Tail    int
}

// LogStats is the JSON payload of a log inspection.
type LogStats struct {
	Path     string         `json:"path"`
	Records  int            `json:"records"`
	Sessions int            `json:"sessions"`
	Tasks    int            `json:"tasks"`
	ByStatus map[string]int `json:"by_status"`
	Imported int            `json:"imported,omitempty"`
}

// NewLogCommand creates the log command.
func NewLogCommand(opts *RootOptions) *cobra.Command {
	lopts := &logOptions{}

	cmd := &cobra.Command{
		Use:   "log <trials.jsonl>",
		Short: "Inspect a trial log",
		Long: `Replays a JSONL trial log and summarizes it: record and session counts,
status histogram, distinct task keys. With --to-store the records are
also imported into a SQLite store, deduplicated by content hash.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(cmd, opts, lopts, args[0])
		},
	}

	cmd.Flags().StringVar(&lopts.ToStore, "to-store", "", "import records into this SQLite store")
	cmd.Flags().IntVar(&lopts.Tail, "tail", 0, "also print the last N records")

	return cmd
}

func runLog(cmd *cobra.Command, opts *RootOptions, lopts *logOptions, path string) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	ctx := cmd.Context()

	var store *record.Store
	if lopts.ToStore != "" {
		var err error
		store, err = record.OpenStore(lopts.ToStore)
		if err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "opening store", err)
		}
		defer store.Close()
	}

	stats := LogStats{Path: path, ByStatus: map[string]int{}}
	sessions := map[string]struct{}{}
	tasks := map[record.Key]struct{}{}
	var tail []record.Record

	err := record.ForEachInFile(ctx, path, func(r record.Record) error {
		stats.Records++
		stats.ByStatus[r.Status]++
		sessions[r.Session] = struct{}{}
		tasks[r.Key()] = struct{}{}
		if lopts.Tail > 0 {
			tail = append(tail, r)
			if len(tail) > lopts.Tail {
				tail = tail[1:]
			}
		}
		if store != nil {
			if err := store.Append(ctx, r); err != nil {
				return err
			}
			stats.Imported++
		}
		return nil
	})
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "replaying log", err)
	}
	stats.Sessions = len(sessions)
	stats.Tasks = len(tasks)

	if opts.Format == "json" {
		return formatter.Success(stats)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "%s: %d records, %d sessions, %d tasks\n",
		stats.Path, stats.Records, stats.Sessions, stats.Tasks)
	statuses := make([]string, 0, len(stats.ByStatus))
	for s := range stats.ByStatus {
		statuses = append(statuses, s)
	}
	sort.Strings(statuses)
	for _, s := range statuses {
		fmt.Fprintf(w, "  %s: %d\n", s, stats.ByStatus[s])
	}
	if store != nil {
		fmt.Fprintf(w, "Imported %d records into %s\n", stats.Imported, lopts.ToStore)
	}
	for _, r := range tail {
		line, err := r.MarshalLine()
		if err != nil {
			return WrapExitError(ExitCommandError, "rendering record", err)
		}
		fmt.Fprintf(w, "%s", line)
	}
	return nil
}
