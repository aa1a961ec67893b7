package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wanshanhsieh/riptide/internal/template"
)

// ValidationResult is the JSON payload of a job spec validation.
type ValidationResult struct {
	Path      string            `json:"path"`
	Valid     bool              `json:"valid"`
	Task      string            `json:"task,omitempty"`
	Args      string            `json:"args,omitempty"`
	Target    string            `json:"target,omitempty"`
	Strategy  string            `json:"strategy,omitempty"`
	SpaceSize int64             `json:"space_size,omitempty"`
	TaskHash  string            `json:"task_hash,omitempty"`
	Errors    []ValidationIssue `json:"errors,omitempty"`
}

// ValidationIssue is one validation finding.
type ValidationIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <job.cue> [more...]",
		Short: "Validate job specs without tuning",
		Long: `Loads each CUE job spec, collects every validation error, and for valid
jobs reports the discovered space size and task hash. Exits non-zero
when any spec is invalid.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, opts, args)
		},
	}
	return cmd
}

func runValidate(cmd *cobra.Command, opts *RootOptions, paths []string) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	registry := template.Builtin()

	results := make([]ValidationResult, 0, len(paths))
	invalid := 0
	for _, path := range paths {
		vr := validateOne(path, registry)
		if !vr.Valid {
			invalid++
		}
		results = append(results, vr)
	}

	if opts.Format == "json" {
		if err := formatter.Success(results); err != nil {
			return err
		}
	} else {
		for _, vr := range results {
			printValidationText(formatter, vr)
		}
	}
	if invalid > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d specs invalid", invalid, len(paths)))
	}
	return nil
}

// validateOne loads a spec in collect-all mode and summarizes it.
func validateOne(path string, registry *template.Registry) ValidationResult {
	vr := ValidationResult{Path: path}

	result, errs := LoadJob(path, registry, LoadModeCollectAll)
	for _, err := range errs {
		vr.Errors = append(vr.Errors, ValidationIssue{Code: loadErrorCode(err), Message: err.Error()})
	}
	if result == nil || len(errs) > 0 {
		return vr
	}

	job := result.Job
	vr.Task = job.Task
	vr.Target = job.Target
	vr.Strategy = job.Strategy

	tmpl, _ := registry.Lookup(job.Task)
	task, err := template.NewTask(job.Task, tmpl, job.Args, job.Target)
	if err != nil {
		vr.Errors = append(vr.Errors, ValidationIssue{Code: ErrCodeBadArgs, Message: err.Error()})
		return vr
	}
	hash, err := task.Hash()
	if err != nil {
		vr.Errors = append(vr.Errors, ValidationIssue{Code: ErrCodeGeneric, Message: err.Error()})
		return vr
	}

	vr.Valid = true
	vr.Args = task.ArgSig()
	vr.SpaceSize = task.Space.Size()
	vr.TaskHash = hash
	return vr
}

// printValidationText renders one result in human-readable form.
func printValidationText(formatter *OutputFormatter, vr ValidationResult) {
	w := formatter.Writer
	if vr.Valid {
		fmt.Fprintf(w, "%s: OK  %s%s@%s strategy=%s space=%d hash=%s\n",
			vr.Path, vr.Task, vr.Args, vr.Target, vr.Strategy, vr.SpaceSize, vr.TaskHash)
		return
	}
	fmt.Fprintf(w, "%s: INVALID\n", vr.Path)
	for _, issue := range vr.Errors {
		fmt.Fprintf(w, "  [%s] %s\n", issue.Code, issue.Message)
	}
}
