package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exit codes shared by every riptide command.
const (
	ExitSuccess      = 0 // tuning/query completed
	ExitFailure      = 1 // ran but produced no usable outcome (no feasible candidate, invalid job spec)
	ExitCommandError = 2 // could not run (bad flags, missing paths, broken log)
)

// ExitError carries an exit code alongside the error. main extracts the
// code via GetExitCode; everything else treats it as a normal error.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates an ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError attaches an exit code and context to an existing error.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error, defaulting to
// ExitFailure for errors that carry none.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter renders command results as text or JSON. Commands
// build one per invocation from the root flags and route all their
// output through it, so --format json yields a machine-parseable stream
// with diagnostics kept off stdout.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // diagnostic output; falls back to Writer when nil
	Verbose   bool
}

// CLIResponse is the JSON envelope every command emits in json format.
type CLIResponse struct {
	Status  string      `json:"status"` // "ok" or "error"
	Data    interface{} `json:"data,omitempty"`
	Error   *CLIError   `json:"error,omitempty"`
	Session string      `json:"session,omitempty"` // tuning session correlation
}

// CLIError pairs an error code (E0xx generic, E1xx job validation) with
// its message.
type CLIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Success emits a result payload in the configured format.
func (f *OutputFormatter) Success(data interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error emits an error payload in the configured format.
func (f *OutputFormatter) Error(code, message string, details interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog emits a diagnostic line when verbose mode is on. Goes to
// ErrWriter so json output on Writer stays parseable.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}
