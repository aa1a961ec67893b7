package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/wanshanhsieh/riptide/internal/template"
)

// LoadMode controls how errors are handled during job loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// Job is a tuning job spec decoded from CUE.
type Job struct {
	Task     string  `json:"task"`
	Args     []int64 `json:"args"`
	Target   string  `json:"target"`
	Strategy string  `json:"strategy"`

	Trials    int   `json:"trials"`
	Batch     int   `json:"batch"`
	EarlyStop int   `json:"early_stop"`
	Seed      int64 `json:"seed"`

	Measure MeasureSpec `json:"measure"`

	// Log is the JSONL trial log path; Store is an optional SQLite
	// mirror. Relative paths resolve against the job file's directory.
	Log   string `json:"log"`
	Store string `json:"store"`
}

// MeasureSpec is the measurement section of a job spec.
type MeasureSpec struct {
	Parallelism    int `json:"parallelism"`
	Repeats        int `json:"repeats"`
	BuildTimeoutMs int `json:"build_timeout_ms"`
	RunTimeoutMs   int `json:"run_timeout_ms"`
	VectorWidth    int `json:"vector_width"`
}

// BuildTimeout returns the build timeout as a duration, zero meaning
// default.
func (m MeasureSpec) BuildTimeout() time.Duration {
	return time.Duration(m.BuildTimeoutMs) * time.Millisecond
}

// RunTimeout returns the run timeout as a duration, zero meaning
// default.
func (m MeasureSpec) RunTimeout() time.Duration {
	return time.Duration(m.RunTimeoutMs) * time.Millisecond
}

// LoadResult contains the results of loading a job spec.
type LoadResult struct {
	Job       Job
	CUEValue  cue.Value // The raw CUE value for additional processing
	FileCount int       // Number of CUE files found
}

// LoadError represents an error that occurred during job loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File/store write error
	ErrCodeNoLog       = "E008" // Trial log not found

	// Job validation errors
	ErrCodeUnknownTemplate = "E101" // Template not registered
	ErrCodeBadArgs         = "E102" // Template rejected the args
	ErrCodeBadStrategy     = "E103" // Unknown tuning strategy
	ErrCodeBadTrials       = "E104" // Non-positive trial budget
	ErrCodeBadMeasure      = "E105" // Invalid measurement section
	ErrCodeNoBest          = "E106" // No successful trial for the task key
)

// ValidStrategies lists the registered tuning strategies.
var ValidStrategies = []string{"random", "grid", "genetic", "model"}

// LoadJob loads a job spec from a CUE file or package directory.
//
// Defaults are applied before validation: target "llvm-sim", strategy
// "random", 64 trials, batch 8, log "trials.jsonl" next to the spec.
// If mode is LoadModeFailFast, returns on first validation error; if
// LoadModeCollectAll, collects all of them.
func LoadJob(path string, registry *template.Registry, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("job spec not found: %s", path)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing job spec: %v", err)}}
	}

	dir := path
	entrypoints := []string{"."}
	if !info.IsDir() {
		dir = filepath.Dir(path)
		entrypoints = []string{filepath.Base(path)}
	} else {
		cueFiles, err := FindCUEFiles(dir)
		if err != nil {
			return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
		}
		if len(cueFiles) == 0 {
			return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
		}
	}

	ctx := cuecontext.New()
	instances := load.Instances(entrypoints, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	jobVal := value.LookupPath(cue.ParsePath("job"))
	if !jobVal.Exists() {
		return nil, []error{&LoadError{Code: ErrCodeGeneric, Message: "no job found in spec (expected a top-level \"job\" field)"}}
	}

	result := &LoadResult{CUEValue: value, FileCount: len(inst.BuildFiles)}
	if err := jobVal.Decode(&result.Job); err != nil {
		return nil, []error{&LoadError{
			Code:    ErrCodeBuildFailed,
			Message: fmt.Sprintf("decoding job: %v", err),
			Pos:     jobVal.Pos(),
		}}
	}

	applyJobDefaults(&result.Job, dir)
	errs := validateJob(&result.Job, registry, mode)
	return result, errs
}

// applyJobDefaults fills unset fields in place.
func applyJobDefaults(job *Job, dir string) {
	if job.Target == "" {
		job.Target = "llvm-sim"
	}
	if job.Strategy == "" {
		job.Strategy = "random"
	}
	if job.Trials == 0 {
		job.Trials = 64
	}
	if job.Batch == 0 {
		job.Batch = 8
	}
	if job.Log == "" {
		job.Log = "trials.jsonl"
	}
	if !filepath.IsAbs(job.Log) {
		job.Log = filepath.Join(dir, job.Log)
	}
	if job.Store != "" && !filepath.IsAbs(job.Store) {
		job.Store = filepath.Join(dir, job.Store)
	}
}

// validateJob checks the decoded job against the template registry.
func validateJob(job *Job, registry *template.Registry, mode LoadMode) []error {
	var errs []error
	report := func(code, format string, args ...interface{}) bool {
		errs = append(errs, &LoadError{Code: code, Message: fmt.Sprintf(format, args...)})
		return mode == LoadModeFailFast
	}

	if tmpl, ok := registry.Lookup(job.Task); !ok {
		if report(ErrCodeUnknownTemplate, "unknown template %q (registered: %v)", job.Task, registry.Names()) {
			return errs
		}
	} else if _, err := template.Discover(tmpl, job.Args); err != nil {
		if report(ErrCodeBadArgs, "template %q rejected args %v: %v", job.Task, job.Args, err) {
			return errs
		}
	}

	if !isValidStrategy(job.Strategy) {
		if report(ErrCodeBadStrategy, "invalid strategy %q: must be one of %v", job.Strategy, ValidStrategies) {
			return errs
		}
	}
	if job.Trials < 0 || job.Batch < 0 || job.EarlyStop < 0 {
		if report(ErrCodeBadTrials, "trials, batch and early_stop must be non-negative") {
			return errs
		}
	}
	if job.Measure.Parallelism < 0 || job.Measure.Repeats < 0 ||
		job.Measure.BuildTimeoutMs < 0 || job.Measure.RunTimeoutMs < 0 {
		if report(ErrCodeBadMeasure, "measure section must be non-negative") {
			return errs
		}
	}
	return errs
}

// isValidStrategy checks if the strategy is one of the allowed values.
func isValidStrategy(strategy string) bool {
	for _, s := range ValidStrategies {
		if s == strategy {
			return true
		}
	}
	return false
}

// loadErrorCode extracts the error code from a load error, falling
// back to the generic code.
func loadErrorCode(err error) string {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code
	}
	return ErrCodeGeneric
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
