package harness

// TraceEvent is one measured trial in the session trace. Latencies are
// whole microseconds so traces stay exact under canonical JSON.
type TraceEvent struct {
	Seq     int64  `json:"seq"`
	Index   int64  `json:"index"`
	Knobs   string `json:"knobs"`
	Status  string `json:"status"`
	MeanUs  int64  `json:"mean_us,omitempty"`
	Err     string `json:"err,omitempty"`
	Session string `json:"-"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success. True if every assertion
	// and principle holds.
	Pass bool `json:"pass"`

	// Trace contains one event per measured trial, in measurement
	// order. Used for assertions and golden comparison.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// BestIndex and BestUs describe the winning configuration;
	// BestIndex is -1 when no candidate succeeded.
	BestIndex int64 `json:"best_index"`
	BestUs    int64 `json:"best_us,omitempty"`

	// SpaceSize is the discovered space size for the scenario's task.
	SpaceSize int64 `json:"space_size"`
}

// NewResult creates a new passing result with no trials.
func NewResult() *Result {
	return &Result{
		Pass:      true,
		Trace:     []TraceEvent{},
		Errors:    []string{},
		BestIndex: -1,
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// StatusCounts returns the status histogram of the trace.
func (r *Result) StatusCounts() map[string]int {
	counts := make(map[string]int)
	for _, e := range r.Trace {
		counts[e.Status]++
	}
	return counts
}
