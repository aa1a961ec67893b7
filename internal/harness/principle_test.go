package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrinciple_NoDuplicateTrials(t *testing.T) {
	ok := traceResult(
		TraceEvent{Index: 0, Status: "success", MeanUs: 10},
		TraceEvent{Index: 1, Status: "success", MeanUs: 20},
	)
	assert.NoError(t, checkNoDuplicateTrials(ok))

	dup := traceResult(
		TraceEvent{Index: 2, Status: "success", MeanUs: 10},
		TraceEvent{Index: 2, Status: "success", MeanUs: 10},
	)
	assert.Error(t, checkNoDuplicateTrials(dup))
}

func TestPrinciple_MonotoneBest(t *testing.T) {
	ok := traceResult(
		TraceEvent{Index: 0, Status: "success", MeanUs: 30},
		TraceEvent{Index: 1, Status: "success", MeanUs: 10},
		TraceEvent{Index: 2, Status: "build_error", Err: "x"},
	)
	assert.NoError(t, checkMonotoneBest(ok))

	// Best disagrees with the trace minimum.
	wrong := traceResult(
		TraceEvent{Index: 0, Status: "success", MeanUs: 30},
		TraceEvent{Index: 1, Status: "success", MeanUs: 10},
	)
	wrong.BestUs = 30
	wrong.BestIndex = 0
	assert.Error(t, checkMonotoneBest(wrong))

	// No successes but a best reported.
	phantom := traceResult(TraceEvent{Index: 0, Status: "build_error", Err: "x"})
	phantom.BestIndex = 0
	assert.Error(t, checkMonotoneBest(phantom))

	// All failures, no best: consistent.
	failed := traceResult(TraceEvent{Index: 0, Status: "build_error", Err: "x"})
	assert.NoError(t, checkMonotoneBest(failed))
}

func TestPrinciple_FailuresRecorded(t *testing.T) {
	ok := traceResult(
		TraceEvent{Index: 0, Status: "build_error", Err: "boom"},
		TraceEvent{Index: 1, Status: "success", MeanUs: 10},
	)
	assert.NoError(t, checkFailuresRecorded(ok))

	silent := traceResult(TraceEvent{Index: 0, Status: "timeout"})
	assert.Error(t, checkFailuresRecorded(silent), "failures must carry an error message")

	withMean := traceResult(TraceEvent{Index: 0, Status: "run_error", Err: "x", MeanUs: 5})
	assert.Error(t, checkFailuresRecorded(withMean), "failures must not carry a latency")
}

func TestPrinciple_CompleteCoverage(t *testing.T) {
	result := traceResult(
		TraceEvent{Index: 0, Status: "success", MeanUs: 10},
		TraceEvent{Index: 1, Status: "success", MeanUs: 20},
		TraceEvent{Index: 2, Status: "success", MeanUs: 30},
	)
	result.SpaceSize = 3
	assert.NoError(t, checkCompleteCoverage(result))

	result.SpaceSize = 4
	assert.Error(t, checkCompleteCoverage(result))
}

func TestApplyPrinciples_ReportsByName(t *testing.T) {
	result := traceResult(
		TraceEvent{Index: 0, Status: "success", MeanUs: 10},
		TraceEvent{Index: 0, Status: "success", MeanUs: 10},
	)
	applyPrinciples(&Scenario{Principles: []string{"no_duplicate_trials"}}, result)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], `principle "no_duplicate_trials"`)
}
