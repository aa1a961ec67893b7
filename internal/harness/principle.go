package harness

import "fmt"

// A principle is a named reusable property of a session trace. Unlike
// assertions, principles take no parameters: they hold for every
// correct session regardless of scenario shape.
type principle struct {
	name  string
	check func(*Result) error
}

// principleRegistry holds the built-in principles by name.
var principleRegistry = map[string]principle{
	"no_duplicate_trials": {
		name:  "no_duplicate_trials",
		check: checkNoDuplicateTrials,
	},
	"monotone_best": {
		name:  "monotone_best",
		check: checkMonotoneBest,
	},
	"failures_recorded": {
		name:  "failures_recorded",
		check: checkFailuresRecorded,
	},
	"complete_coverage": {
		name:  "complete_coverage",
		check: checkCompleteCoverage,
	},
}

// applyPrinciples checks every principle the scenario lists.
func applyPrinciples(scenario *Scenario, result *Result) {
	for _, name := range scenario.Principles {
		p, ok := principleRegistry[name]
		if !ok {
			result.AddError(fmt.Sprintf("principle %q: unknown", name))
			continue
		}
		if err := p.check(result); err != nil {
			result.AddError(fmt.Sprintf("principle %q: %v", name, err))
		}
	}
}

// checkNoDuplicateTrials verifies no entity index is measured twice.
func checkNoDuplicateTrials(r *Result) error {
	seen := make(map[int64]struct{}, len(r.Trace))
	for _, e := range r.Trace {
		if _, dup := seen[e.Index]; dup {
			return fmt.Errorf("entity %d measured more than once", e.Index)
		}
		seen[e.Index] = struct{}{}
	}
	return nil
}

// checkMonotoneBest verifies the reported best equals the minimum
// successful latency in the trace.
func checkMonotoneBest(r *Result) error {
	minUs := int64(-1)
	for _, e := range r.Trace {
		if e.Status != "success" {
			continue
		}
		if minUs < 0 || e.MeanUs < minUs {
			minUs = e.MeanUs
		}
	}
	if minUs < 0 {
		if r.BestIndex >= 0 {
			return fmt.Errorf("best index %d reported with no successful trial", r.BestIndex)
		}
		return nil
	}
	if r.BestIndex < 0 {
		return fmt.Errorf("successful trials exist but no best was reported")
	}
	if r.BestUs != minUs {
		return fmt.Errorf("best is %dus but the trace minimum is %dus", r.BestUs, minUs)
	}
	return nil
}

// checkFailuresRecorded verifies failed trials carry an error message
// and no latency.
func checkFailuresRecorded(r *Result) error {
	for _, e := range r.Trace {
		if e.Status == "success" {
			continue
		}
		if e.Err == "" {
			return fmt.Errorf("failed trial at seq %d has no error message", e.Seq)
		}
		if e.MeanUs != 0 {
			return fmt.Errorf("failed trial at seq %d carries a latency", e.Seq)
		}
	}
	return nil
}

// checkCompleteCoverage verifies the trace covers the whole space.
func checkCompleteCoverage(r *Result) error {
	if int64(len(r.Trace)) != r.SpaceSize {
		return fmt.Errorf("trace has %d trials, space has %d points", len(r.Trace), r.SpaceSize)
	}
	return checkNoDuplicateTrials(r)
}
