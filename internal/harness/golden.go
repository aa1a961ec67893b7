package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/wanshanhsieh/riptide/internal/space"
)

// TraceSnapshot captures the complete trace for a scenario execution.
// All fields use canonical JSON serialization for deterministic
// comparison; latencies are whole microseconds, never floats.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Session      string       `json:"session,omitempty"`
	Trace        []TraceEvent `json:"trace"`
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any for
// canonical JSON serialization. Required because
// space.MarshalCanonical handles only maps, slices and primitives.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		eventMap := map[string]any{
			"seq":    event.Seq,
			"index":  event.Index,
			"knobs":  event.Knobs,
			"status": event.Status,
		}
		if event.MeanUs != 0 {
			eventMap["mean_us"] = event.MeanUs
		}
		if event.Err != "" {
			eventMap["err"] = event.Err
		}
		traceList[i] = eventMap
	}

	result := map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
	}
	if s.Session != "" {
		result["session"] = s.Session
	}
	return result
}

// RunWithGolden executes a scenario and compares the trace against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails. Test failure (via goldie)
// occurs if the trace doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, scenario.SessionToken, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result's trace against a golden
// file. Useful when the scenario has already run and only the
// comparison is needed.
func AssertGolden(t *testing.T, scenarioName, session string, result *Result) error {
	t.Helper()

	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Session:      session,
		Trace:        result.Trace,
	}
	traceJSON, err := space.MarshalCanonical(snapshot.toCanonicalMap())
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}
