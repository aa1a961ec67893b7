package harness

import "fmt"

// applyAssertions checks every scenario assertion against the result,
// collecting failures rather than stopping at the first.
func applyAssertions(scenario *Scenario, result *Result) {
	for i, a := range scenario.Assertions {
		switch a.Type {
		case AssertTrialCount:
			assertTrialCount(i, a, result)
		case AssertDistinctEntities:
			assertDistinctEntities(i, result)
		case AssertStatusCount:
			assertStatusCount(i, a, result)
		case AssertBestIndex:
			assertBestIndex(i, a, result)
		case AssertBestUnderUs:
			assertBestUnderUs(i, a, result)
		default:
			// Unknown types are rejected at load time; reaching this
			// means the scenario bypassed LoadScenario.
			result.AddError(fmt.Sprintf("assertions[%d]: unknown type %q", i, a.Type))
		}
	}
}

func assertTrialCount(index int, a Assertion, result *Result) {
	if len(result.Trace) != a.Count {
		result.AddError(fmt.Sprintf(
			"assertions[%d] trial_count: expected %d trials, got %d",
			index, a.Count, len(result.Trace)))
	}
}

func assertDistinctEntities(index int, result *Result) {
	seen := make(map[int64]int64, len(result.Trace))
	for _, e := range result.Trace {
		if prev, dup := seen[e.Index]; dup {
			result.AddError(fmt.Sprintf(
				"assertions[%d] distinct_entities: index %d measured at seq %d and seq %d",
				index, e.Index, prev, e.Seq))
			return
		}
		seen[e.Index] = e.Seq
	}
}

func assertStatusCount(index int, a Assertion, result *Result) {
	got := result.StatusCounts()[a.Status]
	if got != a.Count {
		result.AddError(fmt.Sprintf(
			"assertions[%d] status_count: expected %d %q trials, got %d",
			index, a.Count, a.Status, got))
	}
}

func assertBestIndex(index int, a Assertion, result *Result) {
	if result.BestIndex != a.Index {
		result.AddError(fmt.Sprintf(
			"assertions[%d] best_index: expected %d, got %d",
			index, a.Index, result.BestIndex))
	}
}

func assertBestUnderUs(index int, a Assertion, result *Result) {
	if result.BestIndex < 0 {
		result.AddError(fmt.Sprintf(
			"assertions[%d] best_under_us: no successful candidate", index))
		return
	}
	if result.BestUs > a.MaxUs {
		result.AddError(fmt.Sprintf(
			"assertions[%d] best_under_us: best is %dus, bound is %dus",
			index, result.BestUs, a.MaxUs))
	}
}
