// Package harness provides conformance testing for tuning sessions.
//
// The harness loads scenario files, runs a deterministic tuning session
// against the simulator backend, and validates the resulting trial
// trace as an executable contract test.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	task: matmul_tile
//	args: [4, 4]
//	target: llvm-sim
//	strategy: grid
//	trials: 9
//	batch: 3
//	seed: 1
//	repeats: 2
//	session_token: "sess-golden-0001"
//	assertions:
//	  - type: trial_count
//	    count: 9
//	  - type: best_index
//	    index: 0
//	principles:
//	  - no_duplicate_trials
//	  - monotone_best
//
// # Assertion Types
//
// The following assertion types are supported:
//
//   - trial_count: Verifies the session measured exactly N trials
//   - distinct_entities: Verifies no entity index repeats in the trace
//   - status_count: Verifies a status appears exactly N times
//   - best_index: Verifies the winning entity index
//   - best_under_us: Verifies the winning latency bound in microseconds
//
// # Principles
//
// Principles are named reusable properties checked against every trace
// that lists them: no_duplicate_trials, monotone_best,
// failures_recorded, complete_coverage.
//
// # Deterministic Testing
//
// All scenarios execute with a fixed session token, a seeded strategy,
// a logical clock (testutil.Clock), and the simulator cost model. This
// ensures identical traces across runs for golden file comparison.
package harness
