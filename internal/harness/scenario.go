package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario: a deterministic tuning
// session over a registered template plus assertions on its trace.
type Scenario struct {
	// Name uniquely identifies this scenario. It is also the golden
	// file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Task is the registered template name; Args its arguments.
	Task string  `yaml:"task"`
	Args []int64 `yaml:"args"`

	// Target is the measurement target. Defaults to "llvm-sim".
	Target string `yaml:"target,omitempty"`

	// Strategy selects the tuner: random, grid, genetic or model.
	Strategy string `yaml:"strategy"`

	// Seed makes seeded strategies reproducible.
	Seed int64 `yaml:"seed,omitempty"`

	// Trials is the trial budget; Batch the proposal batch size
	// (default 8); EarlyStop the stale-trial cutoff (0 disables).
	Trials    int `yaml:"trials"`
	Batch     int `yaml:"batch,omitempty"`
	EarlyStop int `yaml:"early_stop,omitempty"`

	// Repeats is the per-candidate sample count (default 1 for exact
	// traces). VectorWidth configures the simulator's lane alignment.
	Repeats     int `yaml:"repeats,omitempty"`
	VectorWidth int `yaml:"vector_width,omitempty"`

	// SessionToken is the fixed session token for deterministic
	// traces. If empty, defaults to "test-session-default".
	SessionToken string `yaml:"session_token,omitempty"`

	// Assertions validate the final trace.
	// Supported types: trial_count, distinct_entities, status_count,
	// best_index, best_under_us.
	Assertions []Assertion `yaml:"assertions"`

	// Principles lists named reusable trace properties to check.
	Principles []string `yaml:"principles,omitempty"`
}

// Assertion validates the session trace.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trial_count": Check the trace holds exactly Count trials
	// - "distinct_entities": Check no entity index repeats
	// - "status_count": Check Status appears exactly Count times
	// - "best_index": Check the winning entity index equals Index
	// - "best_under_us": Check the winning latency is at most MaxUs
	Type string `yaml:"type"`

	// Count is the expected number of occurrences (trial_count,
	// status_count).
	Count int `yaml:"count,omitempty"`

	// Status is the trial status name (status_count).
	Status string `yaml:"status,omitempty"`

	// Index is the expected winning entity index (best_index).
	Index int64 `yaml:"index,omitempty"`

	// MaxUs is the winning latency bound in microseconds
	// (best_under_us).
	MaxUs int64 `yaml:"max_us,omitempty"`
}

// Assertion type constants.
const (
	AssertTrialCount       = "trial_count"
	AssertDistinctEntities = "distinct_entities"
	AssertStatusCount      = "status_count"
	AssertBestIndex        = "best_index"
	AssertBestUnderUs      = "best_under_us"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs
	// "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	applyScenarioDefaults(&scenario)
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// applyScenarioDefaults fills unset fields in place.
func applyScenarioDefaults(s *Scenario) {
	if s.Target == "" {
		s.Target = "llvm-sim"
	}
	if s.Batch == 0 {
		s.Batch = 8
	}
	if s.Repeats == 0 {
		s.Repeats = 1
	}
	if s.SessionToken == "" {
		s.SessionToken = "test-session-default"
	}
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Task == "" {
		return fmt.Errorf("task is required")
	}
	if s.Strategy == "" {
		return fmt.Errorf("strategy is required")
	}
	if s.Trials <= 0 {
		return fmt.Errorf("trials must be positive")
	}
	if len(s.Assertions) == 0 && len(s.Principles) == 0 {
		return fmt.Errorf("at least one assertion or principle is required")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	for i, name := range s.Principles {
		if _, ok := principleRegistry[name]; !ok {
			return fmt.Errorf("principles[%d]: unknown principle %q", i, name)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTrialCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trial_count", index)
		}
	case AssertDistinctEntities:
		// No parameters.
	case AssertStatusCount:
		if a.Status == "" {
			return fmt.Errorf("assertions[%d]: status is required for status_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for status_count", index)
		}
	case AssertBestIndex:
		if a.Index < 0 {
			return fmt.Errorf("assertions[%d]: index must be non-negative for best_index", index)
		}
	case AssertBestUnderUs:
		if a.MaxUs <= 0 {
			return fmt.Errorf("assertions[%d]: max_us must be positive for best_under_us", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
