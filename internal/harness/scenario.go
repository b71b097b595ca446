package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario is a lineup test: an optional seed dataset, setup actions that
// must succeed, a flow of actions with expected outcomes, and assertions on
// the resulting trace and final state.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario checks.
	Description string `yaml:"description"`

	// Seed is "default" for the embedded U10 dataset, a dataset path
	// relative to the scenario file, or empty for a bare database.
	Seed string `yaml:"seed,omitempty"`

	// Setup actions run before the flow. Any failure aborts the run.
	Setup []ActionStep `yaml:"setup,omitempty"`

	// Flow is the main sequence of actions with expected outcomes.
	Flow []FlowStep `yaml:"flow"`

	// Assertions are evaluated after the flow.
	Assertions []Assertion `yaml:"assertions"`

	// dir is the directory of the scenario file; relative seed paths
	// resolve against it.
	dir string
}

// ActionStep is a single setup action.
type ActionStep struct {
	// Action names an engine operation, e.g. "assign".
	Action string `yaml:"action"`

	// Args holds the action arguments.
	Args map[string]any `yaml:"args"`
}

// FlowStep invokes an action and checks its outcome.
type FlowStep struct {
	Invoke string         `yaml:"invoke"`
	Args   map[string]any `yaml:"args"`

	// Expect is the expected outcome. A nil Expect means Success.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause is an expected outcome.
type ExpectClause struct {
	// Case is one of Success, Validation, Conflict or Referential.
	Case string `yaml:"case"`

	// Code narrows the case: the conflict code (e.g. "JERSEY_TAKEN"), the
	// validation code, or the missing entity. Empty matches any code.
	Code string `yaml:"code,omitempty"`
}

// Assertion checks the trace or the final state.
type Assertion struct {
	// Type is one of trace_contains, trace_order, trace_count, lineup,
	// playtime.
	Type string `yaml:"type"`

	// Action and Args select invocations (trace_contains, trace_count).
	// Args is a subset match.
	Action string         `yaml:"action,omitempty"`
	Args   map[string]any `yaml:"args,omitempty"`

	// Count is the expected number of invocations (trace_count).
	Count int `yaml:"count,omitempty"`

	// Actions is the expected invocation order (trace_order).
	Actions []string `yaml:"actions,omitempty"`

	// Period is a period id or "<gameId>/<n>" (lineup).
	Period string `yaml:"period,omitempty"`

	// Positions maps position ids to the expected player id; "" expects an
	// open position (lineup).
	Positions map[string]string `yaml:"positions,omitempty"`

	// Bench and Absent list player ids in any order (lineup).
	Bench  []string `yaml:"bench,omitempty"`
	Absent []string `yaml:"absent,omitempty"`

	// Empty is the expected number of empty rows (lineup).
	Empty *int `yaml:"empty,omitempty"`

	// Game or Team selects the report; Player its row (playtime).
	Game   string `yaml:"game,omitempty"`
	Team   string `yaml:"team,omitempty"`
	Player string `yaml:"player,omitempty"`

	// Expected report values (playtime). Absent values are not checked.
	Played                *int   `yaml:"played,omitempty"`
	BenchPeriods          *int   `yaml:"benchPeriods,omitempty"`
	TotalPeriods          *int   `yaml:"totalPeriods,omitempty"`
	PercentageBasisPoints *int64 `yaml:"percentageBasisPoints,omitempty"`
	IsAbsent              *bool  `yaml:"isAbsent,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertLineup        = "lineup"
	AssertPlaytime      = "playtime"
)

// Outcome cases.
const (
	CaseSuccess     = "Success"
	CaseValidation  = "Validation"
	CaseConflict    = "Conflict"
	CaseReferential = "Referential"
)

// SeedDefault selects the embedded dataset.
const SeedDefault = "default"

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	s, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	s.dir = filepath.Dir(path)
	if err := checkSeedPath(s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return s, nil
}

// ParseScenario parses scenario YAML. Relative seed paths resolve against
// the working directory.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

// SeedPath returns the resolved seed dataset path, or "" for none or the
// default dataset.
func (s *Scenario) SeedPath() string {
	if s.Seed == "" || s.Seed == SeedDefault {
		return ""
	}
	if filepath.IsAbs(s.Seed) {
		return s.Seed
	}
	return filepath.Join(s.dir, s.Seed)
}

func checkSeedPath(s *Scenario) error {
	path := s.SeedPath()
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("seed dataset not found: %s", path)
	}
	return nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Setup {
		if step.Action == "" {
			return fmt.Errorf("setup[%d]: action is required", i)
		}
		if _, ok := actions[step.Action]; !ok {
			return fmt.Errorf("setup[%d]: unknown action %q", i, step.Action)
		}
		if step.Args == nil {
			return fmt.Errorf("setup[%d]: args is required (use empty map if no args)", i)
		}
	}

	for i, step := range s.Flow {
		if step.Invoke == "" {
			return fmt.Errorf("flow[%d]: invoke is required", i)
		}
		if _, ok := actions[step.Invoke]; !ok {
			return fmt.Errorf("flow[%d]: unknown action %q", i, step.Invoke)
		}
		if step.Args == nil {
			return fmt.Errorf("flow[%d]: args is required (use empty map if no args)", i)
		}
		if step.Expect != nil {
			switch step.Expect.Case {
			case CaseSuccess, CaseValidation, CaseConflict, CaseReferential:
			case "":
				return fmt.Errorf("flow[%d].expect: case is required", i)
			default:
				return fmt.Errorf("flow[%d].expect: unknown case %q", i, step.Expect.Case)
			}
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertTraceContains:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Actions) == 0 {
			return fmt.Errorf("assertions[%d]: actions list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertLineup:
		if a.Period == "" {
			return fmt.Errorf("assertions[%d]: period is required for lineup", index)
		}
	case AssertPlaytime:
		if (a.Game == "") == (a.Team == "") {
			return fmt.Errorf("assertions[%d]: exactly one of game and team is required for playtime", index)
		}
		if a.Player == "" {
			return fmt.Errorf("assertions[%d]: player is required for playtime", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
