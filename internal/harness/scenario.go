package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario is a documentation example expressed as steps and assertions.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Files are written into the project root before the first step,
	// keyed by slash-separated relative path.
	Files map[string]string `yaml:"files,omitempty"`

	// Env seeds the variables $NAME references resolve against.
	Env map[string]string `yaml:"env,omitempty"`

	Steps      []Step      `yaml:"steps"`
	Assertions []Assertion `yaml:"assertions"`

	// dir anchors Step.File paths.
	dir string
}

// Step is one data context call.
type Step struct {
	// Op is one of the Op* constants.
	Op string `yaml:"op"`

	// Name is the suite name (create_expectation_suite,
	// add_expectation_suite) or the checkpoint name (run_checkpoint).
	Name string `yaml:"name,omitempty"`

	// Config is an inline YAML document; File names one relative to the
	// scenario file.
	Config string `yaml:"config,omitempty"`
	File   string `yaml:"file,omitempty"`

	// ClassHint is used by test_yaml_config when the document has no
	// class_name.
	ClassHint string `yaml:"class_hint,omitempty"`

	Expectations []ExpectationStep `yaml:"expectations,omitempty"`

	// Env is merged into the scenario's variables (setenv).
	Env map[string]string `yaml:"env,omitempty"`

	// RunName and Overrides parameterize run_checkpoint.
	RunName   string `yaml:"run_name,omitempty"`
	Overrides string `yaml:"overrides,omitempty"`

	// As labels the output of test_yaml_config and run_checkpoint for
	// assertions. Defaults to Name.
	As string `yaml:"as,omitempty"`

	// ExpectError, when set, requires the step to fail with an error
	// containing this text.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// ExpectationStep is one expectation of add_expectation_suite.
type ExpectationStep struct {
	Type   string         `yaml:"expectation_type"`
	Kwargs map[string]any `yaml:"kwargs"`
}

// Step operations.
const (
	OpSetenv                 = "setenv"
	OpAddDatasource          = "add_datasource"
	OpCreateExpectationSuite = "create_expectation_suite"
	OpAddExpectationSuite    = "add_expectation_suite"
	OpTestYAMLConfig         = "test_yaml_config"
	OpAddCheckpoint          = "add_checkpoint"
	OpRunCheckpoint          = "run_checkpoint"
)

// Assertion validates what the steps produced.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Names is the expected listing (list_datasources, list_checkpoints).
	Names []string `yaml:"names,omitempty"`

	// Run labels the run_checkpoint output (run_success, result_shape).
	Run string `yaml:"run,omitempty"`

	// Success is the expected run flag (run_success). Defaults to true.
	Success *bool `yaml:"success,omitempty"`

	// Expect is matched as a subset of the run's shape (result_shape).
	Expect map[string]any `yaml:"expect,omitempty"`

	// DryRuns label test_yaml_config outputs (actions_equal).
	DryRuns []string `yaml:"dry_runs,omitempty"`
}

// Assertion type constants.
const (
	AssertListDatasources = "list_datasources"
	AssertListCheckpoints = "list_checkpoints"
	AssertRunSuccess      = "run_success"
	AssertResultShape     = "result_shape"
	AssertActionsEqual    = "actions_equal"
)

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
	return s, nil
}

// ParseScenario parses a scenario document. Step files resolve against
// the working directory.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// document returns the YAML a step carries.
func (s *Scenario) document(step Step) ([]byte, error) {
	if step.File == "" {
		return []byte(step.Config), nil
	}
	path := step.File
	if !filepath.IsAbs(path) && s.dir != "" {
		path = filepath.Join(s.dir, path)
	}
	return os.ReadFile(path)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for rel := range s.Files {
		if filepath.IsAbs(rel) || !filepath.IsLocal(filepath.FromSlash(rel)) {
			return fmt.Errorf("files: %q must be a relative path inside the project", rel)
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, step *Step) error {
	needsDoc := false
	switch step.Op {
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	case OpSetenv:
		if len(step.Env) == 0 {
			return fmt.Errorf("steps[%d]: env is required for setenv", index)
		}
	case OpAddDatasource, OpAddCheckpoint, OpTestYAMLConfig:
		needsDoc = true
	case OpCreateExpectationSuite, OpAddExpectationSuite, OpRunCheckpoint:
		if step.Name == "" {
			return fmt.Errorf("steps[%d]: name is required for %s", index, step.Op)
		}
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, step.Op)
	}

	if needsDoc && (step.Config == "") == (step.File == "") {
		return fmt.Errorf("steps[%d]: exactly one of config or file is required for %s", index, step.Op)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertListDatasources, AssertListCheckpoints:
	case AssertRunSuccess:
		if a.Run == "" {
			return fmt.Errorf("assertions[%d]: run is required for run_success", index)
		}
	case AssertResultShape:
		if a.Run == "" {
			return fmt.Errorf("assertions[%d]: run is required for result_shape", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for result_shape", index)
		}
	case AssertActionsEqual:
		if len(a.DryRuns) < 2 {
			return fmt.Errorf("assertions[%d]: actions_equal needs at least two dry_runs", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

// label is the key a step's output is recorded under.
func (step Step) label() string {
	if step.As != "" {
		return step.As
	}
	return step.Name
}
