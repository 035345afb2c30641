package checkpoint

import (
	"bytes"
	"encoding/json"

	"github.com/joseignaciorc/great-expectations/internal/action"
	"github.com/joseignaciorc/great-expectations/internal/config"
	"github.com/joseignaciorc/great-expectations/internal/expectation"
	"github.com/joseignaciorc/great-expectations/internal/ir"
)

// ValidationRun is the outcome of one validation of a checkpoint run.
type ValidationRun struct {
	Identifier       ir.ValidationResultIdentifier      `json:"-"`
	ValidationResult *expectation.SuiteValidationResult `json:"validation_result"`
	ActionsResults   map[string]action.Result           `json:"actions_results"`

	// ActionOrder lists action names in the order they ran.
	ActionOrder []string `json:"-"`

	// ActionErrors holds the error message of each failed action.
	ActionErrors map[string]string `json:"-"`
}

// Success reports whether the validation passed and no action failed.
func (v ValidationRun) Success() bool {
	if v.ValidationResult == nil || !v.ValidationResult.Success {
		return false
	}
	return len(v.ActionErrors) == 0
}

// Result is the outcome of one checkpoint run.
type Result struct {
	Success bool
	RunID   ir.RunIdentifier

	// RunResults are in validation order.
	RunResults []ValidationRun

	// CheckpointConfig is the config that ran: template merged,
	// SimpleCheckpoint expanded, overrides applied, variables substituted.
	CheckpointConfig *config.CheckpointConfig
}

// Identifiers returns the run result keys in validation order.
func (r *Result) Identifiers() []ir.ValidationResultIdentifier {
	out := make([]ir.ValidationResultIdentifier, len(r.RunResults))
	for i, v := range r.RunResults {
		out[i] = v.Identifier
	}
	return out
}

// Get returns the validation run stored under id.
func (r *Result) Get(id ir.ValidationResultIdentifier) (ValidationRun, bool) {
	key := id.String()
	for _, v := range r.RunResults {
		if v.Identifier.String() == key {
			return v, true
		}
	}
	return ValidationRun{}, false
}

// ValidationResults returns the suite validation results in order.
func (r *Result) ValidationResults() []*expectation.SuiteValidationResult {
	out := make([]*expectation.SuiteValidationResult, len(r.RunResults))
	for i, v := range r.RunResults {
		out[i] = v.ValidationResult
	}
	return out
}

// MarshalJSON writes run_results as an object keyed by identifier string,
// keeping validation order.
func (r *Result) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"success":`)
	if r.Success {
		buf.WriteString("true")
	} else {
		buf.WriteString("false")
	}

	buf.WriteString(`,"run_id":`)
	runID, err := json.Marshal(r.RunID)
	if err != nil {
		return nil, err
	}
	buf.Write(runID)

	buf.WriteString(`,"run_results":{`)
	for i, v := range r.RunResults {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(v.Identifier.String())
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')

	buf.WriteString(`,"checkpoint_config":`)
	cfg, err := json.Marshal(r.CheckpointConfig)
	if err != nil {
		return nil, err
	}
	buf.Write(cfg)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
