package harness

import (
	"github.com/joseignaciorc/great-expectations/internal/checkpoint"
	"github.com/joseignaciorc/great-expectations/internal/datacontext"
)

// Step outcomes recorded in the trace.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// TraceEvent records one executed step.
type TraceEvent struct {
	Step     int      `json:"step"`
	Op       string   `json:"op"`
	Target   string   `json:"target,omitempty"`
	Outcome  string   `json:"outcome"`
	Warnings []string `json:"warnings,omitempty"`
	Success  *bool    `json:"success,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step behaved as declared and every
	// assertion held.
	Pass bool `json:"pass"`

	Trace  []TraceEvent `json:"trace"`
	Errors []string     `json:"errors,omitempty"`

	// Runs and DryRuns hold step outputs by label, for assertions.
	Runs    map[string]*checkpoint.Result      `json:"-"`
	DryRuns map[string]*datacontext.TestResult `json:"-"`

	// Datasources and Checkpoints are the names registered when the steps
	// finished.
	Datasources []string `json:"-"`
	Checkpoints []string `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Trace:   []TraceEvent{},
		Errors:  []string{},
		Runs:    make(map[string]*checkpoint.Result),
		DryRuns: make(map[string]*datacontext.TestResult),
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func (r *Result) addTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
