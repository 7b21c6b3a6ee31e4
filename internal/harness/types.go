package harness

import (
	"github.com/roach88/cqlbridge/internal/query"
)

// StepResult is the compiled output of one step.
type StepResult struct {
	Name      string
	Statement string
	Inline    string
	Values    []any
	Dropped   []query.Predicate

	// Unsatisfiable is set when the predicates match no row.
	Unsatisfiable bool

	// Error is the error code, or the message for errors without one.
	Error string
}

// Result is the outcome of a scenario.
type Result struct {
	// Pass is true when every expect clause matched.
	Pass bool

	PathKeys []query.PathKey
	Steps    []StepResult

	// Errors contains expectation mismatches. Empty if Pass is true.
	Errors []string
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a mismatch and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
