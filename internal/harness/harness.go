package harness

import (
	"fmt"
	"slices"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/roach88/cqlbridge/internal/fault"
	"github.com/roach88/cqlbridge/internal/logutil"
	"github.com/roach88/cqlbridge/internal/query"
	"github.com/roach88/cqlbridge/internal/schema"
)

// Harness compiles scenarios.
type Harness struct {
	logger *zap.Logger
}

// New creates a Harness. A nil logger discards output.
func New(logger *zap.Logger) *Harness {
	return &Harness{logger: logutil.OrNop(logger).Named("harness")}
}

// Run executes a scenario with a discarding logger.
func Run(s *Scenario) (*Result, error) {
	return New(nil).Run(s)
}

// Run builds the scenario's catalog, compiles every step and checks the
// expect clauses. Compilation errors are step results, not Run errors;
// Run fails only when the table itself cannot be built.
func (h *Harness) Run(s *Scenario) (*Result, error) {
	cat, err := schema.Build(s.Table.metadata())
	if err != nil {
		return nil, errors.Wrapf(err, "scenario %s", s.Name)
	}
	compiler := query.NewCompiler(cat,
		query.WithLimit(s.Options.Limit),
		query.WithRawQuery(s.Options.Query),
		query.WithLogger(h.logger))

	result := NewResult()
	result.PathKeys = query.PathKeys(cat)
	for _, step := range s.Steps {
		sr := compileStep(compiler, step, s.Options.AllowFiltering)
		h.logger.Debug("step compiled",
			zap.String("scenario", s.Name),
			zap.String("step", step.Name),
			zap.String("statement", sr.Statement))
		if step.Expect != nil {
			checkExpect(result, sr, step.Expect)
		}
		result.Steps = append(result.Steps, sr)
	}
	return result, nil
}

func compileStep(c *query.Compiler, step Step, allowFiltering bool) StepResult {
	sr := StepResult{Name: step.Name}
	q, err := c.Compile(step.predicates(), step.Columns, allowFiltering)
	switch {
	case errors.Is(err, fault.ErrUnsatisfiable):
		sr.Unsatisfiable = true
		return sr
	case err != nil:
		sr.Error = errorCode(err)
		return sr
	}
	sr.Statement = q.Statement
	sr.Values = q.Values
	sr.Dropped = q.Dropped
	if sr.Inline, err = q.Inline(); err != nil {
		sr.Error = errorCode(err)
	}
	return sr
}

func errorCode(err error) string {
	var fe *fault.Error
	if errors.As(err, &fe) {
		return string(fe.Code)
	}
	return err.Error()
}

func checkExpect(r *Result, sr StepResult, e *Expect) {
	fail := func(field string, want, got any) {
		r.AddError(fmt.Sprintf("step %s: %s: expected %v, got %v", sr.Name, field, want, got))
	}
	if e.Statement != "" && e.Statement != sr.Statement {
		fail("statement", e.Statement, sr.Statement)
	}
	if e.Inline != "" && e.Inline != sr.Inline {
		fail("inline", e.Inline, sr.Inline)
	}
	if e.Unsatisfiable != sr.Unsatisfiable {
		fail("unsatisfiable", e.Unsatisfiable, sr.Unsatisfiable)
	}
	if e.Error != sr.Error {
		fail("error", e.Error, sr.Error)
	}
	if e.Dropped != nil {
		got := make([]string, len(sr.Dropped))
		for i, p := range sr.Dropped {
			got[i] = p.Field
		}
		if !slices.Equal(*e.Dropped, got) {
			fail("dropped", *e.Dropped, got)
		}
	}
}
