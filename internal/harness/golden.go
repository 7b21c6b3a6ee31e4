package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Render formats a result as the text stored in golden files.
func Render(name string, r *Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario: %s\n", name)
	b.WriteString("pathkeys:\n")
	for _, pk := range r.PathKeys {
		fmt.Fprintf(&b, "  %d %s\n", pk.Cost, strings.Join(pk.Columns, ","))
	}
	for _, s := range r.Steps {
		fmt.Fprintf(&b, "step %s:\n", s.Name)
		switch {
		case s.Unsatisfiable:
			b.WriteString("  unsatisfiable\n")
			continue
		case s.Error != "" && s.Statement == "":
			fmt.Fprintf(&b, "  error: %s\n", s.Error)
			continue
		}
		fmt.Fprintf(&b, "  statement: %s\n", s.Statement)
		if s.Inline != "" {
			fmt.Fprintf(&b, "  inline: %s\n", s.Inline)
		}
		if s.Error != "" {
			fmt.Fprintf(&b, "  error: %s\n", s.Error)
		}
		if len(s.Values) > 0 {
			vals := make([]string, len(s.Values))
			for i, v := range s.Values {
				vals[i] = fmt.Sprintf("%v", v)
			}
			fmt.Fprintf(&b, "  values: %s\n", strings.Join(vals, " | "))
		}
		for _, p := range s.Dropped {
			fmt.Fprintf(&b, "  dropped: %s\n", p)
		}
	}
	return b.String()
}

// RunWithGolden executes a scenario and compares its rendering against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(Render(name, result)))
}
