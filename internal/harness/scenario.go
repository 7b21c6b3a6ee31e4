package harness

import (
	"bytes"
	"os"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/roach88/cqlbridge/internal/query"
	"github.com/roach88/cqlbridge/internal/schema"
)

// Scenario is a table definition and a list of predicate sets to compile
// against it.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	Table   TableSpec      `yaml:"table"`
	Options CompileOptions `yaml:"options,omitempty"`
	Steps   []Step         `yaml:"steps"`
}

// TableSpec is inline table metadata.
type TableSpec struct {
	Keyspace      string       `yaml:"keyspace"`
	Name          string       `yaml:"name"`
	View          bool         `yaml:"view,omitempty"`
	PartitionKey  []string     `yaml:"partition_key"`
	ClusteringKey []string     `yaml:"clustering_key,omitempty"`
	Columns       []ColumnSpec `yaml:"columns"`
	Indexes       []IndexSpec  `yaml:"indexes,omitempty"`
}

// ColumnSpec is a column name and CQL type.
type ColumnSpec struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// IndexSpec is a secondary index. Class is empty for built-in indexes.
type IndexSpec struct {
	Name   string `yaml:"name"`
	Target string `yaml:"target"`
	Class  string `yaml:"class,omitempty"`
}

// CompileOptions mirror the table options that change compilation.
type CompileOptions struct {
	Limit          int    `yaml:"limit,omitempty"`
	AllowFiltering bool   `yaml:"allow_filtering,omitempty"`
	Query          string `yaml:"query,omitempty"`
}

// Step compiles one predicate set.
type Step struct {
	Name       string          `yaml:"name"`
	Columns    []string        `yaml:"columns"`
	Predicates []PredicateSpec `yaml:"predicates,omitempty"`
	Expect     *Expect         `yaml:"expect,omitempty"`
}

// PredicateSpec is a predicate in YAML form. Op accepts every spelling
// query.ParseOperator does.
type PredicateSpec struct {
	Field string `yaml:"field"`
	Op    string `yaml:"op"`
	Value any    `yaml:"value"`
}

// Expect holds the expected compiled output. Empty fields are not checked,
// except Dropped, which is checked whenever it is present.
type Expect struct {
	Statement     string    `yaml:"statement,omitempty"`
	Inline        string    `yaml:"inline,omitempty"`
	Dropped       *[]string `yaml:"dropped,omitempty"`
	Unsatisfiable bool      `yaml:"unsatisfiable,omitempty"`
	Error         string    `yaml:"error,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read scenario file")
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, errors.Wrap(err, "parse YAML")
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, errors.Wrap(err, "invalid scenario")
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if s.Description == "" {
		return errors.New("description is required")
	}
	if s.Table.Keyspace == "" || s.Table.Name == "" {
		return errors.New("table keyspace and name are required")
	}
	if len(s.Table.Columns) == 0 {
		return errors.New("table columns are required")
	}
	if len(s.Steps) == 0 {
		return errors.New("steps list is required and must be non-empty")
	}

	seen := make(map[string]bool, len(s.Steps))
	for i, step := range s.Steps {
		if step.Name == "" {
			return errors.Newf("steps[%d]: name is required", i)
		}
		if seen[step.Name] {
			return errors.Newf("steps[%d]: duplicate name %q", i, step.Name)
		}
		seen[step.Name] = true
		for j, p := range step.Predicates {
			if p.Field == "" {
				return errors.Newf("steps[%d].predicates[%d]: field is required", i, j)
			}
			if _, err := query.ParseOperator(p.Op); err != nil {
				return errors.Wrapf(err, "steps[%d].predicates[%d]", i, j)
			}
		}
	}
	return nil
}

func (t TableSpec) metadata() *schema.TableMetadata {
	meta := &schema.TableMetadata{
		Keyspace:      t.Keyspace,
		Name:          t.Name,
		IsView:        t.View,
		PartitionKey:  t.PartitionKey,
		ClusteringKey: t.ClusteringKey,
	}
	for _, c := range t.Columns {
		meta.Columns = append(meta.Columns, schema.ColumnMetadata{Name: c.Name, Type: c.Type})
	}
	for _, idx := range t.Indexes {
		meta.Indexes = append(meta.Indexes, schema.IndexMetadata{Name: idx.Name, Target: idx.Target, ClassName: idx.Class})
	}
	return meta
}

func (s Step) predicates() []query.Predicate {
	out := make([]query.Predicate, len(s.Predicates))
	for i, p := range s.Predicates {
		op, _ := query.ParseOperator(p.Op) // checked by validateScenario
		out[i] = query.Predicate{Field: p.Field, Op: op, Value: p.Value}
	}
	return out
}
