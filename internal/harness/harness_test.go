package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios_Golden(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			s, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "expectation mismatches: %v", result.Errors)
		})
	}
}

const minimal = `
name: minimal
description: one step
table:
  keyspace: ks
  name: kv
  partition_key: [key]
  columns:
    - {name: key, type: text}
steps:
  - name: scan
    columns: [key]
`

func TestParseScenario(t *testing.T) {
	s, err := ParseScenario([]byte(minimal))
	require.NoError(t, err)
	assert.Equal(t, "minimal", s.Name)
	assert.Equal(t, []string{"key"}, s.Table.PartitionKey)
	require.Len(t, s.Steps, 1)
	assert.Nil(t, s.Steps[0].Expect)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := map[string]string{
		"unknown field": minimal + "extra: 1\n",
		"no steps": `
name: x
description: y
table: {keyspace: ks, name: kv, partition_key: [k], columns: [{name: k, type: text}]}
`,
		"bad operator": `
name: x
description: y
table: {keyspace: ks, name: kv, partition_key: [k], columns: [{name: k, type: text}]}
steps:
  - name: s
    columns: [k]
    predicates: [{field: k, op: "!=", value: 1}]
`,
		"duplicate step": `
name: x
description: y
table: {keyspace: ks, name: kv, partition_key: [k], columns: [{name: k, type: text}]}
steps:
  - {name: s, columns: [k]}
  - {name: s, columns: [k]}
`,
		"no description": `
name: x
table: {keyspace: ks, name: kv, partition_key: [k], columns: [{name: k, type: text}]}
steps:
  - {name: s, columns: [k]}
`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseScenario([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadScenario_Missing(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/missing.yaml")
	assert.Error(t, err)
}

func TestRun_ReportsMismatches(t *testing.T) {
	s, err := ParseScenario([]byte(minimal + `
  - name: wrong
    columns: [key]
    predicates:
      - {field: key, op: "=", value: a}
    expect:
      statement: SELECT 1
      dropped: [key]
      unsatisfiable: true
`))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "step wrong: statement")
}

func TestRun_InvalidTable(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: broken
description: partition key column is missing
table:
  keyspace: ks
  name: kv
  partition_key: [nope]
  columns:
    - {name: key, type: text}
steps:
  - {name: s, columns: [key]}
`))
	require.NoError(t, err)

	_, err = Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenario broken")
}

func TestRender_RawQuery(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: raw
description: fixed statement
table:
  keyspace: ks
  name: kv
  partition_key: [key]
  columns:
    - {name: key, type: text}
options:
  query: SELECT * FROM ks.kv
  allow_filtering: true
steps:
  - name: scan
    columns: [key]
    predicates:
      - {field: key, op: "=", value: a}
`))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.Equal(t, `scenario: raw
pathkeys:
  1 key
  10000 key
  1 __rowid__
step scan:
  statement: SELECT * FROM ks.kv ALLOW FILTERING
  inline: SELECT * FROM ks.kv ALLOW FILTERING
  dropped: key = a
`, Render("raw", result))
}
