package cqltype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cqlbridge/internal/fault"
)

func TestParse_Scalars(t *testing.T) {
	for k, name := range kindNames {
		t.Run(name, func(t *testing.T) {
			d, err := Parse(name)
			require.NoError(t, err)
			assert.Equal(t, Scalar{Kind: k}, d)
			assert.Equal(t, name, d.String())
		})
	}

	d, err := Parse("varchar")
	require.NoError(t, err)
	assert.Equal(t, Scalar{Kind: KindText}, d)
}

func TestParse_Collections(t *testing.T) {
	tests := []struct {
		input string
		want  Descriptor
	}{
		{"list<int>", List{Elem: Scalar{KindInt}}},
		{"set<text>", Set{Elem: Scalar{KindText}}},
		{"map<text, bigint>", Map{Key: Scalar{KindText}, Value: Scalar{KindBigint}}},
		{"frozen<tuple<int, text, timestamp>>", Tuple{Elems: []Descriptor{
			Scalar{KindInt}, Scalar{KindText}, Scalar{KindTimestamp},
		}}},
		{
			"list<frozen<map<text, frozen<set<int>>>>>",
			List{Elem: Map{Key: Scalar{KindText}, Value: Set{Elem: Scalar{KindInt}}}},
		},
		{
			"map<frozen<tuple<int, int>>, list<varchar>>",
			Map{
				Key:   Tuple{Elems: []Descriptor{Scalar{KindInt}, Scalar{KindInt}}},
				Value: List{Elem: Scalar{KindText}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Unsupported(t *testing.T) {
	for _, in := range []string{
		"",
		"duration",
		"frozen<address>",
		"vector<float, 3>",
		"map<text>",
		"list<int",
		"list<int>>",
		"tuple<>",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			require.Error(t, err)
			assert.True(t, fault.IsSchemaError(err), "expected SCHEMA error, got %v", err)
		})
	}
}

func TestDescriptor_String(t *testing.T) {
	d := MustParse("list<frozen<map<text, frozen<tuple<int, uuid>>>>>")
	assert.Equal(t, "list<map<text, tuple<int, uuid>>>", d.String())
}

func TestKind_IsInteger(t *testing.T) {
	for _, k := range []Kind{KindBigint, KindCounter, KindInt, KindSmallint, KindTinyint} {
		assert.True(t, k.IsInteger(), k.String())
	}
	for _, k := range []Kind{KindVarint, KindDecimal, KindDouble, KindText, KindBlob} {
		assert.False(t, k.IsInteger(), k.String())
	}
}

func TestRelationalType(t *testing.T) {
	tests := map[string]string{
		"ascii":                       "bytea",
		"blob":                        "bytea",
		"double":                      "float8",
		"float":                       "float4",
		"time":                        "timetz",
		"timestamp":                   "timestamptz",
		"timeuuid":                    "uuid",
		"tinyint":                     "smallint",
		"varchar":                     "text",
		"varint":                      "numeric",
		"counter":                     "bigint",
		"int":                         "int",
		"frozen<tuple<int, text>>":    "json",
		"map<text, int>":              "json",
		"set<int>":                    "int[]",
		"list<timestamp>":             "timestamptz[]",
		"list<frozen<list<double>>>":  "float8[][]",
	}
	for in, want := range tests {
		assert.Equal(t, want, RelationalType(MustParse(in)), in)
	}
}
