package query

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/roach88/cqlbridge/internal/cqltype"
	"github.com/roach88/cqlbridge/internal/fault"
	"github.com/roach88/cqlbridge/internal/metrics"
	"github.com/roach88/cqlbridge/internal/testutil"
)

const (
	eventsHead = `SELECT "body", "pk1", "pk2", "ck1", "ck2", "ck3" FROM "ks"."events"`
	pk1        = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
)

func eventsCompiler(t *testing.T, opts ...CompilerOption) *Compiler {
	t.Helper()
	return NewCompiler(testutil.Catalog(t, testutil.EventsMetadata()), opts...)
}

func eq(field string, v any) Predicate { return Predicate{Field: field, Op: OpEq, Value: v} }

func TestCompile_NoPredicates(t *testing.T) {
	c := eventsCompiler(t)

	q, err := c.Compile(nil, []string{"body"}, false)
	require.NoError(t, err)
	assert.Equal(t, eventsHead, q.Statement)
	assert.Empty(t, q.Values)
	assert.Equal(t, []string{"body", "pk1", "pk2", "ck1", "ck2", "ck3"}, q.Columns)
}

func TestCompile_Projection(t *testing.T) {
	c := eventsCompiler(t)

	q, err := c.Compile(nil, []string{"ck1", "__rowid__", "score", "ck1"}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"ck1", "score", "pk1", "pk2", "ck2", "ck3"}, q.Columns)

	_, err = c.Compile(nil, []string{"nope"}, false)
	require.Error(t, err)
	assert.True(t, fault.IsSchemaError(err))
}

func TestCompile_FullKeyAnyOrder(t *testing.T) {
	c := eventsCompiler(t)
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	orders := [][]Predicate{
		{eq("pk1", pk1), eq("pk2", "a"), eq("ck1", 1), eq("ck2", 2), eq("ck3", ts)},
		{eq("ck3", ts), eq("ck1", 1), eq("pk2", "a"), eq("ck2", 2), eq("pk1", pk1)},
		{eq("ck2", 2), eq("ck3", ts), eq("ck1", 1), eq("pk1", pk1), eq("pk2", "a")},
	}
	for _, preds := range orders {
		q, err := c.Compile(preds, []string{"body"}, false)
		require.NoError(t, err)
		assert.Equal(t, eventsHead+` WHERE "pk1" = ? AND "pk2" = ? AND "ck1" = ? AND "ck2" = ? AND "ck3" = ?`, q.Statement)
		assert.Equal(t, []any{uuid.MustParse(pk1), "a", int32(1), int32(2), ts}, q.Values)
		assert.Empty(t, q.Dropped)
	}
}

func TestCompile_ClusteringPrefix(t *testing.T) {
	c := eventsCompiler(t)

	tests := []struct {
		name      string
		preds     []Predicate
		filtering bool
		where     string
		dropped   []string
	}{
		{
			name:    "trailing clustering column alone",
			preds:   []Predicate{eq("ck3", "2024-01-02 03:04:05")},
			dropped: []string{"ck3"},
		},
		{
			name:      "trailing clustering column with filtering",
			preds:     []Predicate{eq("ck3", "2024-01-02 03:04:05")},
			filtering: true,
			where:     ` WHERE "ck3" = ?`,
		},
		{
			name:    "gap in prefix",
			preds:   []Predicate{eq("ck3", "2024-01-02 03:04:05"), eq("ck1", 1)},
			where:   ` WHERE "ck1" = ?`,
			dropped: []string{"ck3"},
		},
		{
			name:    "gap restricts later columns",
			preds:   []Predicate{eq("ck1", 1), eq("ck3", "2024-01-02 03:04:05"), eq("pk2", "a")},
			where:   ` WHERE "pk2" = ? AND "ck1" = ?`,
			dropped: []string{"ck3"},
		},
		{
			name:    "second equality on same column",
			preds:   []Predicate{eq("ck1", 1), eq("ck1", 2), eq("ck2", 3)},
			where:   ` WHERE "ck1" = ? AND "ck2" = ?`,
			dropped: []string{"ck1"},
		},
		{
			name:    "regular column equality",
			preds:   []Predicate{eq("score", 1.5)},
			dropped: []string{"score"},
		},
		{
			name:    "indexed column equality",
			preds:   []Predicate{eq("email", "a@b.c")},
			where:   ` WHERE "email" = ?`,
		},
		{
			name:    "unknown column",
			preds:   []Predicate{eq("missing", 1)},
			dropped: []string{"missing"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := c.Compile(tt.preds, []string{"body"}, tt.filtering)
			require.NoError(t, err)

			want := eventsHead + tt.where
			if tt.filtering {
				want += " ALLOW FILTERING"
			}
			assert.Equal(t, want, q.Statement)

			var dropped []string
			for _, p := range q.Dropped {
				dropped = append(dropped, p.Field)
			}
			assert.Equal(t, tt.dropped, dropped)
		})
	}
}

func TestCompile_NullKeyIsUnsatisfiable(t *testing.T) {
	c := eventsCompiler(t)

	for _, preds := range [][]Predicate{
		{eq("pk1", pk1), eq("ck1", nil)},
		{eq("ck1", nil), eq("score", 1.0)},
		{eq("pk2", nil)},
		{{Field: "pk2", Op: OpIn, Value: []any{"a", nil}}},
	} {
		q, err := c.Compile(preds, []string{"body"}, true)
		assert.Nil(t, q)
		assert.True(t, errors.Is(err, fault.ErrUnsatisfiable), "%v", preds)
		assert.True(t, fault.IsUnsatisfiable(err))
	}
}

func TestCompile_RowID(t *testing.T) {
	c := NewCompiler(testutil.Catalog(t, testutil.UsersMetadata()))

	q, err := c.Compile([]Predicate{
		{Field: "age", Op: OpGt, Value: 30},
		eq("__rowid__", `["7","alice"]`),
	}, []string{"age"}, false)
	require.NoError(t, err)

	assert.Equal(t, `SELECT "age", "id", "name" FROM "ks"."users" WHERE "id" = ? AND "name" = ?`, q.Statement)
	assert.Equal(t, []any{int32(7), "alice"}, q.Values)
	require.Len(t, q.Dropped, 1)
	assert.Equal(t, "age", q.Dropped[0].Field)

	_, err = c.Compile([]Predicate{eq("__rowid__", nil)}, []string{"age"}, false)
	assert.True(t, errors.Is(err, fault.ErrUnsatisfiable))

	_, err = c.Compile([]Predicate{eq("__rowid__", `["7"]`)}, []string{"age"}, false)
	assert.True(t, fault.IsFormatError(err))

	_, err = c.Compile([]Predicate{eq("__rowid__", `["x","alice"]`)}, []string{"age"}, false)
	assert.True(t, fault.IsTypeConversionError(err))
}

func TestCompile_In(t *testing.T) {
	c := eventsCompiler(t)

	q, err := c.Compile([]Predicate{
		eq("pk1", pk1),
		{Field: "pk2", Op: OpIn, Value: []string{"a", "b"}},
	}, []string{"body"}, false)
	require.NoError(t, err)
	assert.Equal(t, eventsHead+` WHERE "pk1" = ? AND "pk2" IN ?`, q.Statement)
	assert.Equal(t, []any{"a", "b"}, q.Values[1])
	assert.Equal(t, cqltype.List{Elem: cqltype.Scalar{Kind: cqltype.KindText}}, q.Types[1])

	tests := map[string][]Predicate{
		"after range": {
			{Field: "ck1", Op: OpGt, Value: 1},
			{Field: "ck2", Op: OpIn, Value: []any{1, 2}},
		},
		"regular column": {
			{Field: "score", Op: OpIn, Value: []any{1.0}},
		},
		"already bound": {
			eq("ck1", 1),
			{Field: "ck1", Op: OpIn, Value: []any{1, 2}},
		},
	}
	for name, preds := range tests {
		t.Run(name, func(t *testing.T) {
			q, err := c.Compile(preds, []string{"body"}, false)
			require.NoError(t, err)
			require.NotEmpty(t, q.Dropped)
			last := q.Dropped[len(q.Dropped)-1]
			assert.Equal(t, OpIn, last.Op)
			assert.NotContains(t, q.Statement, " IN ")
		})
	}
}

func TestCompile_TextSearch(t *testing.T) {
	c := eventsCompiler(t)

	q, err := c.Compile([]Predicate{
		{Field: "body", Op: OpContains, Value: "disk"},
		{Field: "body", Op: OpLike, Value: "err%"},
		{Field: "email", Op: OpLike, Value: "%@x"},
	}, []string{"body"}, false)
	require.NoError(t, err)

	assert.Equal(t, eventsHead+` WHERE "body" LIKE ? AND "body" LIKE ?`, q.Statement)
	assert.Equal(t, []any{"%disk%", "err%"}, q.Values)
	require.Len(t, q.Dropped, 1)
	assert.Equal(t, "email", q.Dropped[0].Field)
}

func TestCompile_Range(t *testing.T) {
	c := eventsCompiler(t)

	tests := []struct {
		name      string
		pred      Predicate
		filtering bool
		pushed    bool
	}{
		{"clustering", Predicate{Field: "ck2", Op: OpGe, Value: 3}, false, true},
		{"text search index", Predicate{Field: "body", Op: OpLt, Value: "m"}, false, true},
		{"regular without filtering", Predicate{Field: "score", Op: OpGt, Value: 1.5}, false, false},
		{"regular with filtering", Predicate{Field: "score", Op: OpGt, Value: 1.5}, true, true},
		{"built-in index with filtering", Predicate{Field: "email", Op: OpLe, Value: "m"}, true, true},
		{"partition key", Predicate{Field: "pk2", Op: OpGt, Value: "a"}, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := c.Compile([]Predicate{tt.pred}, []string{"body"}, tt.filtering)
			require.NoError(t, err)
			if tt.pushed {
				assert.Contains(t, q.Statement, ` WHERE "`+tt.pred.Field+`" `+tt.pred.Op.String()+` ?`)
				assert.Empty(t, q.Dropped)
			} else {
				assert.NotContains(t, q.Statement, "WHERE")
				assert.Len(t, q.Dropped, 1)
			}
		})
	}
}

func TestCompile_LimitAndFiltering(t *testing.T) {
	c := eventsCompiler(t, WithLimit(10))

	q, err := c.Compile([]Predicate{eq("score", 2.5)}, []string{"score"}, true)
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT "score", "pk1", "pk2", "ck1", "ck2", "ck3" FROM "ks"."events" WHERE "score" = ? LIMIT 10 ALLOW FILTERING`,
		q.Statement)
	assert.Equal(t, []any{2.5}, q.Values)
}

func TestCompile_RawQuery(t *testing.T) {
	c := eventsCompiler(t, WithRawQuery("  SELECT * FROM ks.events WHERE pk1 = 6ba7b810-9dad-11d1-80b4-00c04fd430c8 "), WithLimit(5))

	preds := []Predicate{eq("ck1", 1)}
	q, err := c.Compile(preds, []string{"body", "extra"}, true)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM ks.events WHERE pk1 = 6ba7b810-9dad-11d1-80b4-00c04fd430c8 LIMIT 5 ALLOW FILTERING", q.Statement)
	assert.Empty(t, q.Values)
	assert.Equal(t, preds, q.Dropped)
	assert.Equal(t, []string{"body", "extra"}, q.Columns)
}

func TestCompile_TypeConversionError(t *testing.T) {
	c := eventsCompiler(t)

	_, err := c.Compile([]Predicate{eq("ck1", "not a number")}, []string{"body"}, false)
	require.Error(t, err)
	assert.True(t, fault.IsTypeConversionError(err))

	var fe *fault.Error
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "ck1", fe.Column)
}

func TestCompiledQuery_Inline(t *testing.T) {
	c := NewCompiler(testutil.Catalog(t, testutil.UsersMetadata()))

	q, err := c.Compile([]Predicate{
		eq("id", 7),
		{Field: "name", Op: OpIn, Value: []any{"o'brien", "x?"}},
	}, []string{"age"}, false)
	require.NoError(t, err)

	s, err := q.Inline()
	require.NoError(t, err)
	assert.Equal(t, `SELECT "age", "id", "name" FROM "ks"."users" WHERE "id" = 7 AND "name" IN ('o''brien', 'x?')`, s)
}

func TestCompiledQuery_InlineMismatch(t *testing.T) {
	q := &CompiledQuery{
		Statement: `SELECT * FROM t WHERE a = ? AND b = ?`,
		Values:    []any{int32(1)},
		Types:     []cqltype.Descriptor{cqltype.Scalar{Kind: cqltype.KindInt}},
	}
	_, err := q.Inline()
	assert.Error(t, err)
}

func TestCompiledQuery_InlineListNotSequence(t *testing.T) {
	q := &CompiledQuery{
		Statement: `SELECT * FROM t WHERE a IN ?`,
		Values:    []any{int32(1)},
		Types:     []cqltype.Descriptor{cqltype.List{Elem: cqltype.Scalar{Kind: cqltype.KindInt}}},
	}
	_, err := q.Inline()
	require.Error(t, err)
	assert.True(t, fault.IsTypeConversionError(err))
}

func TestCompile_MetricsAndLogs(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	core, logs := observer.New(zap.DebugLevel)
	c := eventsCompiler(t, WithMetrics(m), WithLogger(zap.New(core)))

	_, err := c.Compile([]Predicate{eq("pk1", pk1), eq("score", 1.0)}, []string{"body"}, false)
	require.NoError(t, err)
	_, err = c.Compile([]Predicate{eq("ck1", nil)}, []string{"body"}, false)
	require.Error(t, err)

	assert.Equal(t, 1, logs.FilterMessage("compiled select").Len())
	assert.Equal(t, 1, logs.FilterMessage("null key predicate").Len())

	n, err := promtest.GatherAndCount(reg, "cqlbridge_query_compilations_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = promtest.GatherAndCount(reg, "cqlbridge_query_predicates_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"Weird""Name"`, QuoteIdent(`Weird"Name`))
}

func TestParseOperator(t *testing.T) {
	for in, want := range map[string]Operator{
		"=": OpEq, "==": OpEq, "IN": OpIn, ">=": OpGe, "<": OpLt,
		"~": OpContains, "contains": OpContains, "~~": OpLike, "LIKE": OpLike,
	} {
		op, err := ParseOperator(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, op, in)
	}
	_, err := ParseOperator("<>")
	assert.True(t, fault.IsFormatError(err))
}
