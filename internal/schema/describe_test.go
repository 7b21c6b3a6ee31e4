package schema

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cqlbridge/internal/cqltype"
	"github.com/roach88/cqlbridge/internal/fault"
)

// eventsMetadata has two partition keys, three clustering keys, one SASI
// indexed column, one built-in indexed column and two regular columns. The
// column list is in name order, as system_schema returns it.
func eventsMetadata() *TableMetadata {
	return &TableMetadata{
		Keyspace:      "ks",
		Name:          "events",
		PartitionKey:  []string{"pk1", "pk2"},
		ClusteringKey: []string{"ck1", "ck2", "ck3"},
		Columns: []ColumnMetadata{
			{Name: "body", Type: "text"},
			{Name: "ck1", Type: "int"},
			{Name: "ck2", Type: "int"},
			{Name: "ck3", Type: "timestamp"},
			{Name: "email", Type: "text"},
			{Name: "pk1", Type: "uuid"},
			{Name: "pk2", Type: "text"},
			{Name: "score", Type: "double"},
			{Name: "tags", Type: "set<text>"},
		},
		Indexes: []IndexMetadata{
			{Name: "events_body_idx", Target: "body", ClassName: SASIIndexClass},
			{Name: "events_email_idx", Target: `"email"`},
		},
	}
}

type staticSource map[string]*TableMetadata

func (s staticSource) TableMetadata(_ context.Context, keyspace, table string) (*TableMetadata, error) {
	m, ok := s[keyspace+"."+table]
	if !ok {
		return nil, fault.NewSchemaError("table %s.%s not found", keyspace, table)
	}
	return m, nil
}

func TestBuild_Roles(t *testing.T) {
	cat, err := Build(eventsMetadata())
	require.NoError(t, err)

	assert.Equal(t, []string{"pk1", "pk2", "ck1", "ck2", "ck3", "body", "email", "score", "tags"}, cat.ColumnNames())
	assert.Equal(t, []string{"pk1", "pk2"}, cat.PartitionKeys())
	assert.Equal(t, []string{"ck1", "ck2", "ck3"}, cat.ClusteringKeys())
	assert.Equal(t, []string{"pk1", "pk2", "ck1", "ck2", "ck3"}, cat.RowIDColumns())

	tests := []struct {
		name      string
		role      Role
		cost      int
		component int
		keyPos    int
	}{
		{"pk1", RolePartitionKey, 1, 0, 0},
		{"pk2", RolePartitionKey, 1, 1, 1},
		{"ck1", RoleClusteringKey, 100, 0, 0},
		{"ck2", RoleClusteringKey, 100, 1, 1},
		{"ck3", RoleClusteringKey, 100, 2, 2},
		{"body", RoleIndexed, 1000, 0, -1},
		{"email", RoleIndexed, 1000, 1, -1},
		{"score", RoleRegular, 10000, 0, -1},
		{"tags", RoleRegular, 10000, 1, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col, ok := cat.Column(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.role, col.Role)
			assert.Equal(t, tt.cost, col.Cost)
			assert.Equal(t, tt.component, col.ComponentIndex)
			assert.Equal(t, tt.keyPos, col.KeyPosition)
		})
	}

	body, _ := cat.Column("body")
	assert.True(t, body.TextSearch())
	email, _ := cat.Column("email")
	assert.False(t, email.TextSearch())
	tags, _ := cat.Column("tags")
	assert.Equal(t, cqltype.Set{Elem: cqltype.Scalar{Kind: cqltype.KindText}}, tags.Type)
}

func TestBuild_ComponentIndexContiguousPerRole(t *testing.T) {
	cat, err := Build(eventsMetadata())
	require.NoError(t, err)

	seen := map[Role][]int{}
	for _, c := range cat.Columns() {
		seen[c.Role] = append(seen[c.Role], c.ComponentIndex)
	}
	for role, idxs := range seen {
		for i, idx := range idxs {
			assert.Equal(t, i, idx, "role %s", role)
		}
	}
}

func TestBuild_Sorted(t *testing.T) {
	cat, err := Build(eventsMetadata())
	require.NoError(t, err)

	var names []string
	for _, c := range cat.Sorted() {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"pk1", "pk2", "ck1", "ck2", "ck3", "body", "email", "score", "tags"}, names)
}

func TestBuild_IndexedKeyColumn(t *testing.T) {
	meta := eventsMetadata()
	meta.Indexes = append(meta.Indexes, IndexMetadata{Name: "ck2_idx", Target: "ck2"})

	cat, err := Build(meta)
	require.NoError(t, err)

	ck2, _ := cat.Column("ck2")
	assert.Equal(t, RoleIndexed, ck2.Role)
	assert.Equal(t, CostIndexed, ck2.Cost)
	assert.Equal(t, 0, ck2.ComponentIndex)
	assert.Equal(t, 1, ck2.KeyPosition)

	ck3, _ := cat.Column("ck3")
	assert.Equal(t, 1, ck3.ComponentIndex)

	// Row identifier columns do not depend on index coverage.
	assert.Equal(t, []string{"pk1", "pk2", "ck1", "ck2", "ck3"}, cat.RowIDColumns())
}

func TestBuild_ViewIgnoresIndexes(t *testing.T) {
	meta := eventsMetadata()
	meta.IsView = true

	cat, err := Build(meta)
	require.NoError(t, err)
	assert.True(t, cat.IsView())

	body, _ := cat.Column("body")
	assert.Equal(t, RoleRegular, body.Role)
}

func TestBuild_Errors(t *testing.T) {
	t.Run("nil metadata", func(t *testing.T) {
		_, err := Build(nil)
		assert.True(t, fault.IsSchemaError(err))
	})

	t.Run("no partition key", func(t *testing.T) {
		meta := eventsMetadata()
		meta.PartitionKey = nil
		_, err := Build(meta)
		assert.True(t, fault.IsSchemaError(err))
	})

	t.Run("key column missing", func(t *testing.T) {
		meta := eventsMetadata()
		meta.ClusteringKey = append(meta.ClusteringKey, "ck4")
		_, err := Build(meta)
		assert.True(t, fault.IsSchemaError(err))
	})

	t.Run("unsupported type names the column", func(t *testing.T) {
		meta := eventsMetadata()
		meta.Columns = append(meta.Columns, ColumnMetadata{Name: "addr", Type: "frozen<address>"})
		_, err := Build(meta)
		require.Error(t, err)
		var fe *fault.Error
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, fault.CodeSchema, fe.Code)
		assert.Equal(t, "addr", fe.Column)
	})
}

func TestDescribe(t *testing.T) {
	src := staticSource{"ks.events": eventsMetadata()}

	cat, err := Describe(context.Background(), src, "ks", "events")
	require.NoError(t, err)
	assert.Equal(t, "ks", cat.Keyspace())
	assert.Equal(t, "events", cat.Table())
	assert.Equal(t, 9, cat.Len())

	_, err = Describe(context.Background(), src, "ks", "missing")
	require.Error(t, err)
	assert.True(t, fault.IsSchemaError(err))
}

func TestIndexTargetColumn(t *testing.T) {
	tests := map[string]string{
		"body":            "body",
		`"Email"`:         "Email",
		"values(tags)":    "tags",
		`keys("Attrs")`:   "Attrs",
		"entries(attrs)":  "attrs",
		"full(frozen_l)":  "frozen_l",
		`"a""b"`:          `a"b`,
	}
	for in, want := range tests {
		assert.Equal(t, want, IndexTargetColumn(in), in)
	}
}
