package testutil

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/cqlbridge/internal/fault"
	"github.com/roach88/cqlbridge/internal/schema"
)

// EventsMetadata describes ks.events: two partition keys, three clustering
// keys, a SASI indexed column, a built-in indexed column and two regular
// columns.
//
//	pk1 uuid, pk2 text, ck1 int, ck2 int, ck3 timestamp,
//	body text (SASI), email text (index), score double, tags set<text>
func EventsMetadata() *schema.TableMetadata {
	return &schema.TableMetadata{
		Keyspace:      "ks",
		Name:          "events",
		PartitionKey:  []string{"pk1", "pk2"},
		ClusteringKey: []string{"ck1", "ck2", "ck3"},
		Columns: []schema.ColumnMetadata{
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
		Indexes: []schema.IndexMetadata{
			{Name: "events_body_idx", Target: "body", ClassName: schema.SASIIndexClass},
			{Name: "events_email_idx", Target: `"email"`},
		},
	}
}

// UsersMetadata describes ks.users keyed by (id) with clustering key
// (name).
func UsersMetadata() *schema.TableMetadata {
	return &schema.TableMetadata{
		Keyspace:      "ks",
		Name:          "users",
		PartitionKey:  []string{"id"},
		ClusteringKey: []string{"name"},
		Columns: []schema.ColumnMetadata{
			{Name: "age", Type: "int"},
			{Name: "id", Type: "int"},
			{Name: "name", Type: "text"},
			{Name: "profile", Type: "frozen<tuple<text, int>>"},
			{Name: "scores", Type: "map<text, int>"},
		},
	}
}

// KVMetadata describes ks.kv, which has no clustering key.
func KVMetadata() *schema.TableMetadata {
	return &schema.TableMetadata{
		Keyspace:     "ks",
		Name:         "kv",
		PartitionKey: []string{"key"},
		Columns: []schema.ColumnMetadata{
			{Name: "key", Type: "text"},
			{Name: "value", Type: "text"},
		},
	}
}

// Catalog builds the catalog for meta and fails the test on error.
func Catalog(t testing.TB, meta *schema.TableMetadata) *schema.Catalog {
	t.Helper()
	cat, err := schema.Build(meta)
	require.NoError(t, err)
	return cat
}

// StaticMetadata serves table metadata from memory, keyed "keyspace.name".
type StaticMetadata map[string]*schema.TableMetadata

// NewStaticMetadata indexes tables by keyspace and name.
func NewStaticMetadata(tables ...*schema.TableMetadata) StaticMetadata {
	s := make(StaticMetadata, len(tables))
	for _, m := range tables {
		s[m.Keyspace+"."+m.Name] = m
	}
	return s
}

// TableMetadata implements schema.MetadataSource.
func (s StaticMetadata) TableMetadata(_ context.Context, keyspace, name string) (*schema.TableMetadata, error) {
	m, ok := s[keyspace+"."+name]
	if !ok {
		return nil, fault.NewSchemaError("table or materialized view %s.%s does not exist", keyspace, name)
	}
	return m, nil
}

// ListTables returns the non-view names in keyspace, sorted.
func (s StaticMetadata) ListTables(_ context.Context, keyspace string) ([]string, error) {
	return s.names(keyspace, false), nil
}

// ListViews returns the view names in keyspace, sorted.
func (s StaticMetadata) ListViews(_ context.Context, keyspace string) ([]string, error) {
	return s.names(keyspace, true), nil
}

func (s StaticMetadata) names(keyspace string, views bool) []string {
	var out []string
	for _, m := range s {
		if m.Keyspace == keyspace && m.IsView == views {
			out = append(out, m.Name)
		}
	}
	sort.Strings(out)
	return out
}
