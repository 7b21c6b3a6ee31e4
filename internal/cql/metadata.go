package cql

import (
	"context"
	"fmt"
	"reflect"
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/roach88/cqlbridge/internal/fault"
	"github.com/roach88/cqlbridge/internal/schema"
)

const (
	selectTable   = `SELECT table_name FROM system_schema.tables WHERE keyspace_name = ? AND table_name = ?`
	selectView    = `SELECT view_name FROM system_schema.views WHERE keyspace_name = ? AND view_name = ?`
	selectColumns = `SELECT column_name, kind, position, type FROM system_schema.columns WHERE keyspace_name = ? AND table_name = ?`
	selectIndexes = `SELECT index_name, options FROM system_schema.indexes WHERE keyspace_name = ? AND table_name = ?`
	selectTables  = `SELECT table_name FROM system_schema.tables WHERE keyspace_name = ?`
	selectViews   = `SELECT view_name FROM system_schema.views WHERE keyspace_name = ?`
)

// MetadataReader reads table and view metadata from system_schema. It
// implements schema.MetadataSource.
type MetadataReader struct {
	session Session
}

// NewMetadataReader creates a reader that queries through s.
func NewMetadataReader(s Session) *MetadataReader {
	return &MetadataReader{session: s}
}

var _ schema.MetadataSource = (*MetadataReader)(nil)

// TableMetadata looks keyspace.name up as a table first, then as a
// materialized view. Views are read without indexes.
func (r *MetadataReader) TableMetadata(ctx context.Context, keyspace, name string) (*schema.TableMetadata, error) {
	tables, err := r.collect(ctx, selectTable, keyspace, name)
	if err != nil {
		return nil, err
	}
	isView := false
	if len(tables) == 0 {
		views, err := r.collect(ctx, selectView, keyspace, name)
		if err != nil {
			return nil, err
		}
		if len(views) == 0 {
			return nil, fault.NewSchemaError("table or materialized view %s.%s does not exist", keyspace, name)
		}
		isView = true
	}

	columns, err := r.collect(ctx, selectColumns, keyspace, name)
	if err != nil {
		return nil, err
	}
	var indexes []map[string]any
	if !isView {
		if indexes, err = r.collect(ctx, selectIndexes, keyspace, name); err != nil {
			return nil, err
		}
	}
	return assembleTable(keyspace, name, isView, columns, indexes)
}

// ListTables returns the table names of keyspace in name order.
func (r *MetadataReader) ListTables(ctx context.Context, keyspace string) ([]string, error) {
	return r.names(ctx, selectTables, "table_name", keyspace)
}

// ListViews returns the materialized view names of keyspace in name order.
func (r *MetadataReader) ListViews(ctx context.Context, keyspace string) ([]string, error) {
	return r.names(ctx, selectViews, "view_name", keyspace)
}

func (r *MetadataReader) names(ctx context.Context, stmt, column, keyspace string) ([]string, error) {
	rows, err := r.collect(ctx, stmt, keyspace)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		if s, ok := row[column].(string); ok {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *MetadataReader) collect(ctx context.Context, stmt string, values ...any) ([]map[string]any, error) {
	iter := r.session.Query(ctx, stmt, values...)
	var rows []map[string]any
	for {
		row := make(map[string]any)
		if !iter.Next(row) {
			break
		}
		rows = append(rows, row)
	}
	if err := iter.Close(); err != nil {
		return nil, errors.Wrap(fault.NewExecutionError(stmt, err), "read system_schema")
	}
	return rows, nil
}

type keyColumn struct {
	name     string
	position int
}

// assembleTable builds TableMetadata from system_schema.columns and
// system_schema.indexes rows. Column order is kept as read.
func assembleTable(keyspace, name string, isView bool, columns, indexes []map[string]any) (*schema.TableMetadata, error) {
	if len(columns) == 0 {
		return nil, fault.NewSchemaError("%s.%s has no columns", keyspace, name)
	}
	meta := &schema.TableMetadata{
		Keyspace: keyspace,
		Name:     name,
		IsView:   isView,
	}

	var partition, clustering []keyColumn
	for _, row := range columns {
		colName, _ := row["column_name"].(string)
		typ, _ := row["type"].(string)
		if colName == "" || typ == "" {
			return nil, fault.NewSchemaError("%s.%s: incomplete column row %v", keyspace, name, row)
		}
		meta.Columns = append(meta.Columns, schema.ColumnMetadata{Name: colName, Type: typ})

		kind, _ := row["kind"].(string)
		switch kind {
		case "partition_key":
			partition = append(partition, keyColumn{colName, intValue(row["position"])})
		case "clustering":
			clustering = append(clustering, keyColumn{colName, intValue(row["position"])})
		}
	}
	meta.PartitionKey = keyNames(partition)
	meta.ClusteringKey = keyNames(clustering)

	for _, row := range indexes {
		idxName, _ := row["index_name"].(string)
		opts := stringMap(row["options"])
		meta.Indexes = append(meta.Indexes, schema.IndexMetadata{
			Name:      idxName,
			Target:    opts["target"],
			ClassName: opts["class_name"],
		})
	}
	return meta, nil
}

func keyNames(cols []keyColumn) []string {
	sort.SliceStable(cols, func(i, j int) bool { return cols[i].position < cols[j].position })
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.name
	}
	return out
}

func intValue(v any) int {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int())
	}
	return -1
}

func stringMap(v any) map[string]string {
	out := make(map[string]string)
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map {
		return out
	}
	iter := rv.MapRange()
	for iter.Next() {
		out[fmt.Sprint(iter.Key().Interface())] = fmt.Sprint(iter.Value().Interface())
	}
	return out
}
