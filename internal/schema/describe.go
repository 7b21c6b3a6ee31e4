package schema

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/roach88/cqlbridge/internal/cqltype"
	"github.com/roach88/cqlbridge/internal/fault"
)

// Describe fetches metadata for keyspace.table from src and builds its
// catalog.
func Describe(ctx context.Context, src MetadataSource, keyspace, table string) (*Catalog, error) {
	meta, err := src.TableMetadata(ctx, keyspace, table)
	if err != nil {
		return nil, errors.Wrapf(err, "describe %s.%s", keyspace, table)
	}
	return Build(meta)
}

// Build classifies every column of meta and assembles the catalog.
//
// Iteration order is partition keys, then clustering keys, each in declared
// order, then the remaining columns in metadata order. A column covered by a
// secondary index is reclassified as Indexed regardless of its key role.
// ComponentIndex restarts at 0 for the first column of each role.
func Build(meta *TableMetadata) (*Catalog, error) {
	if meta == nil {
		return nil, fault.NewSchemaError("table metadata is missing")
	}
	if len(meta.PartitionKey) == 0 {
		return nil, fault.NewSchemaError("%s.%s has no partition key", meta.Keyspace, meta.Name)
	}

	types := make(map[string]string, len(meta.Columns))
	for _, c := range meta.Columns {
		types[c.Name] = c.Type
	}

	indexes := make(map[string]string)
	if !meta.IsView {
		for _, idx := range meta.Indexes {
			if idx.Target == "" {
				continue
			}
			indexes[IndexTargetColumn(idx.Target)] = idx.ClassName
		}
	}

	cat := &Catalog{
		keyspace: meta.Keyspace,
		table:    meta.Name,
		isView:   meta.IsView,
		columns:  make(map[string]Column, len(meta.Columns)),
	}

	roleOf := make(map[string]Role, len(meta.Columns))
	position := make(map[string]int, len(meta.Columns))
	for i, name := range meta.PartitionKey {
		if _, ok := types[name]; !ok {
			return nil, fault.NewSchemaError("partition key column %q is not in %s.%s", name, meta.Keyspace, meta.Name)
		}
		roleOf[name] = RolePartitionKey
		position[name] = i
		cat.order = append(cat.order, name)
	}
	for i, name := range meta.ClusteringKey {
		if _, ok := types[name]; !ok {
			return nil, fault.NewSchemaError("clustering key column %q is not in %s.%s", name, meta.Keyspace, meta.Name)
		}
		roleOf[name] = RoleClusteringKey
		position[name] = i
		cat.order = append(cat.order, name)
	}
	for _, c := range meta.Columns {
		if _, isKey := roleOf[c.Name]; !isKey {
			cat.order = append(cat.order, c.Name)
		}
	}

	next := make(map[Role]int, 4)
	cols := make([]Column, 0, len(cat.order))
	for _, name := range cat.order {
		d, err := cqltype.Parse(types[name])
		if err != nil {
			return nil, fault.WithColumn(err, name)
		}

		role, isKey := roleOf[name]
		if !isKey {
			role = RoleRegular
		}
		keyPos := -1
		if isKey {
			keyPos = position[name]
		}
		class, indexed := indexes[name]
		if indexed {
			role = RoleIndexed
		}

		col := Column{
			Name:           name,
			Role:           role,
			Cost:           role.Cost(),
			ComponentIndex: next[role],
			KeyPosition:    keyPos,
			Type:           d,
			IndexClass:     class,
		}
		next[role]++

		cat.columns[name] = col
		cols = append(cols, col)
	}

	cat.partitionKeys = append([]string(nil), meta.PartitionKey...)
	cat.clusteringKeys = append([]string(nil), meta.ClusteringKey...)
	cat.rowID = append(append([]string(nil), meta.PartitionKey...), meta.ClusteringKey...)
	cat.sorted = sortColumns(cols)
	return cat, nil
}

// IndexTargetColumn extracts the column name from an index target option.
// Quoted identifiers are unquoted and collection targets such as values(c)
// or keys("C") resolve to the wrapped column.
func IndexTargetColumn(target string) string {
	t := strings.TrimSpace(target)
	if open := strings.IndexByte(t, '('); open > 0 && strings.HasSuffix(t, ")") {
		switch strings.ToLower(t[:open]) {
		case "values", "keys", "entries", "full":
			t = strings.TrimSpace(t[open+1 : len(t)-1])
		}
	}
	if len(t) >= 2 && t[0] == '"' && t[len(t)-1] == '"' {
		t = strings.ReplaceAll(t[1:len(t)-1], `""`, `"`)
	}
	return t
}
