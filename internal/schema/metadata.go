package schema

import "context"

// TableMetadata is the store's description of one table or materialized
// view, as read from the metadata service.
type TableMetadata struct {
	Keyspace string
	Name     string

	// IsView is set for materialized views. Views never expose secondary
	// indexes.
	IsView bool

	// PartitionKey and ClusteringKey list key column names in declared order.
	PartitionKey  []string
	ClusteringKey []string

	// Columns lists every column in metadata iteration order.
	Columns []ColumnMetadata

	Indexes []IndexMetadata
}

// ColumnMetadata is a column name with its CQL type string.
type ColumnMetadata struct {
	Name string
	Type string
}

// IndexMetadata describes a secondary index. Target is the raw index target
// option (possibly quoted, possibly wrapped as values(c), keys(c), ...).
// ClassName is empty for built-in indexes.
type IndexMetadata struct {
	Name      string
	Target    string
	ClassName string
}

// MetadataSource fetches table metadata. Implementations return a SCHEMA
// error when neither a table nor a view with the name exists.
type MetadataSource interface {
	TableMetadata(ctx context.Context, keyspace, table string) (*TableMetadata, error)
}
