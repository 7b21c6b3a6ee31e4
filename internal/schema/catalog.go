package schema

import (
	"fmt"
	"sort"

	"github.com/roach88/cqlbridge/internal/cqltype"
)

// SASIIndexClass is the index implementation that supports LIKE, CONTAINS
// and range operators on non-key columns.
const SASIIndexClass = "org.apache.cassandra.index.sasi.SASIIndex"

// Role classifies how a column can be used to access rows.
type Role int

const (
	RolePartitionKey Role = iota + 1
	RoleClusteringKey
	RoleIndexed
	RoleRegular
)

func (r Role) String() string {
	switch r {
	case RolePartitionKey:
		return "partition_key"
	case RoleClusteringKey:
		return "clustering_key"
	case RoleIndexed:
		return "indexed"
	case RoleRegular:
		return "regular"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// Relative access costs per role. Lower is more selective.
const (
	CostPartitionKey  = 1
	CostClusteringKey = 100
	CostIndexed       = 1000
	CostRegular       = 10000
)

// Cost returns the access cost tier of the role.
func (r Role) Cost() int {
	switch r {
	case RolePartitionKey:
		return CostPartitionKey
	case RoleClusteringKey:
		return CostClusteringKey
	case RoleIndexed:
		return CostIndexed
	default:
		return CostRegular
	}
}

// IsKey reports whether the role is a partition or clustering key tier.
func (r Role) IsKey() bool {
	return r == RolePartitionKey || r == RoleClusteringKey
}

// Column describes one catalog column.
type Column struct {
	Name string
	Role Role
	Cost int

	// ComponentIndex is the ordinal of the column within its role group,
	// starting at 0, in catalog iteration order.
	ComponentIndex int

	// KeyPosition is the ordinal inside the declared partition or
	// clustering key, or -1 for non-key columns. Indexed key columns keep
	// their position.
	KeyPosition int

	Type cqltype.Descriptor

	// IndexClass is the implementation class of the covering index, empty
	// for built-in indexes and unindexed columns.
	IndexClass string
}

// TextSearch reports whether the column's index supports LIKE, CONTAINS and
// range operators.
func (c Column) TextSearch() bool {
	return c.Role == RoleIndexed && c.IndexClass == SASIIndexClass
}

// Catalog is the immutable per-table column catalog.
type Catalog struct {
	keyspace string
	table    string
	isView   bool

	columns        map[string]Column
	order          []string
	partitionKeys  []string
	clusteringKeys []string
	rowID          []string
	sorted         []Column
}

// Keyspace returns the keyspace the table belongs to.
func (c *Catalog) Keyspace() string { return c.keyspace }

// Table returns the table or view name.
func (c *Catalog) Table() string { return c.table }

// IsView reports whether the catalog describes a materialized view.
func (c *Catalog) IsView() bool { return c.isView }

// Column looks up a column by name.
func (c *Catalog) Column(name string) (Column, bool) {
	col, ok := c.columns[name]
	return col, ok
}

// Columns returns every column in catalog iteration order.
func (c *Catalog) Columns() []Column {
	out := make([]Column, len(c.order))
	for i, name := range c.order {
		out[i] = c.columns[name]
	}
	return out
}

// ColumnNames returns every column name in catalog iteration order.
func (c *Catalog) ColumnNames() []string {
	return append([]string(nil), c.order...)
}

// PartitionKeys returns the partition key columns in declared order.
func (c *Catalog) PartitionKeys() []string {
	return append([]string(nil), c.partitionKeys...)
}

// ClusteringKeys returns the clustering key columns in declared order.
func (c *Catalog) ClusteringKeys() []string {
	return append([]string(nil), c.clusteringKeys...)
}

// RowIDColumns returns the partition keys followed by the clustering keys.
// The order is fixed for the catalog's lifetime and defines the row
// identifier encoding.
func (c *Catalog) RowIDColumns() []string {
	return append([]string(nil), c.rowID...)
}

// Sorted returns every column ordered by ascending (Cost, ComponentIndex).
// Ties keep catalog iteration order.
func (c *Catalog) Sorted() []Column {
	return append([]Column(nil), c.sorted...)
}

// Len returns the number of columns.
func (c *Catalog) Len() int { return len(c.order) }

func sortColumns(cols []Column) []Column {
	out := append([]Column(nil), cols...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Cost != out[j].Cost {
			return out[i].Cost < out[j].Cost
		}
		return out[i].ComponentIndex < out[j].ComponentIndex
	})
	return out
}
