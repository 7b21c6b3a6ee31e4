// Package schema builds the per-table column catalog from store metadata.
//
// Every column is assigned exactly one role and its cost tier:
//
//	PartitionKey   1      equality only, always required
//	ClusteringKey  100    prefix equality, range on the last bound column
//	Indexed        1000   covered by a secondary index (overrides key roles)
//	Regular        10000  reachable only through ALLOW FILTERING
//
// The catalog is built once when a table handle opens and is read-only
// afterwards. Its row identifier columns (partition keys then clustering
// keys) define the encoding of the __rowid__ pseudo column.
package schema
