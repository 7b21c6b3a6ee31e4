package query

import (
	"github.com/roach88/cqlbridge/internal/rowcodec"
	"github.com/roach88/cqlbridge/internal/schema"
)

// PathKeys lists the candidate access paths for cat. A cost-based planner
// picks the cheapest path a predicate set satisfies:
//
//  1. the full partition key, at clustering cost (cost 1 when the table
//     has no clustering key)
//  2. each prefix of the non-indexed clustering columns appended to the
//     partition key; intermediate
//     prefixes cost CostClusteringKey-i and, when indexed columns exist,
//     are also offered combined with every indexed column at
//     CostIndexed-i; the full prefix costs 1
//  3. each indexed column alone at CostIndexed
//  4. every column alone at CostRegular
//  5. the row identifier at cost 1
func PathKeys(cat *schema.Catalog) []PathKey {
	partition := cat.PartitionKeys()
	var clustering, indexed []string
	sorted := cat.Sorted()
	for _, col := range sorted {
		switch col.Role {
		case schema.RoleClusteringKey:
			clustering = append(clustering, col.Name)
		case schema.RoleIndexed:
			indexed = append(indexed, col.Name)
		}
	}

	var out []PathKey
	if len(clustering) == 0 {
		out = append(out, PathKey{Columns: partition, Cost: 1})
	} else {
		out = append(out, PathKey{Columns: partition, Cost: schema.CostClusteringKey})
		prefix := append([]string(nil), partition...)
		for i, ck := range clustering {
			n := i + 1
			prefix = append(prefix, ck)
			if n == len(clustering) {
				out = append(out, PathKey{Columns: clone(prefix), Cost: 1})
				continue
			}
			out = append(out, PathKey{Columns: clone(prefix), Cost: schema.CostClusteringKey - n})
			if len(indexed) > 0 {
				combined := append(clone(prefix), indexed...)
				out = append(out, PathKey{Columns: combined, Cost: schema.CostIndexed - n})
			}
		}
	}

	for _, name := range indexed {
		out = append(out, PathKey{Columns: []string{name}, Cost: schema.CostIndexed})
	}
	for _, col := range sorted {
		out = append(out, PathKey{Columns: []string{col.Name}, Cost: schema.CostRegular})
	}
	out = append(out, PathKey{Columns: []string{rowcodec.RowIDColumn}, Cost: 1})
	return out
}

func clone(s []string) []string {
	return append([]string(nil), s...)
}
