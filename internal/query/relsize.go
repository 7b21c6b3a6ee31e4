package query

import (
	"slices"

	"github.com/roach88/cqlbridge/internal/rowcodec"
	"github.com/roach88/cqlbridge/internal/schema"
)

// Row estimates reported by EstimateRelSize.
const (
	EstimateSingleRow = 1
	EstimatePartial   = 10000
	EstimateFullScan  = 100000
	EstimateRowWidth  = 100
)

// EstimateRelSize returns the planner's (rows, width) estimate for a scan
// restricted by preds. A row identifier predicate, or predicates on every
// row identifier column, select a single row.
func EstimateRelSize(cat *schema.Catalog, preds []Predicate) (rows, width int) {
	keys := cat.RowIDColumns()
	seen := make(map[string]bool, len(preds))
	bound := 0
	for _, p := range preds {
		if seen[p.Field] {
			continue
		}
		seen[p.Field] = true
		if p.Field == rowcodec.RowIDColumn {
			return EstimateSingleRow, EstimateRowWidth
		}
		if slices.Contains(keys, p.Field) {
			bound++
		}
	}
	switch bound {
	case len(keys):
		return EstimateSingleRow, EstimateRowWidth
	case 0:
		return EstimateFullScan, EstimateRowWidth
	default:
		return EstimatePartial, EstimateRowWidth
	}
}
