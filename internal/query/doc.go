// Package query compiles predicate sets into CQL SELECT statements and
// derives the access paths and size estimates a relational planner needs.
//
// The compiler decides, per predicate, whether the store can evaluate it:
//
//   - a predicate on __rowid__ binds every key column by equality and
//     overrides everything else
//   - equality on a partition, clustering or indexed column is pushed while
//     the clustering prefix stays contiguous (checked on key position)
//   - IN is pushed only on unbound key columns, before any range
//   - CONTAINS and LIKE are pushed only on SASI indexed columns
//   - ranges are pushed on clustering columns and SASI indexed columns, or
//     on any non-partition column under ALLOW FILTERING
//   - comparing a key column with null makes the whole scan unsatisfiable
//
// Predicates that are not pushed are reported in CompiledQuery.Dropped and
// must be rechecked by the caller. Eligibility never depends on whether the
// statement is later prepared or inlined.
package query
