// Package store is a SQLite sink for relational copies of store tables.
//
// Each exported table becomes one SQLite table shaped by its imported
// definition. The sink also keeps:
//   - relations: the column definitions of every created table
//   - exports: one record per export run, ordered by seq
//
// # Value mapping
//
// Collections and JSON-typed columns are stored as JSON TEXT. Integers and
// booleans use INTEGER affinity, floats REAL, bytea BLOB and everything
// else TEXT, so numeric and temporal text round-trips unchanged. The row
// identifier column, when present, is the primary key and re-exporting a
// row replaces it.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
