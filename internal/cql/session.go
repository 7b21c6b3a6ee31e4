// Package cql executes statements against a Cassandra cluster and reads
// table metadata from system_schema.
//
// Session is the seam the rest of the bridge depends on. Connect returns the
// gocql-backed implementation; tests use the gomock mocks in mock_cql or the
// recording fakes in testutil.
package cql

import "context"

//go:generate mockgen -source=session.go -destination=mock_cql/mock_session.go -package=mock_cql

// Session executes CQL statements. Values are store-native as produced by
// the marshal package.
type Session interface {
	// Query runs a SELECT. Errors surface from the returned Iter.
	Query(ctx context.Context, stmt string, values ...any) Iter

	// Exec runs a statement that returns no rows.
	Exec(ctx context.Context, stmt string, values ...any) error

	Close()
}

// Iter walks the rows of one SELECT.
type Iter interface {
	// Next fills row with the next row's columns and reports whether a row
	// was read. Null columns are stored as nil. Tuple columns are flattened
	// into "name[i]" keys.
	Next(row map[string]any) bool

	// Close releases the iterator and returns the first error it hit.
	Close() error
}
