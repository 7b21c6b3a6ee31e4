package table

import (
	"github.com/cockroachdb/errors"

	"github.com/roach88/cqlbridge/internal/cql"
	"github.com/roach88/cqlbridge/internal/fault"
	"github.com/roach88/cqlbridge/internal/query"
	"github.com/roach88/cqlbridge/internal/rowcodec"
)

// Rows is a lazily decoded scan result.
//
//	rows, err := t.Execute(ctx, preds, cols)
//	...
//	defer rows.Close()
//	for rows.Next() {
//		use(rows.Row())
//	}
//	if err := rows.Err(); err != nil { ... }
type Rows struct {
	iter      cql.Iter
	codec     *rowcodec.Codec
	statement string
	dropped   []query.Predicate
	columns   []string

	row    map[string]any
	err    error
	closed bool
}

func emptyRows() *Rows {
	return &Rows{closed: true}
}

// Next decodes the next row. It returns false at the end of the result or
// on the first error; check Err afterwards.
func (r *Rows) Next() bool {
	if r.closed || r.err != nil {
		return false
	}
	native := make(map[string]any, len(r.columns))
	if !r.iter.Next(native) {
		r.err = r.Close()
		return false
	}
	row, err := r.codec.DecodeRow(native)
	if err != nil {
		r.err = err
		_ = r.Close()
		return false
	}
	r.row = row
	return true
}

// Row returns the row decoded by the last successful Next.
func (r *Rows) Row() map[string]any { return r.row }

// Err returns the error that stopped iteration, if any.
func (r *Rows) Err() error { return r.err }

// Dropped lists the predicates the store did not evaluate.
func (r *Rows) Dropped() []query.Predicate { return r.dropped }

// Statement is the statement that produced the rows. It is empty for an
// unsatisfiable scan.
func (r *Rows) Statement() string { return r.statement }

// Close releases the underlying iterator. It is safe to call more than once.
func (r *Rows) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if err := r.iter.Close(); err != nil {
		return errors.WithStack(fault.NewExecutionError(r.statement, err))
	}
	return nil
}

// All drains the result into a slice and closes it.
func (r *Rows) All() ([]map[string]any, error) {
	defer r.Close()
	var out []map[string]any
	for r.Next() {
		out = append(out, r.Row())
	}
	return out, r.Err()
}
