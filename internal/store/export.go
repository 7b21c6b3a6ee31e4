package store

import (
	"context"

	"github.com/cockroachdb/errors"
)

// Export records one export run.
type Export struct {
	Seq       int64
	Relation  string
	Statement string
	Rows      int
}

// RecordExport appends an export record and returns its sequence number.
// The relation must exist.
func (s *Store) RecordExport(ctx context.Context, e Export) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO exports (relation, statement, row_count)
		VALUES (?, ?, ?)
	`, e.Relation, e.Statement, e.Rows)
	if err != nil {
		return 0, errors.Wrapf(err, "record export of %s", e.Relation)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrapf(err, "record export of %s", e.Relation)
	}
	return seq, nil
}

// Exports returns the export records of relation ordered by seq. An empty
// relation returns every record.
func (s *Store) Exports(ctx context.Context, relation string) ([]Export, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, relation, statement, row_count
		FROM exports
		WHERE ? = '' OR relation = ?
		ORDER BY seq ASC
	`, relation, relation)
	if err != nil {
		return nil, errors.Wrap(err, "query exports")
	}
	defer rows.Close()

	out := []Export{}
	for rows.Next() {
		var e Export
		if err := rows.Scan(&e.Seq, &e.Relation, &e.Statement, &e.Rows); err != nil {
			return nil, errors.Wrap(err, "scan export")
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate exports")
	}
	return out, nil
}
