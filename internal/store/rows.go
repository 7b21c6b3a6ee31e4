package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/roach88/cqlbridge/internal/query"
)

// WriteRows inserts rows into relation in one transaction. Columns missing
// from a row are stored as NULL; columns the relation does not define are
// ignored. A row with an existing row identifier replaces it.
func (s *Store) WriteRows(ctx context.Context, relation string, rows []map[string]any) (int, error) {
	def, err := s.Relation(ctx, relation)
	if err != nil {
		return 0, err
	}

	names := make([]string, len(def.Columns))
	for i, c := range def.Columns {
		names[i] = query.QuoteIdent(c.Name)
	}
	stmt := fmt.Sprintf("INSERT OR REPLACE INTO %s (%s) VALUES (%s)",
		query.QuoteIdent(def.Name),
		strings.Join(names, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", "))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrapf(err, "write %s: begin tx", relation)
	}
	defer tx.Rollback() // No-op if committed

	prepared, err := tx.PrepareContext(ctx, stmt)
	if err != nil {
		return 0, errors.Wrapf(err, "write %s: prepare", relation)
	}
	defer prepared.Close()

	args := make([]any, len(def.Columns))
	for n, row := range rows {
		for i, c := range def.Columns {
			if args[i], err = toSQLite(row[c.Name]); err != nil {
				return 0, errors.Wrapf(err, "write %s: row %d column %s", relation, n, c.Name)
			}
		}
		if _, err := prepared.ExecContext(ctx, args...); err != nil {
			return 0, errors.Wrapf(err, "write %s: row %d", relation, n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrapf(err, "write %s: commit", relation)
	}
	return len(rows), nil
}

// ReadRows returns every row of relation in insertion order. NULL columns
// are present with a nil value.
func (s *Store) ReadRows(ctx context.Context, relation string) ([]map[string]any, error) {
	def, err := s.Relation(ctx, relation)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(def.Columns))
	for i, c := range def.Columns {
		names[i] = query.QuoteIdent(c.Name)
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid ASC",
		strings.Join(names, ", "), query.QuoteIdent(def.Name)))
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", relation)
	}
	defer rows.Close()

	out := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(def.Columns))
		dest := make([]any, len(def.Columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, errors.Wrapf(err, "scan %s", relation)
		}
		row := make(map[string]any, len(def.Columns))
		for i, c := range def.Columns {
			row[c.Name] = fromSQLite(values[i], c.Type)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "iterate %s", relation)
	}
	return out, nil
}
