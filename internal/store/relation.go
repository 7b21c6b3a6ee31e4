package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/roach88/cqlbridge/internal/importer"
	"github.com/roach88/cqlbridge/internal/query"
	"github.com/roach88/cqlbridge/internal/rowcodec"
)

// ErrUnknownRelation is returned when a relation was never created.
var ErrUnknownRelation = errors.New("unknown relation")

// CreateRelation creates the SQLite table for def and records its
// definition. It is a no-op for the table when it already exists; the
// recorded definition is replaced.
func (s *Store) CreateRelation(ctx context.Context, def importer.TableDefinition) error {
	if len(def.Columns) == 0 {
		return errors.Newf("create relation %s: no columns", def.Name)
	}
	cols, err := json.Marshal(def.Columns)
	if err != nil {
		return errors.Wrapf(err, "create relation %s", def.Name)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrapf(err, "create relation %s: begin tx", def.Name)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, createTableSQL(def)); err != nil {
		return errors.Wrapf(err, "create relation %s", def.Name)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO relations (name, keyspace, source_table, columns)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			keyspace = excluded.keyspace,
			source_table = excluded.source_table,
			columns = excluded.columns
	`, def.Name, def.Keyspace, def.Table, string(cols))
	if err != nil {
		return errors.Wrapf(err, "record relation %s", def.Name)
	}
	return errors.Wrapf(tx.Commit(), "create relation %s: commit", def.Name)
}

// Relation returns the recorded definition of name.
func (s *Store) Relation(ctx context.Context, name string) (importer.TableDefinition, error) {
	def := importer.TableDefinition{Name: name}
	var cols string
	err := s.db.QueryRowContext(ctx,
		`SELECT keyspace, source_table, columns FROM relations WHERE name = ?`, name,
	).Scan(&def.Keyspace, &def.Table, &cols)
	if errors.Is(err, sql.ErrNoRows) {
		return importer.TableDefinition{}, errors.Wrapf(ErrUnknownRelation, "%s", name)
	}
	if err != nil {
		return importer.TableDefinition{}, errors.Wrapf(err, "read relation %s", name)
	}
	if err := json.Unmarshal([]byte(cols), &def.Columns); err != nil {
		return importer.TableDefinition{}, errors.Wrapf(err, "decode relation %s", name)
	}
	return def, nil
}

// Relations lists recorded relation names in order.
func (s *Store) Relations(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM relations ORDER BY name COLLATE BINARY ASC`)
	if err != nil {
		return nil, errors.Wrap(err, "query relations")
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, errors.Wrap(err, "scan relation")
		}
		names = append(names, n)
	}
	return names, errors.Wrap(rows.Err(), "iterate relations")
}

func createTableSQL(def importer.TableDefinition) string {
	cols := make([]string, len(def.Columns))
	for i, c := range def.Columns {
		cols[i] = fmt.Sprintf("%s %s", query.QuoteIdent(c.Name), affinity(c.Type))
		if c.Name == rowcodec.RowIDColumn {
			cols[i] += " PRIMARY KEY"
		}
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", query.QuoteIdent(def.Name), strings.Join(cols, ", "))
}
