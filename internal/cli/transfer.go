package cli

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/cqlbridge/internal/importer"
	"github.com/roach88/cqlbridge/internal/store"
)

// ExportResult is the output of export.
type ExportResult struct {
	Seq       int64  `json:"seq"`
	Relation  string `json:"relation"`
	Statement string `json:"statement"`
	Rows      int    `json:"rows"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		dbPath   string
		relation string
		where    []string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Copy scanned rows into a SQLite relation",
		Long: `Scan the configured table and write every row, keyed by its row
identifier, into a relation of a SQLite database. The relation is created
from the imported table definition when missing. Each run is recorded in
the database's export log.

Examples:
  cqlbridge export -c bridge.yaml --db snapshot.db
  cqlbridge export -c bridge.yaml --db snapshot.db --relation people -w "id in 1,2"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				return NewExitError(ExitCommandError, "--db is required")
			}
			preds, err := parseWhere(where)
			if err != nil {
				return WrapExitError(ExitCommandError, "parse where", err)
			}
			ctx := cmd.Context()

			s, err := rootOpts.openTable(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			cat := s.table.Catalog()
			iopts := importer.Options{WithRowID: true}
			if relation != "" {
				iopts.Mapping = map[string]string{cat.Table(): relation}
			}
			def := importer.New(nil, s.logger).Define(cat, iopts)

			db, err := store.Open(dbPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "open database", err)
			}
			defer db.Close()
			if err := db.CreateRelation(ctx, def); err != nil {
				return err
			}

			rows, err := s.table.Execute(ctx, preds, cat.ColumnNames())
			if err != nil {
				return err
			}
			all, err := rows.All()
			if err != nil {
				return err
			}
			for _, p := range predicateStrings(rows.Dropped()) {
				s.logger.Warn("predicate not pushed to the store", zap.String("predicate", p))
			}

			n, err := db.WriteRows(ctx, def.Name, all)
			if err != nil {
				return err
			}
			seq, err := db.RecordExport(ctx, store.Export{
				Relation:  def.Name,
				Statement: rows.Statement(),
				Rows:      n,
			})
			if err != nil {
				return err
			}

			result := ExportResult{Seq: seq, Relation: def.Name, Statement: rows.Statement(), Rows: n}
			if rootOpts.Format == "json" {
				return formatter(rootOpts, cmd).Success(result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d row(s) to %s (export %d)\n", n, def.Name, seq)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path")
	cmd.Flags().StringVar(&relation, "relation", "", "relation name (default the table name)")
	cmd.Flags().StringArrayVarP(&where, "where", "w", nil, `predicate "field op value" (repeatable)`)
	return cmd
}

// LoadResult is the output of load.
type LoadResult struct {
	Relation string `json:"relation"`
	Rows     int    `json:"rows"`
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		dbPath   string
		relation string
	)
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Insert the rows of a SQLite relation into the table",
		Long: `Read every row of a relation written by export and insert it into the
configured table inside one transaction. Inserts are batched when
modify_concurrency is above one.

Examples:
  cqlbridge load -c bridge.yaml --db snapshot.db
  cqlbridge load -c bridge.yaml --db snapshot.db --relation people`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				return NewExitError(ExitCommandError, "--db is required")
			}
			ctx := cmd.Context()

			s, err := rootOpts.openTable(ctx)
			if err != nil {
				return err
			}
			defer s.Close()
			if relation == "" {
				relation = s.table.Catalog().Table()
			}

			db, err := store.Open(dbPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "open database", err)
			}
			defer db.Close()
			rows, err := db.ReadRows(ctx, relation)
			if err != nil {
				return err
			}

			if err := s.table.Begin(ctx); err != nil {
				return err
			}
			for i, row := range rows {
				if err := s.table.Insert(ctx, row); err != nil {
					_ = s.table.Rollback(ctx)
					return errors.Wrapf(err, "row %d", i)
				}
			}
			if err := s.table.Commit(ctx); err != nil {
				return err
			}

			result := LoadResult{Relation: relation, Rows: len(rows)}
			if rootOpts.Format == "json" {
				return formatter(rootOpts, cmd).Success(result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "loaded %d row(s) from %s\n", result.Rows, relation)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path")
	cmd.Flags().StringVar(&relation, "relation", "", "relation name (default the table name)")
	return cmd
}
