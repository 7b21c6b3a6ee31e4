package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/cqlbridge/internal/query"
	"github.com/roach88/cqlbridge/internal/table"
)

// ScanResult is the output of scan in JSON format.
type ScanResult struct {
	Statement string           `json:"statement"`
	Dropped   []string         `json:"dropped,omitempty"`
	Rows      []map[string]any `json:"rows"`
}

// NewScanCommand creates the scan command.
func NewScanCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		where   []string
		columns []string
	)
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run a scan and print the decoded rows",
		Long: `Compile --where predicates, run the statement and print each row in
relational form. Predicates that could not be pushed to the store are
listed as dropped; their rows are not filtered.

Text output is one JSON object per line.

Examples:
  cqlbridge scan -c bridge.yaml -w "id = 7"
  cqlbridge scan -c bridge.yaml --columns name,age --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			preds, err := parseWhere(where)
			if err != nil {
				return WrapExitError(ExitCommandError, "parse where", err)
			}
			s, err := rootOpts.openTable(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			rows, err := s.table.Execute(cmd.Context(), preds, selectColumns(s.table, columns))
			if err != nil {
				return err
			}
			all, err := rows.All()
			if err != nil {
				return err
			}
			result := ScanResult{
				Statement: rows.Statement(),
				Dropped:   predicateStrings(rows.Dropped()),
				Rows:      all,
			}
			for _, p := range result.Dropped {
				s.logger.Warn("predicate not pushed to the store", zap.String("predicate", p))
			}

			if rootOpts.Format == "json" {
				return formatter(rootOpts, cmd).Success(result)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetEscapeHTML(false)
			for _, row := range result.Rows {
				if err := enc.Encode(row); err != nil {
					return err
				}
			}
			formatter(rootOpts, cmd).VerboseLog("%d row(s)", len(result.Rows))
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&where, "where", "w", nil, `predicate "field op value" (repeatable)`)
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "columns to select (default all)")
	return cmd
}

// selectColumns defaults an empty column list to every catalog column.
func selectColumns(t *table.Table, columns []string) []string {
	if len(columns) > 0 {
		return columns
	}
	return t.Catalog().ColumnNames()
}

func predicateStrings(preds []query.Predicate) []string {
	if len(preds) == 0 {
		return nil
	}
	out := make([]string, len(preds))
	for i, p := range preds {
		out[i] = p.String()
	}
	return out
}

// formatter builds an OutputFormatter for cmd.
func formatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
