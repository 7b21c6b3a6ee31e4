package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/cqlbridge/internal/cqltype"
	"github.com/roach88/cqlbridge/internal/query"
)

// ColumnInfo is one catalog column as reported by describe.
type ColumnInfo struct {
	Name       string `json:"name"`
	CQLType    string `json:"cql_type"`
	Relational string `json:"relational_type"`
	Role       string `json:"role"`
	Cost       int    `json:"cost"`
	Index      string `json:"index_class,omitempty"`
}

// DescribeResult is the output of describe.
type DescribeResult struct {
	Keyspace string       `json:"keyspace"`
	Table    string       `json:"table"`
	View     bool         `json:"view"`
	RowID    []string     `json:"row_id"`
	Columns  []ColumnInfo `json:"columns"`
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "Show the column catalog of the configured table",
		Long: `Describe the configured table: every column with its CQL type, the
relational type it is exposed as, its role and its access cost.

Examples:
  cqlbridge describe -c bridge.yaml
  cqlbridge describe -o keyspace=shop -o columnfamily=orders --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(cmd.Context(), rootOpts, cmd)
		},
	}
}

func runDescribe(ctx context.Context, opts *RootOptions, cmd *cobra.Command) error {
	s, err := opts.openTable(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	cat := s.table.Catalog()
	result := DescribeResult{
		Keyspace: cat.Keyspace(),
		Table:    cat.Table(),
		View:     cat.IsView(),
		RowID:    cat.RowIDColumns(),
	}
	for _, col := range cat.Columns() {
		result.Columns = append(result.Columns, ColumnInfo{
			Name:       col.Name,
			CQLType:    col.Type.String(),
			Relational: cqltype.RelationalType(col.Type),
			Role:       col.Role.String(),
			Cost:       col.Cost,
			Index:      col.IndexClass,
		})
	}

	if opts.Format == "json" {
		return formatter(opts, cmd).Success(result)
	}
	w := cmd.OutOrStdout()
	kind := "table"
	if result.View {
		kind = "materialized view"
	}
	fmt.Fprintf(w, "%s %s.%s\n", kind, result.Keyspace, result.Table)
	fmt.Fprintf(w, "row id: %s\n\n", strings.Join(result.RowID, ", "))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tCQL TYPE\tTYPE\tROLE\tCOST")
	for _, c := range result.Columns {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", c.Name, c.CQLType, c.Relational, c.Role, c.Cost)
	}
	return tw.Flush()
}

// PathKeyInfo is one access path.
type PathKeyInfo struct {
	Cost    int      `json:"cost"`
	Columns []string `json:"columns"`
}

// NewPathKeysCommand creates the pathkeys command.
func NewPathKeysCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pathkeys",
		Short: "List the access paths of the configured table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := rootOpts.openTable(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			keys := pathKeyInfos(s.table.PathKeys())
			if rootOpts.Format == "json" {
				return formatter(rootOpts, cmd).Success(keys)
			}
			for _, pk := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", pk.Cost, strings.Join(pk.Columns, ", "))
			}
			return nil
		},
	}
}

func pathKeyInfos(keys []query.PathKey) []PathKeyInfo {
	out := make([]PathKeyInfo, len(keys))
	for i, pk := range keys {
		out[i] = PathKeyInfo{Cost: pk.Cost, Columns: pk.Columns}
	}
	return out
}

// ExplainResult is the output of explain.
type ExplainResult struct {
	Statement string   `json:"statement"`
	Rows      int      `json:"estimated_rows"`
	Width     int      `json:"estimated_width"`
	Where     []string `json:"where,omitempty"`
}

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		where   []string
		columns []string
	)
	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Show the statement a scan would run",
		Long: `Compile --where predicates and print the resulting statement with
values inlined, plus the row count and width estimates.

Examples:
  cqlbridge explain -c bridge.yaml -w "id = 7" -w "name in alice,bob"
  cqlbridge explain -c bridge.yaml --columns id,name -w "body ~ needle"`,
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

			stmt, err := s.table.Explain(preds, selectColumns(s.table, columns))
			if err != nil {
				return err
			}
			rows, width := s.table.RelSize(preds)
			result := ExplainResult{Statement: stmt, Rows: rows, Width: width}
			for _, p := range preds {
				result.Where = append(result.Where, p.String())
			}

			if rootOpts.Format == "json" {
				return formatter(rootOpts, cmd).Success(result)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, result.Statement)
			fmt.Fprintf(w, "estimated rows: %d, width: %d\n", result.Rows, result.Width)
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&where, "where", "w", nil, `predicate "field op value" (repeatable)`)
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "columns to select (default all)")
	return cmd
}
