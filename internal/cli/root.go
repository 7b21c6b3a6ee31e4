package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/cqlbridge/internal/cql"
	"github.com/roach88/cqlbridge/internal/importer"
	"github.com/roach88/cqlbridge/internal/table"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string   // "json" | "text"
	ConfigPath string   // YAML or TOML file
	Options    []string // key=value table options, applied when no file is given

	// Connect opens sessions. Nil means cql.Connect.
	Connect table.Connector

	// Metadata reads schema for a session. Nil means cql.NewMetadataReader.
	Metadata func(cql.Session) importer.Lister
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the cqlbridge CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cqlbridge",
		Short: "cqlbridge - relational access to CQL tables",
		Long: `Compile relational predicates into CQL, scan tables, import their
schema as foreign-table definitions and move rows through a SQLite sink.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (.yaml, .yml or .toml)")
	cmd.PersistentFlags().StringArrayVarP(&opts.Options, "option", "o", nil, "table option key=value (repeatable)")

	cmd.AddCommand(NewDescribeCommand(opts))
	cmd.AddCommand(NewPathKeysCommand(opts))
	cmd.AddCommand(NewExplainCommand(opts))
	cmd.AddCommand(NewScanCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewLoadCommand(opts))
	cmd.AddCommand(NewImportSchemaCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}
