package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/cqlbridge/internal/importer"
	"github.com/roach88/cqlbridge/internal/store"
)

// ImportSchemaOptions holds flags for the import-schema command.
type ImportSchemaOptions struct {
	*RootOptions
	Restriction string
	Names       []string
	Mapping     string
	NoRowID     bool
	Server      string
	DBPath      string
}

// NewImportSchemaCommand creates the import-schema command.
func NewImportSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportSchemaOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import-schema",
		Short: "Print foreign-table definitions for a keyspace",
		Long: `Describe every table and materialized view of the configured keyspace
and print one CREATE FOREIGN TABLE statement per relation. Only the
keyspace option is required.

With --db the relations are also created in a SQLite database, ready
for export.

Examples:
  cqlbridge import-schema -o keyspace=shop
  cqlbridge import-schema -o keyspace=shop --restriction limit --names people --mapping "users=people"
  cqlbridge import-schema -o keyspace=shop --restriction except --names audit --no-rowid`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImportSchema(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Restriction, "restriction", "", "limit | except")
	cmd.Flags().StringSliceVar(&opts.Names, "names", nil, "table names the restriction applies to")
	cmd.Flags().StringVar(&opts.Mapping, "mapping", "", `table renames "store=relational;..."`)
	cmd.Flags().BoolVar(&opts.NoRowID, "no-rowid", false, "omit the row identifier column")
	cmd.Flags().StringVar(&opts.Server, "server", importer.DefaultServer, "foreign server name")
	cmd.Flags().StringVar(&opts.DBPath, "db", "", "also create the relations in this SQLite database")

	return cmd
}

func runImportSchema(opts *ImportSchemaOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	restriction, err := importer.ParseRestriction(opts.Restriction)
	if err != nil {
		return WrapExitError(ExitCommandError, "parse restriction", err)
	}
	if restriction != importer.RestrictNone && len(opts.Names) == 0 {
		return NewExitError(ExitCommandError, "--names is required with --restriction")
	}

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	logger, err := opts.logger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	conn, err := opts.connector()(cfg, logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "connect", err)
	}
	defer conn.Close()

	defs, err := importer.New(opts.lister(conn), logger).Import(ctx, cfg.Keyspace, importer.Options{
		WithRowID:   !opts.NoRowID,
		Mapping:     importer.ParseMapping(opts.Mapping),
		Restriction: restriction,
		Names:       opts.Names,
		Server:      opts.Server,
	})
	if err != nil {
		return err
	}

	if opts.DBPath != "" {
		db, err := store.Open(opts.DBPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "open database", err)
		}
		defer db.Close()
		for _, def := range defs {
			if err := db.CreateRelation(ctx, def); err != nil {
				return err
			}
			logger.Debug("relation created", zap.String("relation", def.Name))
		}
	}

	if opts.Format == "json" {
		return formatter(opts.RootOptions, cmd).Success(defs)
	}
	w := cmd.OutOrStdout()
	for i, def := range defs {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, def.SQL(opts.Server))
	}
	return nil
}
