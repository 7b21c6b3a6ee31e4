// Command cqlbridge exposes CQL tables to relational tooling: it describes
// tables, compiles predicates into statements, scans rows, imports schemas
// and moves rows through a SQLite sink.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/cqlbridge/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := cli.NewRootCommand()
	cmd.SilenceErrors = true
	if err := cmd.ExecuteContext(ctx); err != nil {
		format, _ := cmd.PersistentFlags().GetString("format")
		cli.Report(os.Stderr, format, err)
		stop()
		os.Exit(cli.GetExitCode(err))
	}
}
