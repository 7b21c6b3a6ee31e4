package cli

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/roach88/cqlbridge/internal/config"
	"github.com/roach88/cqlbridge/internal/cql"
	"github.com/roach88/cqlbridge/internal/importer"
	"github.com/roach88/cqlbridge/internal/logutil"
	"github.com/roach88/cqlbridge/internal/table"
)

// loadConfig reads --config when given, otherwise builds the config from
// the --option pairs the way a foreign-table definition would.
func (o *RootOptions) loadConfig() (config.Config, error) {
	if o.ConfigPath != "" {
		if len(o.Options) > 0 {
			return config.Config{}, NewExitError(ExitCommandError, "--config and --option are mutually exclusive")
		}
		cfg, err := config.Load(o.ConfigPath)
		if err != nil {
			return config.Config{}, WrapExitError(ExitCommandError, "load config", err)
		}
		return cfg, nil
	}

	pairs := make(map[string]string, len(o.Options))
	for _, kv := range o.Options {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return config.Config{}, NewExitError(ExitCommandError, "option must be key=value, got "+kv)
		}
		pairs[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	cfg, err := config.FromOptions(pairs)
	if err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "parse options", err)
	}
	return cfg, nil
}

// logger builds the command logger. --verbose forces debug level.
func (o *RootOptions) logger(cfg config.Config) (*zap.Logger, error) {
	lc := logutil.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}
	if o.Verbose {
		lc.Level = "debug"
	}
	l, err := logutil.New(lc)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "build logger", err)
	}
	return l, nil
}

func (o *RootOptions) connector() table.Connector {
	if o.Connect != nil {
		return o.Connect
	}
	return cql.Connect
}

func (o *RootOptions) lister(s cql.Session) importer.Lister {
	if o.Metadata != nil {
		return o.Metadata(s)
	}
	return cql.NewMetadataReader(s)
}

// session bundles what a command needs to talk to one table.
type session struct {
	cfg    config.Config
	logger *zap.Logger
	table  *table.Table
}

func (s *session) Close() {
	if err := s.table.Close(); err != nil {
		s.logger.Warn("close table", zap.Error(err))
	}
	_ = s.logger.Sync()
}

// openTable loads the config and opens the configured table.
func (o *RootOptions) openTable(ctx context.Context) (*session, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Table == "" {
		return nil, NewExitError(ExitCommandError, "table is required")
	}
	logger, err := o.logger(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := o.connector()(cfg, logger)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "connect", err)
	}
	t, err := table.Open(ctx, cfg,
		table.WithSession(conn),
		table.WithConnector(o.connector()),
		table.WithMetadataSource(o.lister(conn)),
		table.WithLogger(logger))
	if err != nil {
		return nil, errors.Wrap(err, "open table")
	}
	return &session{cfg: cfg, logger: logger, table: t}, nil
}
