package cql

import (
	"context"
	"net"
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/roach88/cqlbridge/internal/config"
	"github.com/roach88/cqlbridge/internal/logutil"
)

type gocqlSession struct {
	session *gocql.Session
	tracer  gocql.Tracer
	logger  *zap.Logger
}

// Connect opens a gocql session to the hosts in cfg. Options reported in
// cfg.Defaulted are logged as warnings. With cfg.Trace set, every statement
// is traced and the trace is written to the logger.
func Connect(cfg config.Config, logger *zap.Logger) (Session, error) {
	logger = logutil.OrNop(logger).Named("cql")
	for _, name := range cfg.Defaulted {
		logger.Warn("connection option not set, using default", zap.String("option", name))
	}

	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.Port = cfg.Port
	cluster.ConnectTimeout = cfg.ConnectionTimeout.Std()
	if cfg.Timeout > 0 {
		cluster.Timeout = cfg.Timeout.Std()
	}
	if cfg.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.Username,
			Password: cfg.Password,
		}
	}
	consistency, err := gocql.ParseConsistencyWrapper(strings.ToUpper(cfg.Consistency))
	if err != nil {
		return nil, errors.Wrapf(err, "consistency %q", cfg.Consistency)
	}
	cluster.Consistency = consistency

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, errors.Wrapf(err, "connect to %s port %d", strings.Join(cfg.Hosts, ","), cfg.Port)
	}
	logger.Info("session opened",
		zap.Strings("hosts", cfg.Hosts),
		zap.Int("port", cfg.Port),
		zap.String("consistency", consistency.String()))

	s := &gocqlSession{session: session, logger: logger}
	if cfg.Trace {
		s.tracer = gocql.NewTraceWriter(session, zap.NewStdLog(logger.Named("trace")).Writer())
	}
	return s, nil
}

func (s *gocqlSession) query(ctx context.Context, stmt string, values []any) *gocql.Query {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = toDriver(v)
	}
	q := s.session.Query(stmt, args...).WithContext(ctx)
	if s.tracer != nil {
		q = q.Trace(s.tracer)
	}
	return q
}

func (s *gocqlSession) Query(ctx context.Context, stmt string, values ...any) Iter {
	return &gocqlIter{iter: s.query(ctx, stmt, values).Iter()}
}

func (s *gocqlSession) Exec(ctx context.Context, stmt string, values ...any) error {
	return s.query(ctx, stmt, values).Exec()
}

func (s *gocqlSession) Close() {
	s.session.Close()
	s.logger.Info("session closed")
}

// gocqlIter scans every column through a pointer to pointer so the driver
// reports nulls as nil instead of zero values.
type gocqlIter struct {
	iter    *gocql.Iter
	columns []string
	dest    []any
	err     error
}

func (it *gocqlIter) Next(row map[string]any) bool {
	if it.err != nil {
		return false
	}
	if it.dest == nil {
		rd, err := it.iter.RowData()
		if err != nil {
			it.err = err
			return false
		}
		it.columns = rd.Columns
		it.dest = make([]any, len(rd.Values))
		for i, v := range rd.Values {
			it.dest[i] = reflect.New(reflect.TypeOf(v)).Interface()
		}
	}
	if !it.iter.Scan(it.dest...) {
		return false
	}
	for i, name := range it.columns {
		p := reflect.ValueOf(it.dest[i]).Elem()
		if p.IsNil() {
			row[name] = nil
			continue
		}
		row[name] = fromDriver(p.Elem().Interface())
	}
	return true
}

func (it *gocqlIter) Close() error {
	err := it.iter.Close()
	if err == nil {
		err = it.err
	}
	return err
}

// toDriver converts marshal output into values gocql can bind.
func toDriver(v any) any {
	switch t := v.(type) {
	case uuid.UUID:
		return gocql.UUID(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = toDriver(item)
		}
		return out
	case map[any]any:
		out := make(map[any]any, len(t))
		for k, item := range t {
			out[toDriver(k)] = toDriver(item)
		}
		return out
	}
	return v
}

// fromDriver converts scanned gocql values into the forms the marshal
// package decodes. Typed slices and maps become []any and map[any]any.
func fromDriver(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case gocql.UUID:
		return uuid.UUID(t)
	case []byte, net.IP:
		return v
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return nil
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = fromDriver(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.IsNil() {
			return nil
		}
		out := make(map[any]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[fromDriver(iter.Key().Interface())] = fromDriver(iter.Value().Interface())
		}
		return out
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		switch rv.Elem().Kind() {
		case reflect.Struct:
			// *big.Int, *inf.Dec
			return v
		}
		return fromDriver(rv.Elem().Interface())
	}
	return v
}
