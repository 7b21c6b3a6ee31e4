// Package table is the handle a relational engine holds for one store table.
//
// A Table owns the session, the catalog, the select compiler, the row codec
// and, when modify_concurrency is above one, a write batcher. Scans compile
// predicates into one SELECT and decode rows lazily. Writes either execute
// immediately or queue in the batcher until the threshold or an explicit
// flush.
//
// Thread-safety model:
//   - Execute, Insert, Delete, Update and Flush may be called concurrently
//   - Begin, Commit, Rollback and Close are lifecycle calls and are expected
//     from one goroutine
package table

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/roach88/cqlbridge/internal/batch"
	"github.com/roach88/cqlbridge/internal/config"
	"github.com/roach88/cqlbridge/internal/cql"
	"github.com/roach88/cqlbridge/internal/fault"
	"github.com/roach88/cqlbridge/internal/logutil"
	"github.com/roach88/cqlbridge/internal/metrics"
	"github.com/roach88/cqlbridge/internal/query"
	"github.com/roach88/cqlbridge/internal/rowcodec"
	"github.com/roach88/cqlbridge/internal/schema"
)

// Connector opens a session for cfg.
type Connector func(cfg config.Config, logger *zap.Logger) (cql.Session, error)

// Table is an open handle on keyspace.table.
type Table struct {
	cfg      config.Config
	connect  Connector
	source   schema.MetadataSource
	logger   *zap.Logger
	metrics  *metrics.Metrics
	catalog  *schema.Catalog
	compiler *query.Compiler
	codec    *rowcodec.Codec
	batcher  *batch.Batcher

	mu         sync.Mutex
	session    cql.Session
	insertStmt string
	deleteStmt string
}

// Option configures Open.
type Option func(*Table)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(t *Table) {
		t.logger = l
	}
}

// WithMetrics sets the collectors shared by the compiler, the batcher and
// statement execution.
func WithMetrics(m *metrics.Metrics) Option {
	return func(t *Table) {
		t.metrics = m
	}
}

// WithSession uses s instead of connecting.
func WithSession(s cql.Session) Option {
	return func(t *Table) {
		t.session = s
	}
}

// WithConnector replaces cql.Connect. It is also used to reconnect after a
// per-transaction connection was closed by Commit.
func WithConnector(c Connector) Option {
	return func(t *Table) {
		t.connect = c
	}
}

// WithMetadataSource describes the table from src instead of the session's
// system_schema.
func WithMetadataSource(src schema.MetadataSource) Option {
	return func(t *Table) {
		t.source = src
	}
}

// Open connects, describes the table and prepares the compiler and codec.
func Open(ctx context.Context, cfg config.Config, opts ...Option) (*Table, error) {
	if cfg.Keyspace == "" || cfg.Table == "" {
		return nil, fault.NewSchemaError("keyspace and table are required")
	}
	t := &Table{
		cfg:     cfg,
		connect: cql.Connect,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = logutil.OrNop(t.logger).Named("table").With(
		zap.String("keyspace", cfg.Keyspace),
		zap.String("table", cfg.Table))

	if t.session == nil {
		s, err := t.connect(cfg, t.logger)
		if err != nil {
			return nil, errors.Wrapf(err, "open %s.%s", cfg.Keyspace, cfg.Table)
		}
		t.session = s
	}
	if t.source == nil {
		t.source = cql.NewMetadataReader(t.session)
	}

	cat, err := schema.Describe(ctx, t.source, cfg.Keyspace, cfg.Table)
	if err != nil {
		t.session.Close()
		return nil, err
	}
	t.catalog = cat
	t.compiler = query.NewCompiler(cat,
		query.WithLimit(cfg.Limit),
		query.WithRawQuery(cfg.Query),
		query.WithLogger(t.logger),
		query.WithMetrics(t.metrics))
	t.codec = rowcodec.NewCodec(cat)

	if cfg.ModifyConcurrency > 1 {
		b, err := batch.New(t.dispatch,
			batch.WithEncoder(t.encode),
			batch.WithConcurrency(cfg.ModifyConcurrency),
			batch.WithThreshold(cfg.BatchThreshold),
			batch.WithLogger(t.logger),
			batch.WithMetrics(t.metrics))
		if err != nil {
			t.session.Close()
			return nil, err
		}
		t.batcher = b
	}

	t.logger.Debug("table opened",
		zap.Int("columns", cat.Len()),
		zap.Bool("view", cat.IsView()),
		zap.Bool("batched", t.batcher != nil))
	return t, nil
}

// Catalog returns the table's column catalog.
func (t *Table) Catalog() *schema.Catalog { return t.catalog }

// RowIDColumn is the name of the row identifier pseudo column.
func (t *Table) RowIDColumn() string { return rowcodec.RowIDColumn }

// PathKeys lists the access paths of the table with their costs.
func (t *Table) PathKeys() []query.PathKey { return query.PathKeys(t.catalog) }

// RelSize estimates the rows and row width a scan with preds returns.
func (t *Table) RelSize(preds []query.Predicate) (rows, width int) {
	return query.EstimateRelSize(t.catalog, preds)
}

// Unsatisfiable is what Explain reports for a predicate set that matches
// no row.
const Unsatisfiable = "no statement: predicates match no row"

// Explain renders the statement Execute would run, with values inlined.
func (t *Table) Explain(preds []query.Predicate, columns []string) (string, error) {
	q, err := t.compiler.Compile(preds, columns, t.cfg.AllowFiltering)
	if errors.Is(err, fault.ErrUnsatisfiable) {
		return Unsatisfiable, nil
	}
	if err != nil {
		return "", err
	}
	return q.Inline()
}

// Execute compiles preds and starts the scan. Predicates reported by
// Rows.Dropped were not pushed to the store and must be rechecked by the
// caller. An unsatisfiable predicate set yields no rows and no error.
func (t *Table) Execute(ctx context.Context, preds []query.Predicate, columns []string) (*Rows, error) {
	q, err := t.compiler.Compile(preds, columns, t.cfg.AllowFiltering)
	if errors.Is(err, fault.ErrUnsatisfiable) {
		t.logger.Debug("skipping unsatisfiable scan")
		return emptyRows(), nil
	}
	if err != nil {
		return nil, err
	}

	stmt, values := q.Statement, q.Values
	if !t.cfg.PrepareSelects {
		if stmt, err = q.Inline(); err != nil {
			return nil, err
		}
		values = nil
	}

	s, err := t.currentSession()
	if err != nil {
		return nil, err
	}
	t.traceStatement(stmt, values)
	t.metrics.Statement(metrics.StatementSelect)
	return &Rows{
		iter:      s.Query(ctx, stmt, values...),
		codec:     t.codec,
		statement: stmt,
		dropped:   q.Dropped,
		columns:   q.Columns,
	}, nil
}

// Insert writes row. With batching enabled the write is queued and an error
// may belong to an earlier queued item.
func (t *Table) Insert(ctx context.Context, row map[string]any) error {
	return t.modify(ctx, batch.Insert(row))
}

// Update overwrites the row. CQL inserts are upserts, so the row identifier
// is not used to address the row: the key columns of row are.
func (t *Table) Update(ctx context.Context, _ string, row map[string]any) error {
	return t.modify(ctx, batch.Insert(row))
}

// Delete removes the row with identifier id.
func (t *Table) Delete(ctx context.Context, id string) error {
	return t.modify(ctx, batch.Delete(id))
}

func (t *Table) modify(ctx context.Context, item batch.Item) error {
	if t.catalog.IsView() {
		return fault.NewSchemaError("%s.%s is a materialized view and cannot be modified",
			t.catalog.Keyspace(), t.catalog.Table())
	}
	if t.batcher == nil {
		encoded, err := t.encode(item)
		if err != nil {
			return err
		}
		return t.dispatch(ctx, encoded)
	}
	return t.batcher.Add(ctx, item)
}

// encode binds item to its insert or delete statement.
func (t *Table) encode(item batch.Item) (batch.Item, error) {
	var err error
	switch item.Kind {
	case batch.KindInsert:
		item.Statement = t.insertStatement()
		item.Args, err = t.codec.InsertArgs(item.Row)
	case batch.KindDelete:
		item.Statement = t.deleteStatement()
		item.Args, err = t.codec.RowIDArgs(item.RowID)
	default:
		err = errors.Newf("unknown write kind %d", item.Kind)
	}
	return item, err
}

// dispatch executes one encoded write.
func (t *Table) dispatch(ctx context.Context, item batch.Item) error {
	kind := metrics.StatementInsert
	if item.Kind == batch.KindDelete {
		kind = metrics.StatementDelete
	}
	s, err := t.currentSession()
	if err != nil {
		return err
	}
	t.traceStatement(item.Statement, item.Args)
	t.metrics.Statement(kind)
	if err := s.Exec(ctx, item.Statement, item.Args...); err != nil {
		return fault.NewExecutionError(item.Statement, err)
	}
	return nil
}

// insertStatement lists every catalog column. It is built on first use.
func (t *Table) insertStatement() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.insertStmt != "" {
		return t.insertStmt
	}
	names := t.catalog.ColumnNames()
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = query.QuoteIdent(name)
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.qualifiedName(),
		strings.Join(quoted, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", "))
	if t.cfg.TTL != 0 {
		stmt += " USING TTL " + strconv.Itoa(t.cfg.TTL)
	}
	t.insertStmt = stmt
	return stmt
}

// deleteStatement binds every row identifier column by equality.
func (t *Table) deleteStatement() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.deleteStmt != "" {
		return t.deleteStmt
	}
	keys := t.catalog.RowIDColumns()
	where := make([]string, len(keys))
	for i, name := range keys {
		where[i] = query.QuoteIdent(name) + " = ?"
	}
	t.deleteStmt = fmt.Sprintf("DELETE FROM %s WHERE %s", t.qualifiedName(), strings.Join(where, " AND "))
	return t.deleteStmt
}

func (t *Table) qualifiedName() string {
	return query.QuoteIdent(t.catalog.Keyspace()) + "." + query.QuoteIdent(t.catalog.Table())
}

func (t *Table) traceStatement(stmt string, values []any) {
	if !t.cfg.Trace {
		return
	}
	t.logger.Info("executing statement", zap.String("statement", stmt), zap.Int("values", len(values)))
}

// currentSession returns the open session, reconnecting when Commit closed
// a per-transaction connection.
func (t *Table) currentSession() (cql.Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session != nil {
		return t.session, nil
	}
	s, err := t.connect(t.cfg, t.logger)
	if err != nil {
		return nil, errors.Wrap(err, "reconnect")
	}
	t.session = s
	return s, nil
}

// Flush executes every queued write.
func (t *Table) Flush(ctx context.Context) error {
	if t.batcher == nil {
		return nil
	}
	return t.batcher.Flush(ctx)
}

// Pending returns the number of queued writes.
func (t *Table) Pending() int {
	if t.batcher == nil {
		return 0
	}
	return t.batcher.Pending()
}

// Begin starts a transaction. The store has no transactions; Begin only
// makes sure a session is open.
func (t *Table) Begin(context.Context) error {
	_, err := t.currentSession()
	return err
}

// Commit flushes queued writes. With per_transaction_connection the session
// is closed afterwards, even when the flush failed.
func (t *Table) Commit(ctx context.Context) error {
	err := t.Flush(ctx)
	if t.cfg.PerTransactionConnection {
		t.closeSession()
	}
	return err
}

// Rollback drops queued writes. Writes already executed stay applied.
func (t *Table) Rollback(context.Context) error {
	if t.batcher == nil {
		return nil
	}
	if n := t.batcher.Discard(); n > 0 {
		t.logger.Warn("rollback dropped queued writes", zap.Int("items", n))
	}
	return nil
}

func (t *Table) closeSession() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session != nil {
		t.session.Close()
		t.session = nil
	}
}

// Close releases the batcher and the session. Queued writes are dropped;
// call Flush or Commit first to keep them.
func (t *Table) Close() error {
	var err error
	if t.batcher != nil {
		err = t.batcher.Close()
	}
	t.closeSession()
	return err
}
