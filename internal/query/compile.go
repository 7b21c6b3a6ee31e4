package query

import (
	"fmt"
	"reflect"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/roach88/cqlbridge/internal/cqltype"
	"github.com/roach88/cqlbridge/internal/fault"
	"github.com/roach88/cqlbridge/internal/logutil"
	"github.com/roach88/cqlbridge/internal/marshal"
	"github.com/roach88/cqlbridge/internal/metrics"
	"github.com/roach88/cqlbridge/internal/rowcodec"
	"github.com/roach88/cqlbridge/internal/schema"
)

// Compiler turns predicate sets into CQL SELECT statements for one table.
// It is immutable after construction and safe for concurrent use.
type Compiler struct {
	catalog  *schema.Catalog
	limit    int
	rawQuery string
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// CompilerOption configures a Compiler.
type CompilerOption func(*Compiler)

// WithLimit appends LIMIT n to every statement. Zero means no limit.
func WithLimit(n int) CompilerOption {
	return func(c *Compiler) {
		c.limit = n
	}
}

// WithRawQuery replaces the generated SELECT with a fixed statement.
// Predicates are then ignored; LIMIT and ALLOW FILTERING still apply.
func WithRawQuery(q string) CompilerOption {
	return func(c *Compiler) {
		c.rawQuery = strings.TrimSpace(q)
	}
}

// WithLogger sets the logger used for predicate decisions.
func WithLogger(l *zap.Logger) CompilerOption {
	return func(c *Compiler) {
		c.logger = l
	}
}

// WithMetrics sets the collectors for compilations and predicate decisions.
func WithMetrics(m *metrics.Metrics) CompilerOption {
	return func(c *Compiler) {
		c.metrics = m
	}
}

// NewCompiler creates a compiler over cat.
func NewCompiler(cat *schema.Catalog, opts ...CompilerOption) *Compiler {
	c := &Compiler{catalog: cat}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logutil.OrNop(c.logger)
	return c
}

// Catalog returns the catalog the compiler was built over.
func (c *Compiler) Catalog() *schema.Catalog { return c.catalog }

// CompiledQuery is a SELECT statement with ? placeholders and its bound
// values in placeholder order.
type CompiledQuery struct {
	Statement string

	// Values are store-native values, one per placeholder. An IN predicate
	// binds a single []any.
	Values []any

	// Types holds the descriptor of each value. IN values carry the list of
	// the column type.
	Types []cqltype.Descriptor

	// Columns is the native projection, row identifier columns included.
	Columns []string

	// Dropped lists predicates that were not pushed to the store. Callers
	// must enforce them on the returned rows.
	Dropped []Predicate
}

// Inline renders the statement with every placeholder replaced by the CQL
// literal of its value. IN values render as "(a, b, ...)".
func (q *CompiledQuery) Inline() (string, error) {
	literals := make([]string, len(q.Values))
	for i, v := range q.Values {
		if l, ok := q.Types[i].(cqltype.List); ok {
			items, err := sequence(v)
			if err != nil {
				return "", fault.NewTypeConversionError(v, l.String(), err)
			}
			parts := make([]string, len(items))
			for j, item := range items {
				s, err := marshal.Literal(item, l.Elem)
				if err != nil {
					return "", err
				}
				parts[j] = s
			}
			literals[i] = "(" + strings.Join(parts, ", ") + ")"
			continue
		}
		s, err := marshal.Literal(v, q.Types[i])
		if err != nil {
			return "", err
		}
		literals[i] = s
	}

	var b strings.Builder
	next := 0
	var quote byte
	for i := 0; i < len(q.Statement); i++ {
		ch := q.Statement[i]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '\'' || ch == '"':
			quote = ch
		case ch == '?':
			if next >= len(literals) {
				return "", errors.Newf("statement has more placeholders than values: %s", q.Statement)
			}
			b.WriteString(literals[next])
			next++
			continue
		}
		b.WriteByte(ch)
	}
	if next != len(literals) {
		return "", errors.Newf("statement has %d placeholders for %d values", next, len(literals))
	}
	return b.String(), nil
}

// QuoteIdent renders a CQL identifier in double quotes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// compilation is the per-call state of the eligibility state machine.
type compilation struct {
	where   []string
	values  []any
	types   []cqltype.Descriptor
	dropped []Predicate

	used         map[string]bool
	lastCK       int // key position of the last accepted clustering equality, -1 before any
	eqRestricted bool
	rangeUsed    bool
}

func (s *compilation) bind(clause string, v any, d cqltype.Descriptor) {
	s.where = append(s.where, clause)
	s.values = append(s.values, v)
	s.types = append(s.types, d)
}

// Compile builds the SELECT for preds projecting columns.
//
// Predicates are considered in ascending (cost, component index) order of
// their column. It returns fault.ErrUnsatisfiable when a key column is
// compared with null or the row identifier is null; the caller must treat
// that as an empty result.
func (c *Compiler) Compile(preds []Predicate, columns []string, allowFiltering bool) (*CompiledQuery, error) {
	q, result, err := c.compile(preds, columns, allowFiltering)
	switch {
	case errors.Is(err, fault.ErrUnsatisfiable):
		c.metrics.Compiled(metrics.ResultUnsatisfiable)
	case err != nil:
		c.metrics.Compiled(metrics.ResultError)
	default:
		c.metrics.Compiled(result)
		c.logger.Debug("compiled select",
			zap.String("statement", q.Statement),
			zap.Int("values", len(q.Values)),
			zap.Int("dropped", len(q.Dropped)))
	}
	return q, err
}

func (c *Compiler) compile(preds []Predicate, columns []string, allowFiltering bool) (*CompiledQuery, string, error) {
	projection, err := c.projection(columns)
	if err != nil {
		return nil, "", err
	}

	if c.rawQuery != "" {
		return &CompiledQuery{
			Statement: c.rawQuery + c.suffix(allowFiltering),
			Columns:   projection,
			Dropped:   append([]Predicate(nil), preds...),
		}, metrics.ResultRawQuery, nil
	}

	for _, name := range c.catalog.RowIDColumns() {
		if !slices.Contains(projection, name) {
			projection = append(projection, name)
		}
	}
	quoted := make([]string, len(projection))
	for i, name := range projection {
		quoted[i] = QuoteIdent(name)
	}
	head := fmt.Sprintf("SELECT %s FROM %s.%s",
		strings.Join(quoted, ", "), QuoteIdent(c.catalog.Keyspace()), QuoteIdent(c.catalog.Table()))

	st := &compilation{used: make(map[string]bool), lastCK: -1}
	result := metrics.ResultCompiled

	if idx := rowIDPredicate(preds); idx >= 0 {
		if err := c.compileRowID(st, preds, idx); err != nil {
			return nil, "", err
		}
		result = metrics.ResultRowID
	} else {
		for _, p := range c.order(preds) {
			if err := c.compilePredicate(st, p, allowFiltering); err != nil {
				return nil, "", err
			}
		}
	}

	stmt := head
	if len(st.where) > 0 {
		stmt += " WHERE " + strings.Join(st.where, " AND ")
	}
	return &CompiledQuery{
		Statement: stmt + c.suffix(allowFiltering),
		Values:    st.values,
		Types:     st.types,
		Columns:   projection,
		Dropped:   st.dropped,
	}, result, nil
}

// projection drops the row identifier pseudo column and duplicates, and
// rejects columns the table does not have.
func (c *Compiler) projection(columns []string) ([]string, error) {
	out := make([]string, 0, len(columns)+len(c.catalog.RowIDColumns()))
	for _, name := range columns {
		if name == rowcodec.RowIDColumn || slices.Contains(out, name) {
			continue
		}
		if _, ok := c.catalog.Column(name); !ok && c.rawQuery == "" {
			return nil, fault.NewSchemaError("column %q is not in %s.%s", name, c.catalog.Keyspace(), c.catalog.Table())
		}
		out = append(out, name)
	}
	return out, nil
}

func (c *Compiler) suffix(allowFiltering bool) string {
	var s string
	if c.limit > 0 {
		s += " LIMIT " + strconv.Itoa(c.limit)
	}
	if allowFiltering {
		s += " ALLOW FILTERING"
	}
	return s
}

// compileRowID binds every row identifier column by equality from the
// identifier at preds[idx]. All other predicates are reported as dropped.
func (c *Compiler) compileRowID(st *compilation, preds []Predicate, idx int) error {
	p := preds[idx]
	if p.Value == nil {
		return fault.ErrUnsatisfiable
	}
	id, ok := p.Value.(string)
	if !ok {
		return fault.WithColumn(fault.NewTypeConversionError(p.Value, "row id", nil), rowcodec.RowIDColumn)
	}
	keys := c.catalog.RowIDColumns()
	raw, err := rowcodec.DecodeRowID(id, len(keys))
	if err != nil {
		return err
	}
	for i, name := range keys {
		col, _ := c.catalog.Column(name)
		v, err := marshal.Encode(raw[i], col.Type)
		if err != nil {
			return fault.WithColumn(err, name)
		}
		st.bind(QuoteIdent(name)+" = ?", v, col.Type)
	}
	for i, other := range preds {
		if i != idx {
			st.dropped = append(st.dropped, other)
		}
	}
	return nil
}

func rowIDPredicate(preds []Predicate) int {
	for i, p := range preds {
		if p.Field == rowcodec.RowIDColumn && p.Op == OpEq {
			return i
		}
	}
	return -1
}

// order sorts predicates by their column's (cost, component index). Unknown
// columns sort last.
func (c *Compiler) order(preds []Predicate) []Predicate {
	out := append([]Predicate(nil), preds...)
	key := func(p Predicate) (int, int) {
		col, ok := c.catalog.Column(p.Field)
		if !ok {
			return schema.CostRegular + 1, 0
		}
		return col.Cost, col.ComponentIndex
	}
	sort.SliceStable(out, func(i, j int) bool {
		ci, ii := key(out[i])
		cj, ij := key(out[j])
		if ci != cj {
			return ci < cj
		}
		return ii < ij
	})
	return out
}

func (c *Compiler) compilePredicate(st *compilation, p Predicate, allowFiltering bool) error {
	col, ok := c.catalog.Column(p.Field)
	if !ok {
		c.decide(st, p, metrics.DecisionDropped, "unknown column")
		return nil
	}
	if col.Role.IsKey() && p.Value == nil {
		c.logger.Debug("null key predicate", zap.String("column", col.Name))
		return fault.ErrUnsatisfiable
	}

	switch {
	case p.Op == OpEq:
		return c.compileEq(st, p, col, allowFiltering)
	case p.Op == OpIn:
		return c.compileIn(st, p, col)
	case p.Op == OpContains || p.Op == OpLike:
		if !col.TextSearch() {
			c.decide(st, p, metrics.DecisionDropped, "no text search index")
			return nil
		}
		v := p.Value
		if p.Op == OpContains {
			v = fmt.Sprintf("%%%v%%", p.Value)
		}
		return c.push(st, p, col, QuoteIdent(col.Name)+" LIKE ?", v, metrics.DecisionPushed)
	case p.Op.IsRange():
		decision := metrics.DecisionPushed
		switch {
		case col.Role == schema.RoleClusteringKey, col.TextSearch():
		case allowFiltering && col.Role != schema.RolePartitionKey:
			decision = metrics.DecisionFiltered
		default:
			c.decide(st, p, metrics.DecisionDropped, "range not supported")
			return nil
		}
		st.rangeUsed = true
		return c.push(st, p, col, QuoteIdent(col.Name)+" "+p.Op.String()+" ?", p.Value, decision)
	default:
		c.decide(st, p, metrics.DecisionDropped, "unsupported operator")
		return nil
	}
}

// compileEq accepts an equality on a key or indexed column when the column
// is not yet bound and the clustering prefix is still contiguous. Anything
// else is pushed only under ALLOW FILTERING.
func (c *Compiler) compileEq(st *compilation, p Predicate, col schema.Column, allowFiltering bool) error {
	clause := QuoteIdent(col.Name) + " = ?"
	if col.Role != schema.RoleRegular {
		if col.Role == schema.RoleClusteringKey && col.KeyPosition != st.lastCK {
			if st.lastCK < 0 && col.KeyPosition != 0 {
				st.eqRestricted = true
			} else if st.lastCK >= 0 && col.KeyPosition != st.lastCK+1 {
				st.eqRestricted = true
			}
		}
		if !st.used[col.Name] && !st.eqRestricted {
			st.used[col.Name] = true
			if col.Role == schema.RoleClusteringKey {
				st.lastCK = col.KeyPosition
			}
			return c.push(st, p, col, clause, p.Value, metrics.DecisionPushed)
		}
	}
	if allowFiltering {
		return c.push(st, p, col, clause, p.Value, metrics.DecisionFiltered)
	}
	c.decide(st, p, metrics.DecisionDropped, "equality not eligible")
	return nil
}

// compileIn accepts IN on an unbound key column while the clustering prefix
// is contiguous and no range has been used. The values bind as one list.
func (c *Compiler) compileIn(st *compilation, p Predicate, col schema.Column) error {
	if !col.Role.IsKey() || st.used[col.Name] || st.eqRestricted || st.rangeUsed {
		c.decide(st, p, metrics.DecisionDropped, "membership not eligible")
		return nil
	}
	items, err := sequence(p.Value)
	if err != nil {
		return fault.WithColumn(fault.NewTypeConversionError(p.Value, "IN list", err), col.Name)
	}
	list := make([]any, len(items))
	for i, item := range items {
		if item == nil {
			return fault.ErrUnsatisfiable
		}
		v, err := marshal.Encode(item, col.Type)
		if err != nil {
			return fault.WithColumn(err, col.Name)
		}
		list[i] = v
	}
	st.used[col.Name] = true
	st.bind(QuoteIdent(col.Name)+" IN ?", list, cqltype.List{Elem: col.Type})
	c.decide(st, p, metrics.DecisionPushed, "")
	return nil
}

func (c *Compiler) push(st *compilation, p Predicate, col schema.Column, clause string, value any, decision string) error {
	v, err := marshal.Encode(value, col.Type)
	if err != nil {
		return fault.WithColumn(err, col.Name)
	}
	st.bind(clause, v, col.Type)
	c.decide(st, p, decision, "")
	return nil
}

func (c *Compiler) decide(st *compilation, p Predicate, decision, reason string) {
	if decision == metrics.DecisionDropped {
		st.dropped = append(st.dropped, p)
	}
	c.metrics.Predicate(decision)
	c.logger.Debug("predicate",
		zap.String("column", p.Field),
		zap.Stringer("operator", p.Op),
		zap.String("decision", decision),
		zap.String("reason", reason))
}

func sequence(v any) ([]any, error) {
	if items, ok := v.([]any); ok {
		return items, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, errors.Newf("%T is not a sequence", v)
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}
