// Package importer turns keyspace metadata into relational table
// definitions, one per store table or materialized view.
package importer

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/cqlbridge/internal/cqltype"
	"github.com/roach88/cqlbridge/internal/logutil"
	"github.com/roach88/cqlbridge/internal/query"
	"github.com/roach88/cqlbridge/internal/rowcodec"
	"github.com/roach88/cqlbridge/internal/schema"
)

// Lister is a metadata source that can also enumerate a keyspace.
type Lister interface {
	schema.MetadataSource
	ListTables(ctx context.Context, keyspace string) ([]string, error)
	ListViews(ctx context.Context, keyspace string) ([]string, error)
}

// Restriction selects which tables an import covers.
type Restriction int

const (
	// RestrictNone imports every table and view.
	RestrictNone Restriction = iota
	// RestrictLimit imports only the listed names.
	RestrictLimit
	// RestrictExcept imports everything but the listed names.
	RestrictExcept
)

// ParseRestriction accepts "", "limit" and "except".
func ParseRestriction(s string) (Restriction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return RestrictNone, nil
	case "limit":
		return RestrictLimit, nil
	case "except":
		return RestrictExcept, nil
	default:
		return 0, errors.Newf("unknown restriction %q", s)
	}
}

// Options controls an import.
type Options struct {
	// WithRowID appends the row identifier column to every definition.
	WithRowID bool

	// Mapping renames store tables on the relational side.
	Mapping map[string]string

	Restriction Restriction

	// Names are the restricted names. With RestrictLimit they may be given
	// under their relational (mapped) names.
	Names []string

	// Server is the foreign server named in rendered definitions.
	Server string
}

// DefaultServer is the server name used when Options.Server is empty.
const DefaultServer = "cassandra"

// ParseOptions reads "with_row_id" and "mapping" from an option map.
// with_row_id defaults to true.
func ParseOptions(opts map[string]string) (Options, error) {
	o := Options{WithRowID: true, Server: DefaultServer}
	if v, ok := opts["with_row_id"]; ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Options{}, errors.Wrap(err, "with_row_id")
		}
		o.WithRowID = b
	}
	o.Mapping = ParseMapping(opts["mapping"])
	return o, nil
}

// ParseMapping parses "store=relational;store2=relational2". Malformed
// entries are skipped.
func ParseMapping(s string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(s, ";") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || strings.Contains(v, "=") {
			continue
		}
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	return out
}

// ColumnDefinition is one relational column.
type ColumnDefinition struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// TableDefinition is one relational table backed by a store table.
type TableDefinition struct {
	Name     string             `json:"name"`
	Keyspace string             `json:"keyspace"`
	Table    string             `json:"table"`
	Columns  []ColumnDefinition `json:"columns"`
}

// SQL renders the definition as a CREATE FOREIGN TABLE statement.
func (d TableDefinition) SQL(server string) string {
	cols := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		cols[i] = fmt.Sprintf("  %s %s", query.QuoteIdent(c.Name), c.Type)
	}
	return fmt.Sprintf("CREATE FOREIGN TABLE %s (\n%s\n) SERVER %s OPTIONS (keyspace '%s', columnfamily '%s');",
		query.QuoteIdent(d.Name),
		strings.Join(cols, ",\n"),
		query.QuoteIdent(server),
		strings.ReplaceAll(d.Keyspace, "'", "''"),
		strings.ReplaceAll(d.Table, "'", "''"))
}

// Importer builds table definitions from a Lister.
type Importer struct {
	src    Lister
	logger *zap.Logger
	fold   cases.Caser
}

// New creates an Importer reading from src.
func New(src Lister, logger *zap.Logger) *Importer {
	return &Importer{
		src:    src,
		logger: logutil.OrNop(logger).Named("importer"),
		fold:   cases.Fold(),
	}
}

// Import builds one definition per selected table or view of keyspace, in
// name order.
func (im *Importer) Import(ctx context.Context, keyspace string, opts Options) ([]TableDefinition, error) {
	tables, err := im.src.ListTables(ctx, keyspace)
	if err != nil {
		return nil, errors.Wrapf(err, "list tables in %s", keyspace)
	}
	views, err := im.src.ListViews(ctx, keyspace)
	if err != nil {
		return nil, errors.Wrapf(err, "list views in %s", keyspace)
	}
	all := append(append([]string(nil), tables...), views...)
	slices.Sort(all)

	selected, err := im.selectNames(all, opts)
	if err != nil {
		return nil, err
	}

	defs := make([]TableDefinition, 0, len(selected))
	for _, name := range selected {
		cat, err := schema.Describe(ctx, im.src, keyspace, name)
		if err != nil {
			return nil, err
		}
		def := im.Define(cat, opts)
		im.logger.Debug("imported table",
			zap.String("table", name),
			zap.String("relation", def.Name),
			zap.Int("columns", len(def.Columns)))
		defs = append(defs, def)
	}
	return defs, nil
}

// selectNames applies the restriction. Names compare case-insensitively
// after NFC normalization.
func (im *Importer) selectNames(all []string, opts Options) ([]string, error) {
	if opts.Restriction == RestrictNone {
		return all, nil
	}

	backward := make(map[string]string, len(opts.Mapping))
	for store, rel := range opts.Mapping {
		backward[im.key(rel)] = store
	}
	byKey := make(map[string]string, len(all))
	for _, name := range all {
		byKey[im.key(name)] = name
	}

	restricted := make(map[string]bool, len(opts.Names))
	for _, n := range opts.Names {
		if store, ok := backward[im.key(n)]; ok {
			n = store
		}
		restricted[im.key(n)] = true
	}

	var out []string
	switch opts.Restriction {
	case RestrictLimit:
		for _, n := range opts.Names {
			k := im.key(n)
			if store, ok := backward[k]; ok {
				k = im.key(store)
			}
			name, ok := byKey[k]
			if !ok {
				return nil, errors.Newf("table %q does not exist", n)
			}
			if !slices.Contains(out, name) {
				out = append(out, name)
			}
		}
	case RestrictExcept:
		for _, name := range all {
			if !restricted[im.key(name)] {
				out = append(out, name)
			}
		}
	default:
		return nil, errors.Newf("unknown restriction %d", opts.Restriction)
	}
	return out, nil
}

func (im *Importer) key(name string) string {
	return im.fold.String(norm.NFC.String(name))
}

// Define builds the relation definition for one described table. The
// mapping renames it and WithRowID appends the row identifier column.
func (im *Importer) Define(cat *schema.Catalog, opts Options) TableDefinition {
	def := TableDefinition{
		Name:     cat.Table(),
		Keyspace: cat.Keyspace(),
		Table:    cat.Table(),
	}
	if rel, ok := opts.Mapping[cat.Table()]; ok {
		def.Name = rel
	}
	for _, col := range cat.Columns() {
		def.Columns = append(def.Columns, ColumnDefinition{
			Name: col.Name,
			Type: cqltype.RelationalType(col.Type),
		})
	}
	if opts.WithRowID {
		def.Columns = append(def.Columns, ColumnDefinition{Name: rowcodec.RowIDColumn, Type: "text"})
	}
	return def
}
