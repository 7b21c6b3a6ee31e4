package rowcodec

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/roach88/cqlbridge/internal/cqltype"
	"github.com/roach88/cqlbridge/internal/fault"
	"github.com/roach88/cqlbridge/internal/marshal"
	"github.com/roach88/cqlbridge/internal/schema"
)

// Codec converts rows between store-native and relational form for one
// catalog.
type Codec struct {
	catalog *schema.Catalog
}

// NewCodec creates a codec over cat.
func NewCodec(cat *schema.Catalog) *Codec {
	return &Codec{catalog: cat}
}

// DecodeRow converts a scanned row into a relational row. Catalog columns are
// decoded by type; tuple columns scanned as "name[i]" are reassembled first.
// Columns unknown to the catalog are passed through. When every row
// identifier column is present the row also carries RowIDColumn.
func (c *Codec) DecodeRow(native map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(native)+1)
	consumed := make(map[string]bool)
	values := make(map[string]any, len(c.catalog.Columns()))

	for _, col := range c.catalog.Columns() {
		v, ok := native[col.Name]
		if !ok {
			if tup, isTuple := col.Type.(cqltype.Tuple); isTuple {
				v, ok = flattenedTuple(native, col.Name, len(tup.Elems), consumed)
			}
		}
		if !ok {
			continue
		}
		consumed[col.Name] = true
		values[col.Name] = v
		dec, err := marshal.Decode(v, col.Type)
		if err != nil {
			return nil, fault.WithColumn(err, col.Name)
		}
		out[col.Name] = dec
	}
	for name, v := range native {
		if !consumed[name] {
			out[name] = v
		}
	}

	id, ok, err := c.rowID(values)
	if err != nil {
		return nil, err
	}
	if ok {
		out[RowIDColumn] = id
	}
	return out, nil
}

// flattenedTuple collects name[0..n) into a slice. A tuple whose elements
// are all null is null.
func flattenedTuple(native map[string]any, name string, n int, consumed map[string]bool) (any, bool) {
	elems := make([]any, n)
	found, null := false, true
	for i := range elems {
		key := fmt.Sprintf("%s[%d]", name, i)
		v, ok := native[key]
		if !ok {
			continue
		}
		found = true
		consumed[key] = true
		elems[i] = v
		if v != nil {
			null = false
		}
	}
	if !found {
		return nil, false
	}
	if null {
		return nil, true
	}
	return elems, true
}

// rowID builds the identifier from the native key values, tuple keys
// already reassembled.
func (c *Codec) rowID(native map[string]any) (string, bool, error) {
	keys := c.catalog.RowIDColumns()
	values := make([]string, len(keys))
	for i, name := range keys {
		v, ok := native[name]
		if !ok {
			return "", false, nil
		}
		col, _ := c.catalog.Column(name)
		s, err := marshal.Stringify(v, col.Type)
		if err != nil {
			return "", false, fault.WithColumn(err, name)
		}
		values[i] = s
	}
	id, err := EncodeRowID(values)
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

// RowIDArgs decodes id into store-native values for the row identifier
// columns, in catalog order.
func (c *Codec) RowIDArgs(id string) ([]any, error) {
	keys := c.catalog.RowIDColumns()
	raw, err := DecodeRowID(id, len(keys))
	if err != nil {
		return nil, err
	}
	out := make([]any, len(keys))
	for i, name := range keys {
		col, _ := c.catalog.Column(name)
		v, err := marshal.Encode(raw[i], col.Type)
		if err != nil {
			return nil, fault.WithColumn(err, name)
		}
		out[i] = v
	}
	return out, nil
}

// InsertArgs encodes a relational row for an INSERT that lists every
// catalog column in catalog order. Columns missing from row bind null.
// RowIDColumn is ignored. Key columns must be present and not null.
func (c *Codec) InsertArgs(row map[string]any) ([]any, error) {
	for name := range row {
		if name == RowIDColumn {
			continue
		}
		if _, ok := c.catalog.Column(name); !ok {
			return nil, fault.NewSchemaError("column %q is not in %s.%s", name, c.catalog.Keyspace(), c.catalog.Table())
		}
	}

	cols := c.catalog.Columns()
	values := make([]any, len(cols))
	for i, col := range cols {
		v := row[col.Name]
		if v == nil && (col.Role.IsKey() || col.KeyPosition >= 0) {
			return nil, fault.WithColumn(
				fault.NewTypeConversionError(v, col.Type.String(), errors.New("key column cannot be null")), col.Name)
		}
		enc, err := marshal.Encode(v, col.Type)
		if err != nil {
			return nil, fault.WithColumn(err, col.Name)
		}
		values[i] = enc
	}
	return values, nil
}
