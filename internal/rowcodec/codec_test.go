package rowcodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cqlbridge/internal/fault"
	"github.com/roach88/cqlbridge/internal/schema"
	"github.com/roach88/cqlbridge/internal/testutil"
)

func usersCodec(t *testing.T) *Codec {
	return NewCodec(testutil.Catalog(t, testutil.UsersMetadata()))
}

func TestCodec_DecodeRow(t *testing.T) {
	c := usersCodec(t)

	row, err := c.DecodeRow(map[string]any{
		"id":         int32(7),
		"name":       "alice",
		"age":        nil,
		"profile[0]": "admin",
		"profile[1]": int32(3),
		"scores":     map[any]any{"math": int32(90)},
		"extra":      "kept",
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"id":        int64(7),
		"name":      "alice",
		"age":       nil,
		"profile":   `["admin","3"]`,
		"scores":    `{"math":"90"}`,
		"extra":     "kept",
		"__rowid__": `["7","alice"]`,
	}, row)
}

func TestCodec_DecodeRow_NullTuple(t *testing.T) {
	c := usersCodec(t)

	row, err := c.DecodeRow(map[string]any{
		"id": int32(1), "name": "a", "profile[0]": nil, "profile[1]": nil,
	})
	require.NoError(t, err)
	assert.Nil(t, row["profile"])
	assert.NotContains(t, row, "profile[0]")
}

func TestCodec_DecodeRow_WithoutKeys(t *testing.T) {
	c := usersCodec(t)

	row, err := c.DecodeRow(map[string]any{"id": int32(1), "age": int32(4)})
	require.NoError(t, err)
	assert.NotContains(t, row, RowIDColumn)
	assert.Equal(t, int64(4), row["age"])
}

func TestCodec_DecodeRow_TypeError(t *testing.T) {
	c := usersCodec(t)

	_, err := c.DecodeRow(map[string]any{"age": "forty"})
	require.Error(t, err)
	assert.True(t, fault.IsTypeConversionError(err))
}

func TestCodec_RowIDRoundTrip(t *testing.T) {
	c := usersCodec(t)

	args, err := c.RowIDArgs(`["7","alice"]`)
	require.NoError(t, err)
	assert.Equal(t, []any{int32(7), "alice"}, args)

	row, err := c.DecodeRow(map[string]any{"id": args[0], "name": args[1]})
	require.NoError(t, err)
	assert.Equal(t, `["7","alice"]`, row[RowIDColumn])

	_, err = c.RowIDArgs(`["7"]`)
	assert.True(t, fault.IsFormatError(err))
	_, err = c.RowIDArgs(`["seven","alice"]`)
	assert.True(t, fault.IsTypeConversionError(err))
}

func TestCodec_RowIDTimestampRoundTrip(t *testing.T) {
	c := NewCodec(testutil.Catalog(t, testutil.EventsMetadata()))
	id := `["6ba7b810-9dad-11d1-80b4-00c04fd430c8","a","1","2","2024-01-02 03:04:05.250000+00:00"]`

	args, err := c.RowIDArgs(id)
	require.NoError(t, err)

	row, err := c.DecodeRow(map[string]any{
		"pk1": args[0], "pk2": args[1], "ck1": args[2], "ck2": args[3], "ck3": args[4],
	})
	require.NoError(t, err)
	assert.Equal(t, id, row[RowIDColumn])
}

func TestCodec_RowIDBinaryAndTupleKeys(t *testing.T) {
	c := NewCodec(testutil.Catalog(t, &schema.TableMetadata{
		Keyspace:      "ks",
		Name:          "files",
		PartitionKey:  []string{"digest"},
		ClusteringKey: []string{"origin"},
		Columns: []schema.ColumnMetadata{
			{Name: "digest", Type: "blob"},
			{Name: "origin", Type: "frozen<tuple<text, int>>"},
			{Name: "size", Type: "bigint"},
		},
	}))
	digest := []byte{0xff, 0x00, 0x81}

	row, err := c.DecodeRow(map[string]any{
		"digest": digest, "origin[0]": "x", "origin[1]": int32(3), "size": int64(10),
	})
	require.NoError(t, err)
	id, ok := row[RowIDColumn].(string)
	require.True(t, ok)
	assert.Equal(t, `["0xff0081","[\"x\",\"3\"]"]`, id)

	args, err := c.RowIDArgs(id)
	require.NoError(t, err)
	assert.Equal(t, []any{digest, []any{"x", int32(3)}}, args)

	again, err := c.DecodeRow(map[string]any{"digest": args[0], "origin": args[1]})
	require.NoError(t, err)
	assert.Equal(t, id, again[RowIDColumn])
}

func TestCodec_InsertArgs(t *testing.T) {
	c := usersCodec(t)

	vals, err := c.InsertArgs(map[string]any{
		"age":       "30",
		"name":      "alice",
		"id":        7,
		"profile":   `["admin", 3]`,
		"__rowid__": `["ignored"]`,
	})
	require.NoError(t, err)
	// id, name, age, profile, scores
	assert.Equal(t, []any{int32(7), "alice", int32(30), []any{"admin", int32(3)}, nil}, vals)
}

func TestCodec_InsertArgs_Errors(t *testing.T) {
	c := usersCodec(t)

	_, err := c.InsertArgs(map[string]any{"id": 1, "name": "a", "nope": 1})
	assert.True(t, fault.IsSchemaError(err))

	_, err = c.InsertArgs(map[string]any{"id": 1, "age": 3})
	require.Error(t, err)
	var fe *fault.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "name", fe.Column)

	_, err = c.InsertArgs(map[string]any{"id": nil, "name": "a"})
	assert.True(t, fault.IsTypeConversionError(err))
}
