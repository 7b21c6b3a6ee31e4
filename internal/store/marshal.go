package store

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
)

// affinity maps a relational column type to a SQLite column type. Temporal
// types stay TEXT: the driver would otherwise parse them into time.Time.
func affinity(relType string) string {
	switch {
	case strings.HasSuffix(relType, "[]"), relType == "json":
		return "TEXT"
	}
	switch relType {
	case "int", "bigint", "smallint", "boolean":
		return "INTEGER"
	case "float4", "float8":
		return "REAL"
	case "bytea":
		return "BLOB"
	default:
		return "TEXT"
	}
}

// toSQLite converts a relational value to a value the driver stores.
// Collections become JSON TEXT with HTML escaping disabled.
func toSQLite(v any) (any, error) {
	switch t := v.(type) {
	case nil, string, []byte, int64, float64, bool:
		return t, nil
	case int:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case float32:
		return float64(t), nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, errors.Wrapf(err, "marshal %T", v)
	}
	// Encoder adds a trailing newline
	return strings.TrimSpace(buf.String()), nil
}

// fromSQLite converts a scanned value back to its relational form for
// relType.
func fromSQLite(v any, relType string) any {
	switch t := v.(type) {
	case []byte:
		if relType == "bytea" {
			return t
		}
		return string(t)
	case int64:
		if relType == "boolean" {
			return t != 0
		}
	}
	return v
}
