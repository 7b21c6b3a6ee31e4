package rowcodec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/roach88/cqlbridge/internal/fault"
)

// RowIDColumn is the synthetic column carrying the row identifier. It is
// never stored and never projected from the store.
const RowIDColumn = "__rowid__"

// EncodeRowID renders key values as a compact JSON array of strings.
func EncodeRowID(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(values); err != nil {
		return "", errors.Wrap(err, "encode row id")
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// DecodeRowID parses a row identifier and checks it holds exactly n values.
// Numeric and boolean elements are accepted and returned in their JSON
// text; null elements are rejected because key columns cannot be null.
func DecodeRowID(id string, n int) ([]string, error) {
	dec := json.NewDecoder(strings.NewReader(id))
	dec.UseNumber()
	var raw []any
	if err := dec.Decode(&raw); err != nil {
		return nil, &fault.Error{Code: fault.CodeFormat, Message: "malformed row id " + strconv.Quote(id), Err: err}
	}
	if dec.More() {
		return nil, fault.NewFormatError(id, "trailing data after row id")
	}
	if len(raw) != n {
		return nil, fault.NewFormatError(id, fmt.Sprintf("row id has %d values, want %d", len(raw), n))
	}
	out := make([]string, n)
	for i, v := range raw {
		switch t := v.(type) {
		case string:
			out[i] = t
		case json.Number:
			out[i] = t.String()
		case bool:
			out[i] = strconv.FormatBool(t)
		default:
			return nil, fault.NewFormatError(id, fmt.Sprintf("row id value %d is not a scalar", i))
		}
	}
	return out, nil
}
