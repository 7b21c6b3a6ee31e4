package marshal

import (
	"bytes"
	"encoding/json"
	"strings"
)

// marshalJSON renders v as compact JSON text.
// HTML escaping is disabled so text values survive unchanged.
func marshalJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// unmarshalJSON parses JSON text keeping numbers as json.Number so integer
// and decimal precision is not lost to float64.
func unmarshalJSON(text string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
