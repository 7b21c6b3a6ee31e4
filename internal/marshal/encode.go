package marshal

import (
	"encoding/hex"
	"encoding/json"
	"math/big"
	"net"
	"reflect"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"golang.org/x/exp/constraints"
	"gopkg.in/inf.v0"

	"github.com/roach88/cqlbridge/internal/cqltype"
	"github.com/roach88/cqlbridge/internal/fault"
	"github.com/roach88/cqlbridge/internal/temporal"
)

// Encode converts a relational value into the store-native value for d.
//
// nil encodes to nil at every depth. Collections accept Go slices and maps
// of any element type, or JSON text (tuples and maps always arrive as JSON
// text from the relational side). Scalars are converted through their
// textual form unless a fast path applies (time.Time, time.Duration, []byte,
// uuid.UUID).
func Encode(v any, d cqltype.Descriptor) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch t := d.(type) {
	case cqltype.Scalar:
		return encodeScalar(v, t.Kind)
	case cqltype.List:
		return encodeSequence(v, d, func(int) cqltype.Descriptor { return t.Elem }, -1)
	case cqltype.Set:
		return encodeSequence(v, d, func(int) cqltype.Descriptor { return t.Elem }, -1)
	case cqltype.Tuple:
		return encodeSequence(v, d, func(i int) cqltype.Descriptor { return t.Elems[i] }, len(t.Elems))
	case cqltype.Map:
		return encodeMap(v, t)
	default:
		return nil, fault.NewTypeConversionError(v, "unknown type", nil)
	}
}

// encodeSequence encodes list, set and tuple values. arity is the required
// element count, or -1 for any.
func encodeSequence(v any, d cqltype.Descriptor, elem func(int) cqltype.Descriptor, arity int) (any, error) {
	items, err := sequenceOf(v, d)
	if err != nil {
		return nil, err
	}
	if arity >= 0 && len(items) != arity {
		return nil, fault.NewTypeConversionError(v, d.String(),
			errors.Newf("expected %d elements, got %d", arity, len(items)))
	}
	out := make([]any, len(items))
	for i, item := range items {
		enc, err := Encode(item, elem(i))
		if err != nil {
			return nil, err
		}
		out[i] = enc
	}
	return out, nil
}

func encodeMap(v any, m cqltype.Map) (any, error) {
	entries, err := mapOf(v, m)
	if err != nil {
		return nil, err
	}
	out := make(map[any]any, len(entries))
	for _, e := range entries {
		key, err := Encode(e.key, m.Key)
		if err != nil {
			return nil, err
		}
		switch k := key.(type) {
		case nil:
			return nil, fault.NewTypeConversionError(v, m.String(), errors.New("null map key"))
		case []byte:
			key = string(k)
		case []any, map[any]any:
			return nil, fault.NewTypeConversionError(v, m.String(), errors.New("collection map keys are not supported"))
		}
		val, err := Encode(e.value, m.Value)
		if err != nil {
			return nil, err
		}
		out[key] = val
	}
	return out, nil
}

type entry struct {
	key, value any
}

// sequenceOf returns the elements of a slice, array or JSON array text.
func sequenceOf(v any, d cqltype.Descriptor) ([]any, error) {
	switch t := v.(type) {
	case []any:
		return t, nil
	case string:
		parsed, err := unmarshalJSON(t)
		if err != nil {
			return nil, fault.NewTypeConversionError(v, d.String(), err)
		}
		arr, ok := parsed.([]any)
		if !ok {
			return nil, fault.NewTypeConversionError(v, d.String(), errors.New("expected a JSON array"))
		}
		return arr, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fault.NewTypeConversionError(v, d.String(), nil)
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}

// mapOf returns the entries of a map or JSON object text.
func mapOf(v any, m cqltype.Map) ([]entry, error) {
	if s, ok := v.(string); ok {
		parsed, err := unmarshalJSON(s)
		if err != nil {
			return nil, fault.NewTypeConversionError(v, m.String(), err)
		}
		obj, ok := parsed.(map[string]any)
		if !ok {
			return nil, fault.NewTypeConversionError(v, m.String(), errors.New("expected a JSON object"))
		}
		v = obj
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map {
		return nil, fault.NewTypeConversionError(v, m.String(), nil)
	}
	out := make([]entry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out = append(out, entry{key: iter.Key().Interface(), value: iter.Value().Interface()})
	}
	return out, nil
}

func encodeScalar(v any, k cqltype.Kind) (any, error) {
	switch t := v.(type) {
	case time.Time:
		switch k {
		case cqltype.KindTimestamp:
			return t.UTC(), nil
		case cqltype.KindDate:
			u := t.UTC()
			return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC), nil
		case cqltype.KindTime:
			u := t.UTC()
			return u.Sub(time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)), nil
		}
	case time.Duration:
		if k == cqltype.KindTime {
			return t, nil
		}
	case []byte:
		if k == cqltype.KindBlob {
			return t, nil
		}
		v = string(t)
	case uuid.UUID:
		if k == cqltype.KindUUID || k == cqltype.KindTimeUUID {
			return t, nil
		}
	}

	s, err := textOf(v)
	if err != nil {
		return nil, fault.NewTypeConversionError(v, k.String(), err)
	}
	out, err := parseScalar(s, k)
	if err != nil {
		if fault.IsFormatError(err) {
			return nil, err
		}
		return nil, fault.NewTypeConversionError(v, k.String(), err)
	}
	return out, nil
}

// parseScalar converts the textual form s into the native value for k.
func parseScalar(s string, k cqltype.Kind) (any, error) {
	switch k {
	case cqltype.KindUUID, cqltype.KindTimeUUID:
		return uuid.Parse(s)
	case cqltype.KindBigint, cqltype.KindCounter:
		return parseInt[int64](s, 64)
	case cqltype.KindInt:
		return parseInt[int32](s, 32)
	case cqltype.KindSmallint:
		return parseInt[int16](s, 16)
	case cqltype.KindTinyint:
		return parseInt[int8](s, 8)
	case cqltype.KindVarint:
		n, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, errors.Newf("invalid varint %q", s)
		}
		return n, nil
	case cqltype.KindDecimal:
		d, ok := new(inf.Dec).SetString(s)
		if !ok {
			return nil, errors.Newf("invalid decimal %q", s)
		}
		return d, nil
	case cqltype.KindDouble:
		return strconv.ParseFloat(s, 64)
	case cqltype.KindFloat:
		f, err := strconv.ParseFloat(s, 32)
		return float32(f), err
	case cqltype.KindBoolean:
		return strconv.ParseBool(s)
	case cqltype.KindTimestamp:
		return temporal.ParseTimestamp(s)
	case cqltype.KindTime:
		return temporal.ParseTime(s)
	case cqltype.KindDate:
		return temporal.ParseDate(s)
	case cqltype.KindInet:
		if net.ParseIP(s) == nil {
			return nil, errors.Newf("invalid inet address %q", s)
		}
		return s, nil
	case cqltype.KindText, cqltype.KindASCII:
		return s, nil
	case cqltype.KindBlob:
		return parseBlob(s), nil
	default:
		return nil, errors.Newf("unsupported kind %s", k)
	}
}

// parseBlob accepts the 0x-prefixed hex form produced for blob text and
// takes any other string as raw bytes.
func parseBlob(s string) []byte {
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		if b, err := hex.DecodeString(s[2:]); err == nil {
			return b
		}
	}
	return []byte(s)
}

func parseInt[T constraints.Signed](s string, bitSize int) (T, error) {
	n, err := strconv.ParseInt(s, 10, bitSize)
	if err != nil {
		return 0, err
	}
	return T(n), nil
}

// textOf renders a scalar relational value in its textual form.
func textOf(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case bool:
		return strconv.FormatBool(t), nil
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case *big.Int:
		return t.String(), nil
	case *inf.Dec:
		return t.String(), nil
	case time.Time:
		return temporal.FormatTimestamp(t), nil
	case interface{ String() string }:
		return t.String(), nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.String:
		return rv.String(), nil
	}
	return "", errors.Newf("%T is not a scalar", v)
}
