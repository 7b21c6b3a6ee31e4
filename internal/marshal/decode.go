package marshal

import (
	"encoding/hex"
	"math/big"
	"net"
	"reflect"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"gopkg.in/inf.v0"

	"github.com/roach88/cqlbridge/internal/cqltype"
	"github.com/roach88/cqlbridge/internal/fault"
	"github.com/roach88/cqlbridge/internal/temporal"
)

// Decode converts a store-native value into its relational form for d.
//
//   - timestamp, time: "YYYY-MM-DD HH:MM:SS[.f]+00:00" and "HH:MM:SS[.f]+00:00"
//   - date: "YYYY-MM-DD"
//   - uuid, timeuuid, varint, decimal: canonical text
//   - integers: int64; float, double: float64
//   - blob: []byte, and 0x-prefixed hex inside JSON
//   - list, set: []any of decoded elements
//   - tuple: JSON array text; map: JSON object text
//
// Inside tuple and map JSON, scalar leaves are rendered as strings (see
// Stringify) and nested collections as nested JSON arrays and objects.
func Decode(native any, d cqltype.Descriptor) (any, error) {
	if native == nil {
		return nil, nil
	}
	switch t := d.(type) {
	case cqltype.Scalar:
		return decodeScalar(native, t.Kind)
	case cqltype.List:
		return decodeSequence(native, d, t.Elem)
	case cqltype.Set:
		return decodeSequence(native, d, t.Elem)
	case cqltype.Tuple, cqltype.Map:
		j, err := jsonForm(native, d)
		if err != nil {
			return nil, err
		}
		text, err := marshalJSON(j)
		if err != nil {
			return nil, fault.NewTypeConversionError(native, d.String(), err)
		}
		return text, nil
	default:
		return nil, fault.NewTypeConversionError(native, "unknown type", nil)
	}
}

func decodeSequence(native any, d, elem cqltype.Descriptor) (any, error) {
	items, err := nativeSequence(native, d)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(items))
	for i, item := range items {
		dec, err := Decode(item, elem)
		if err != nil {
			return nil, err
		}
		out[i] = dec
	}
	return out, nil
}

// Stringify renders a native value as the plain text used inside JSON
// carried values: scalars become their textual form, collections become
// their JSON text.
func Stringify(native any, d cqltype.Descriptor) (string, error) {
	if native == nil {
		return "", nil
	}
	if s, ok := d.(cqltype.Scalar); ok {
		return scalarText(native, s.Kind)
	}
	j, err := jsonForm(native, d)
	if err != nil {
		return "", err
	}
	return marshalJSON(j)
}

// jsonForm converts a native value into a JSON-encodable tree with string
// leaves. nil stays nil.
func jsonForm(native any, d cqltype.Descriptor) (any, error) {
	if native == nil {
		return nil, nil
	}
	switch t := d.(type) {
	case cqltype.Scalar:
		return scalarText(native, t.Kind)
	case cqltype.List:
		return jsonSequence(native, d, func(int) cqltype.Descriptor { return t.Elem }, -1)
	case cqltype.Set:
		return jsonSequence(native, d, func(int) cqltype.Descriptor { return t.Elem }, -1)
	case cqltype.Tuple:
		return jsonSequence(native, d, func(i int) cqltype.Descriptor { return t.Elems[i] }, len(t.Elems))
	case cqltype.Map:
		rv := reflect.ValueOf(native)
		if rv.Kind() != reflect.Map {
			return nil, fault.NewTypeConversionError(native, d.String(), nil)
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key, err := Stringify(iter.Key().Interface(), t.Key)
			if err != nil {
				return nil, err
			}
			val, err := jsonForm(iter.Value().Interface(), t.Value)
			if err != nil {
				return nil, err
			}
			out[key] = val
		}
		return out, nil
	default:
		return nil, fault.NewTypeConversionError(native, "unknown type", nil)
	}
}

func jsonSequence(native any, d cqltype.Descriptor, elem func(int) cqltype.Descriptor, arity int) (any, error) {
	items, err := nativeSequence(native, d)
	if err != nil {
		return nil, err
	}
	if arity >= 0 && len(items) != arity {
		return nil, fault.NewTypeConversionError(native, d.String(),
			errors.Newf("expected %d elements, got %d", arity, len(items)))
	}
	out := make([]any, len(items))
	for i, item := range items {
		j, err := jsonForm(item, elem(i))
		if err != nil {
			return nil, err
		}
		out[i] = j
	}
	return out, nil
}

func nativeSequence(native any, d cqltype.Descriptor) ([]any, error) {
	if items, ok := native.([]any); ok {
		return items, nil
	}
	rv := reflect.ValueOf(native)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fault.NewTypeConversionError(native, d.String(), nil)
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}

func decodeScalar(native any, k cqltype.Kind) (any, error) {
	if k.IsInteger() {
		rv := reflect.ValueOf(native)
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return rv.Int(), nil
		}
		return nil, fault.NewTypeConversionError(native, k.String(), nil)
	}
	switch k {
	case cqltype.KindTimestamp, cqltype.KindTime, cqltype.KindDate,
		cqltype.KindUUID, cqltype.KindTimeUUID,
		cqltype.KindVarint, cqltype.KindDecimal, cqltype.KindInet:
		return scalarText(native, k)
	case cqltype.KindDouble:
		if f, ok := native.(float64); ok {
			return f, nil
		}
	case cqltype.KindFloat:
		if f, ok := native.(float32); ok {
			// Go through the shortest float32 text so 1.1 stays 1.1.
			return strconv.ParseFloat(strconv.FormatFloat(float64(f), 'g', -1, 32), 64)
		}
		if f, ok := native.(float64); ok {
			return f, nil
		}
	case cqltype.KindBoolean:
		if b, ok := native.(bool); ok {
			return b, nil
		}
	case cqltype.KindText, cqltype.KindASCII:
		if s, ok := native.(string); ok {
			return s, nil
		}
	case cqltype.KindBlob:
		switch b := native.(type) {
		case []byte:
			return b, nil
		case string:
			return []byte(b), nil
		}
	}
	return nil, fault.NewTypeConversionError(native, k.String(), nil)
}

// scalarText renders a native scalar as text. Temporal kinds use the
// relational forms from the temporal package. Blobs render as 0x-prefixed
// hex so the text stays valid UTF-8.
func scalarText(native any, k cqltype.Kind) (string, error) {
	if k.IsInteger() {
		return integerText(native, k)
	}
	switch k {
	case cqltype.KindTimestamp:
		if t, ok := native.(time.Time); ok {
			return temporal.FormatTimestamp(t), nil
		}
	case cqltype.KindDate:
		if t, ok := native.(time.Time); ok {
			return temporal.FormatDate(t), nil
		}
	case cqltype.KindTime:
		if d, ok := native.(time.Duration); ok {
			return temporal.FormatTime(d), nil
		}
	case cqltype.KindUUID, cqltype.KindTimeUUID:
		switch u := native.(type) {
		case uuid.UUID:
			return u.String(), nil
		case [16]byte:
			return uuid.UUID(u).String(), nil
		case string:
			return u, nil
		}
	case cqltype.KindVarint:
		if n, ok := native.(*big.Int); ok {
			return n.String(), nil
		}
		return integerText(native, k)
	case cqltype.KindDecimal:
		if d, ok := native.(*inf.Dec); ok {
			return d.String(), nil
		}
	case cqltype.KindInet:
		switch ip := native.(type) {
		case net.IP:
			return ip.String(), nil
		case string:
			return ip, nil
		}
	case cqltype.KindDouble:
		if f, ok := native.(float64); ok {
			return strconv.FormatFloat(f, 'g', -1, 64), nil
		}
	case cqltype.KindFloat:
		if f, ok := native.(float32); ok {
			return strconv.FormatFloat(float64(f), 'g', -1, 32), nil
		}
	case cqltype.KindBoolean:
		if b, ok := native.(bool); ok {
			return strconv.FormatBool(b), nil
		}
	case cqltype.KindText, cqltype.KindASCII:
		if s, ok := native.(string); ok {
			return s, nil
		}
	case cqltype.KindBlob:
		switch b := native.(type) {
		case []byte:
			return blobText(b), nil
		case string:
			return blobText([]byte(b)), nil
		}
	}
	return "", fault.NewTypeConversionError(native, k.String(), nil)
}

func blobText(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

func integerText(native any, k cqltype.Kind) (string, error) {
	rv := reflect.ValueOf(native)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	}
	return "", fault.NewTypeConversionError(native, k.String(), nil)
}
