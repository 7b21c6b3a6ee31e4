package marshal

import (
	"encoding/hex"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/roach88/cqlbridge/internal/cqltype"
	"github.com/roach88/cqlbridge/internal/fault"
	"github.com/roach88/cqlbridge/internal/temporal"
)

// Literal renders an encoded (store-native) value as a CQL literal for
// statements that are not prepared. Map entries are ordered by their
// rendered key so output is deterministic.
func Literal(native any, d cqltype.Descriptor) (string, error) {
	if native == nil {
		return "null", nil
	}
	switch t := d.(type) {
	case cqltype.Scalar:
		return scalarLiteral(native, t.Kind)
	case cqltype.List:
		return sequenceLiteral(native, d, "[", "]", func(int) cqltype.Descriptor { return t.Elem })
	case cqltype.Set:
		return sequenceLiteral(native, d, "{", "}", func(int) cqltype.Descriptor { return t.Elem })
	case cqltype.Tuple:
		return sequenceLiteral(native, d, "(", ")", func(i int) cqltype.Descriptor { return t.Elems[i] })
	case cqltype.Map:
		rv := reflect.ValueOf(native)
		if rv.Kind() != reflect.Map {
			return "", fault.NewTypeConversionError(native, d.String(), nil)
		}
		pairs := make([]string, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k, err := Literal(iter.Key().Interface(), t.Key)
			if err != nil {
				return "", err
			}
			v, err := Literal(iter.Value().Interface(), t.Value)
			if err != nil {
				return "", err
			}
			pairs = append(pairs, k+": "+v)
		}
		sort.Strings(pairs)
		return "{" + strings.Join(pairs, ", ") + "}", nil
	default:
		return "", fault.NewTypeConversionError(native, "unknown type", nil)
	}
}

func sequenceLiteral(native any, d cqltype.Descriptor, lbrack, rbrack string, elem func(int) cqltype.Descriptor) (string, error) {
	items, err := nativeSequence(native, d)
	if err != nil {
		return "", err
	}
	if tup, ok := d.(cqltype.Tuple); ok && len(items) != len(tup.Elems) {
		return "", fault.NewTypeConversionError(native, d.String(), nil)
	}
	parts := make([]string, len(items))
	for i, item := range items {
		p, err := Literal(item, elem(i))
		if err != nil {
			return "", err
		}
		parts[i] = p
	}
	return lbrack + strings.Join(parts, ", ") + rbrack, nil
}

// QuoteString renders s as a single-quoted CQL string literal.
func QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func scalarLiteral(native any, k cqltype.Kind) (string, error) {
	switch k {
	case cqltype.KindText, cqltype.KindASCII, cqltype.KindInet, cqltype.KindDate:
		s, err := scalarText(native, k)
		if err != nil {
			return "", err
		}
		return QuoteString(s), nil
	case cqltype.KindTimestamp:
		t, ok := native.(time.Time)
		if !ok {
			return "", fault.NewTypeConversionError(native, k.String(), nil)
		}
		return QuoteString(t.UTC().Format("2006-01-02 15:04:05.000-0700")), nil
	case cqltype.KindTime:
		d, ok := native.(time.Duration)
		if !ok {
			return "", fault.NewTypeConversionError(native, k.String(), nil)
		}
		return QuoteString(strings.TrimSuffix(temporal.FormatTime(d), "+00:00")), nil
	case cqltype.KindBlob:
		b, ok := native.([]byte)
		if !ok {
			return "", fault.NewTypeConversionError(native, k.String(), nil)
		}
		return "0x" + hex.EncodeToString(b), nil
	default:
		return scalarText(native, k)
	}
}
