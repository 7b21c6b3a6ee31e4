package cqltype

// RelationalType returns the column type used for d on the relational side
// when importing table definitions.
//
// Tuples and maps are carried as JSON text, lists and sets as arrays of the
// element's relational type. varint maps to numeric because its range is
// unbounded.
func RelationalType(d Descriptor) string {
	switch t := d.(type) {
	case Tuple, Map:
		return "json"
	case List:
		return RelationalType(t.Elem) + "[]"
	case Set:
		return RelationalType(t.Elem) + "[]"
	case Scalar:
		return scalarRelational(t.Kind)
	default:
		return "text"
	}
}

func scalarRelational(k Kind) string {
	switch k {
	case KindASCII, KindBlob:
		return "bytea"
	case KindDouble:
		return "float8"
	case KindFloat:
		return "float4"
	case KindTime:
		return "timetz"
	case KindTimestamp:
		return "timestamptz"
	case KindTimeUUID, KindUUID:
		return "uuid"
	case KindTinyint, KindSmallint:
		return "smallint"
	case KindVarint, KindDecimal:
		return "numeric"
	case KindCounter, KindBigint:
		return "bigint"
	case KindInt:
		return "int"
	case KindBoolean:
		return "boolean"
	case KindDate:
		return "date"
	case KindInet:
		return "inet"
	default:
		return "text"
	}
}
