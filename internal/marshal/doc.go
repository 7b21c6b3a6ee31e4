// Package marshal converts values between the relational row representation
// and the CQL store's native representation.
//
// Encode and Decode are mutually recursive over cqltype.Descriptor. A nil
// value short-circuits to nil at any depth. Encode produces the values the
// driver binds:
//
//	uuid, timeuuid      uuid.UUID
//	bigint, counter     int64
//	int/smallint/tiny   int32/int16/int8
//	varint, decimal     *big.Int, *inf.Dec
//	double, float       float64, float32
//	timestamp, date     time.Time (UTC)
//	time                time.Duration since midnight
//	list, set, tuple    []any
//	map                 map[any]any
//
// Decode produces plain relational forms: text for temporal, uuid and
// arbitrary-precision kinds, and JSON text for tuples and maps. Literal
// renders encoded values as CQL literals for unprepared statements.
package marshal
