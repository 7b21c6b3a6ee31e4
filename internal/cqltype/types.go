package cqltype

import (
	"fmt"
	"strings"
)

// Kind enumerates the scalar CQL types the bridge understands.
type Kind int

const (
	KindUUID Kind = iota + 1
	KindBigint
	KindBoolean
	KindDecimal
	KindDouble
	KindFloat
	KindInt
	KindTimestamp
	KindTimeUUID
	KindText
	KindInet
	KindCounter
	KindVarint
	KindBlob
	KindASCII
	KindTinyint
	KindSmallint
	KindTime
	KindDate
)

var kindNames = map[Kind]string{
	KindUUID:      "uuid",
	KindBigint:    "bigint",
	KindBoolean:   "boolean",
	KindDecimal:   "decimal",
	KindDouble:    "double",
	KindFloat:     "float",
	KindInt:       "int",
	KindTimestamp: "timestamp",
	KindTimeUUID:  "timeuuid",
	KindText:      "text",
	KindInet:      "inet",
	KindCounter:   "counter",
	KindVarint:    "varint",
	KindBlob:      "blob",
	KindASCII:     "ascii",
	KindTinyint:   "tinyint",
	KindSmallint:  "smallint",
	KindTime:      "time",
	KindDate:      "date",
}

var kindsByName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames)+1)
	for k, name := range kindNames {
		m[name] = k
	}
	m["varchar"] = KindText
	return m
}()

// String returns the CQL spelling of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind resolves a scalar CQL type name. "varchar" is an alias of text.
func ParseKind(name string) (Kind, bool) {
	k, ok := kindsByName[strings.ToLower(strings.TrimSpace(name))]
	return k, ok
}

// IsInteger reports whether values of the kind are fixed-width integers.
func (k Kind) IsInteger() bool {
	switch k {
	case KindBigint, KindCounter, KindInt, KindSmallint, KindTinyint:
		return true
	}
	return false
}

// Descriptor is a recursive CQL type.
//
// This is a sealed interface - only Scalar, List, Set, Map and Tuple
// implement it, so converters can switch exhaustively over the variants.
// Descriptors are immutable once built.
type Descriptor interface {
	descriptor()

	// String renders the descriptor in CQL syntax, e.g. "map<text, int>".
	String() string
}

// Scalar is a non-collection type.
type Scalar struct {
	Kind Kind
}

// List is an ordered collection.
type List struct {
	Elem Descriptor
}

// Set is an unordered collection of unique elements.
type Set struct {
	Elem Descriptor
}

// Map is a key/value collection.
type Map struct {
	Key   Descriptor
	Value Descriptor
}

// Tuple is a fixed-arity positional record.
type Tuple struct {
	Elems []Descriptor
}

func (Scalar) descriptor() {}
func (List) descriptor()   {}
func (Set) descriptor()    {}
func (Map) descriptor()    {}
func (Tuple) descriptor()  {}

func (s Scalar) String() string { return s.Kind.String() }
func (l List) String() string   { return "list<" + l.Elem.String() + ">" }
func (s Set) String() string    { return "set<" + s.Elem.String() + ">" }
func (m Map) String() string {
	return "map<" + m.Key.String() + ", " + m.Value.String() + ">"
}

func (t Tuple) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	return "tuple<" + strings.Join(parts, ", ") + ">"
}

