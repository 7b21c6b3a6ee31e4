package cqltype

import (
	"strings"

	"github.com/roach88/cqlbridge/internal/fault"
)

// Parse builds a Descriptor from a CQL type string as reported by the
// metadata service, e.g. "frozen<map<text, frozen<set<int>>>>". The frozen
// wrapper is transparent. User-defined types, duration and vector types are
// rejected with a SCHEMA error.
func Parse(validator string) (Descriptor, error) {
	p := strings.TrimSpace(validator)
	if p == "" {
		return nil, fault.NewSchemaError("empty type")
	}

	name, args, generic, err := splitGeneric(p)
	if err != nil {
		return nil, err
	}
	if !generic {
		k, ok := ParseKind(name)
		if !ok {
			return nil, fault.NewSchemaError("unsupported type %q", validator)
		}
		return Scalar{Kind: k}, nil
	}

	elems := make([]Descriptor, 0, len(args))
	for _, a := range args {
		d, err := Parse(a)
		if err != nil {
			return nil, err
		}
		elems = append(elems, d)
	}

	switch strings.ToLower(name) {
	case "frozen":
		if len(elems) != 1 {
			return nil, fault.NewSchemaError("frozen takes one type argument: %q", validator)
		}
		return elems[0], nil
	case "list":
		if len(elems) != 1 {
			return nil, fault.NewSchemaError("list takes one type argument: %q", validator)
		}
		return List{Elem: elems[0]}, nil
	case "set":
		if len(elems) != 1 {
			return nil, fault.NewSchemaError("set takes one type argument: %q", validator)
		}
		return Set{Elem: elems[0]}, nil
	case "map":
		if len(elems) != 2 {
			return nil, fault.NewSchemaError("map takes two type arguments: %q", validator)
		}
		return Map{Key: elems[0], Value: elems[1]}, nil
	case "tuple":
		if len(elems) == 0 {
			return nil, fault.NewSchemaError("tuple needs at least one type argument: %q", validator)
		}
		return Tuple{Elems: elems}, nil
	default:
		return nil, fault.NewSchemaError("unsupported type %q", validator)
	}
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level fixtures.
func MustParse(validator string) Descriptor {
	d, err := Parse(validator)
	if err != nil {
		panic(err)
	}
	return d
}

// splitGeneric separates "name<a, b<c, d>>" into its name and top-level
// arguments. Commas nested inside angle brackets do not split.
func splitGeneric(s string) (name string, args []string, generic bool, err error) {
	open := strings.IndexByte(s, '<')
	if open < 0 {
		if strings.ContainsAny(s, ">,") {
			return "", nil, false, fault.NewSchemaError("malformed type %q", s)
		}
		return s, nil, false, nil
	}
	if !strings.HasSuffix(s, ">") {
		return "", nil, false, fault.NewSchemaError("unterminated type %q", s)
	}
	name = strings.TrimSpace(s[:open])
	inner := s[open+1 : len(s)-1]

	depth := 0
	start := 0
	for i, c := range inner {
		switch c {
		case '<':
			depth++
		case '>':
			depth--
			if depth < 0 {
				return "", nil, false, fault.NewSchemaError("unbalanced type %q", s)
			}
		case ',':
			if depth == 0 {
				args = append(args, inner[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return "", nil, false, fault.NewSchemaError("unbalanced type %q", s)
	}
	args = append(args, inner[start:])
	return name, args, true, nil
}
