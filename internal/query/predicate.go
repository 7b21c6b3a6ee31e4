package query

import (
	"fmt"
	"strings"

	"github.com/roach88/cqlbridge/internal/fault"
)

// Operator is a predicate comparison.
type Operator int

const (
	OpEq Operator = iota + 1
	OpIn
	OpGt
	OpLt
	OpGe
	OpLe
	// OpContains matches values containing the operand as a substring.
	OpContains
	// OpLike matches a LIKE pattern passed through verbatim.
	OpLike
)

var operatorNames = map[Operator]string{
	OpEq:       "=",
	OpIn:       "IN",
	OpGt:       ">",
	OpLt:       "<",
	OpGe:       ">=",
	OpLe:       "<=",
	OpContains: "~",
	OpLike:     "~~",
}

// String returns the operator's textual form.
func (o Operator) String() string {
	if s, ok := operatorNames[o]; ok {
		return s
	}
	return fmt.Sprintf("Operator(%d)", int(o))
}

// IsRange reports whether o is one of >, <, >=, <=.
func (o Operator) IsRange() bool {
	return o == OpGt || o == OpLt || o == OpGe || o == OpLe
}

// ParseOperator resolves an operator from its textual form. Besides the
// String spellings it accepts "in", "contains" and "like".
func ParseOperator(s string) (Operator, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "=", "==", "eq":
		return OpEq, nil
	case "in":
		return OpIn, nil
	case ">":
		return OpGt, nil
	case "<":
		return OpLt, nil
	case ">=":
		return OpGe, nil
	case "<=":
		return OpLe, nil
	case "~", "contains":
		return OpContains, nil
	case "~~", "like":
		return OpLike, nil
	}
	return 0, &fault.Error{Code: fault.CodeFormat, Message: fmt.Sprintf("unknown operator %q", s)}
}

// Predicate restricts one column. Value is a scalar, or a sequence for OpIn.
// A nil Value compares against null.
type Predicate struct {
	Field string
	Op    Operator
	Value any
}

func (p Predicate) String() string {
	return fmt.Sprintf("%s %s %v", p.Field, p.Op, p.Value)
}

// PathKey is one candidate access path: the columns a predicate set must
// bind and the relative cost of answering it that way.
type PathKey struct {
	Columns []string
	Cost    int
}
