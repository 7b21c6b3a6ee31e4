package cli

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/roach88/cqlbridge/internal/query"
)

// parseWhere turns --where clauses of the form "field op value" into
// predicates. The value is everything after the operator; "null" is the
// null value and IN lists are comma separated. Values stay text and are
// converted to the column type by the compiler.
func parseWhere(clauses []string) ([]query.Predicate, error) {
	preds := make([]query.Predicate, 0, len(clauses))
	for _, clause := range clauses {
		fields := strings.Fields(clause)
		if len(fields) < 3 {
			return nil, errors.Newf("where %q: expected \"field op value\"", clause)
		}
		op, err := query.ParseOperator(fields[1])
		if err != nil {
			return nil, errors.Wrapf(err, "where %q", clause)
		}
		raw := strings.TrimSpace(clause)
		raw = strings.TrimSpace(strings.TrimPrefix(raw, fields[0]))
		raw = strings.TrimSpace(strings.TrimPrefix(raw, fields[1]))

		preds = append(preds, query.Predicate{
			Field: fields[0],
			Op:    op,
			Value: whereValue(op, raw),
		})
	}
	return preds, nil
}

func whereValue(op query.Operator, raw string) any {
	if strings.EqualFold(raw, "null") {
		return nil
	}
	if op != query.OpIn {
		return unquote(raw)
	}
	parts := strings.Split(raw, ",")
	out := make([]any, len(parts))
	for i, p := range parts {
		out[i] = unquote(strings.TrimSpace(p))
	}
	return out
}

// unquote strips one pair of matching single or double quotes.
func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
