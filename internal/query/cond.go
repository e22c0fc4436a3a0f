package query

import (
	"fmt"
	"strings"
)

type condKind int

const (
	condEq condKind = iota
	condNot
	condIn
	condNull
	condNotNull
	condRaw
)

// Cond is a single predicate passed to Builder.Where.
type Cond struct {
	kind  condKind
	field string
	args  []any
	raw   string
}

// Eq matches rows where field equals v.
func Eq(field string, v any) Cond { return Cond{kind: condEq, field: field, args: []any{v}} }

// Not matches rows where field differs from v.
func Not(field string, v any) Cond { return Cond{kind: condNot, field: field, args: []any{v}} }

// In matches rows where field is one of vs. An empty list matches nothing.
func In(field string, vs ...any) Cond { return Cond{kind: condIn, field: field, args: vs} }

// IsNull matches rows where field is NULL.
func IsNull(field string) Cond { return Cond{kind: condNull, field: field} }

// NotNull matches rows where field is not NULL.
func NotNull(field string) Cond { return Cond{kind: condNotNull, field: field} }

// Raw is an escape hatch for predicates the helpers cannot express.
// The SQL must use fully qualified columns and ? placeholders.
func Raw(sql string, args ...any) Cond { return Cond{kind: condRaw, raw: sql, args: args} }

// Int64s widens ids for In.
func Int64s(ids []int64) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

func (c Cond) render(col func(string) (string, bool)) (string, []any, error) {
	if c.kind == condRaw {
		return "(" + c.raw + ")", c.args, nil
	}
	column, ok := col(c.field)
	if !ok {
		return "", nil, fmt.Errorf("%w: %q", ErrUnknownField, c.field)
	}
	switch c.kind {
	case condEq:
		return column + " = ?", c.args, nil
	case condNot:
		return column + " <> ?", c.args, nil
	case condNull:
		return column + " IS NULL", nil, nil
	case condNotNull:
		return column + " IS NOT NULL", nil, nil
	default:
		if len(c.args) == 0 {
			return "1 = 0", nil, nil
		}
		marks := strings.TrimSuffix(strings.Repeat("?, ", len(c.args)), ", ")
		return column + " IN (" + marks + ")", c.args, nil
	}
}
