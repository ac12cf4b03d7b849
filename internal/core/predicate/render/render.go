// Package render translates predicate trees into parameterized SQL for a
// specific store dialect
package render

import (
	"fmt"
	"strings"

	"insightsdb/internal/core/predicate"
	perr "insightsdb/internal/platform/errors"
)

// ColumnKind is the storage shape of a column
type ColumnKind uint8

const (
	// Text is a scalar string column
	Text ColumnKind = iota
	// TextArray is a string array column
	TextArray
	// Number is a numeric column
	Number
	// Time is a timestamp column compared as unix seconds
	Time
)

// Column maps a field to a SQL expression
type Column struct {
	Expr string
	Kind ColumnKind
}

// Schema resolves field names to columns
type Schema interface {
	Column(field string) (Column, bool)
}

// Columns is a map backed Schema
type Columns map[string]Column

// Column implements Schema
func (c Columns) Column(field string) (Column, bool) {
	col, ok := c[field]
	return col, ok
}

// Dialect knows the leaf syntax of one store
type Dialect interface {
	Name() string
	placeholder(n int) string
	in(col Column, ph string) string
	like(col Column, ph string) string
	likeArg(op predicate.MatchOp, v string) any
	cmp(col Column, op predicate.CmpOp, ph string) string
	cmpArg(col Column, v float64) any
	isNull(col Column) string
	// nullSafe wraps a negated child so null children evaluate false before negation
	nullSafe(sql string) string
}

// Renderer renders predicate trees against one schema and dialect
type Renderer struct {
	Dialect Dialect
	Schema  Schema
}

// Render appends the args needed by n to args and returns the SQL condition
// unknown fields and unsupported operators are configuration errors
func (r Renderer) Render(n predicate.Node, args []any) (string, []any, error) {
	w := &writer{r: r, args: args}
	sql, err := w.node(n)
	if err != nil {
		return "", args, err
	}
	return sql, w.args, nil
}

// Where is Render with an empty arg list
func (r Renderer) Where(n predicate.Node) (string, []any, error) {
	return r.Render(n, nil)
}

type writer struct {
	r    Renderer
	args []any
}

func (w *writer) bind(v any) string {
	w.args = append(w.args, v)
	return w.r.Dialect.placeholder(len(w.args))
}

func (w *writer) column(field string) (Column, error) {
	col, ok := w.r.Schema.Column(field)
	if !ok {
		return Column{}, perr.Configf("unknown filter field %q", field)
	}
	return col, nil
}

func (w *writer) node(n predicate.Node) (string, error) {
	d := w.r.Dialect
	switch x := n.(type) {
	case nil:
		return "TRUE", nil
	case predicate.Const:
		if x {
			return "TRUE", nil
		}
		return "FALSE", nil
	case predicate.And:
		return w.list(x, " AND ", "TRUE")
	case predicate.Or:
		return w.list(x, " OR ", "FALSE")
	case predicate.Not:
		inner, err := w.node(x.X)
		if err != nil {
			return "", err
		}
		return "NOT " + d.nullSafe(inner), nil
	case predicate.In:
		col, err := w.column(x.Field)
		if err != nil {
			return "", err
		}
		if len(x.Values) == 0 {
			return "FALSE", nil
		}
		if col.Kind != Text && col.Kind != TextArray {
			return "", perr.Configf("field %q does not support value lists", x.Field)
		}
		vals := append([]string(nil), x.Values...)
		return d.in(col, w.bind(vals)), nil
	case predicate.Match:
		col, err := w.column(x.Field)
		if err != nil {
			return "", err
		}
		if col.Kind != Text && col.Kind != TextArray {
			return "", perr.Configf("field %q does not support partial match", x.Field)
		}
		if _, err := predicate.ParseMatchOp(string(x.Op)); err != nil {
			return "", perr.Wrap(err, perr.ErrorCodeConfiguration, "bad partial match")
		}
		return d.like(col, w.bind(d.likeArg(x.Op, x.Value))), nil
	case predicate.Cmp:
		col, err := w.column(x.Field)
		if err != nil {
			return "", err
		}
		if col.Kind != Number && col.Kind != Time {
			return "", perr.Configf("field %q does not support ranges", x.Field)
		}
		switch x.Op {
		case predicate.Lt, predicate.Lte, predicate.Gt, predicate.Gte:
		default:
			return "", perr.Configf("unknown comparison %q", x.Op)
		}
		return d.cmp(col, x.Op, w.bind(d.cmpArg(col, x.Value))), nil
	case predicate.IsNull:
		col, err := w.column(x.Field)
		if err != nil {
			return "", err
		}
		return d.isNull(col), nil
	default:
		return "", perr.Configf("unsupported predicate node %T", n)
	}
}

func (w *writer) list(nodes []predicate.Node, sep, empty string) (string, error) {
	if len(nodes) == 0 {
		return empty, nil
	}
	parts := make([]string, 0, len(nodes))
	for _, c := range nodes {
		s, err := w.node(c)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return "(" + strings.Join(parts, sep) + ")", nil
}

// escapeLike escapes LIKE metacharacters so values match literally
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func likePattern(op predicate.MatchOp, v string) string {
	v = escapeLike(v)
	switch op {
	case predicate.MatchBegins:
		return v + "%"
	case predicate.MatchEnds:
		return "%" + v
	default:
		return "%" + v + "%"
	}
}

func sqlOp(op predicate.CmpOp) string {
	return fmt.Sprintf(" %s ", op)
}
