// Package predicate models row filters as an explicit tree of typed conditions.
// A tree is built once per request, evaluated in memory through Eval, and
// translated to a store dialect by the render subpackage
package predicate

import (
	"fmt"
	"strings"
)

// Getter exposes the field values of one record to a predicate
// a field with no values is null
type Getter interface {
	Values(field string) []string
	Number(field string) (float64, bool)
}

// Node is one condition in a predicate tree
type Node interface {
	Eval(g Getter) bool
	node()
}

// MatchOp is a partial string match operator
type MatchOp string

const (
	// MatchBegins matches values with the given prefix
	MatchBegins MatchOp = "begins"
	// MatchEnds matches values with the given suffix
	MatchEnds MatchOp = "ends"
	// MatchContains matches values containing the given substring
	MatchContains MatchOp = "contains"
)

// ParseMatchOp accepts begins, ends, contains with or without a leading $
func ParseMatchOp(s string) (MatchOp, error) {
	switch op := MatchOp(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "$")); op {
	case MatchBegins, MatchEnds, MatchContains:
		return op, nil
	default:
		return "", fmt.Errorf("unknown partial match operator %q", s)
	}
}

// CmpOp is a numeric comparison operator
type CmpOp string

const (
	Lt  CmpOp = "<"
	Lte CmpOp = "<="
	Gt  CmpOp = ">"
	Gte CmpOp = ">="
)

type (
	// Const is a literal truth value
	Const bool

	// And is true when every child is true; an empty And is true
	And []Node

	// Or is true when any child is true; an empty Or is false
	Or []Node

	// Not negates its child
	Not struct{ X Node }

	// In is true when any of the field's values is in Values
	// a null field is never in the set
	In struct {
		Field  string
		Values []string
	}

	// Match is a partial string match against any of the field's values
	Match struct {
		Field string
		Op    MatchOp
		Value string
	}

	// Cmp compares a numeric or time field against Value
	// time fields compare as unix seconds; a null field never compares true
	Cmp struct {
		Field string
		Op    CmpOp
		Value float64
	}

	// IsNull is true when the field has no value
	IsNull struct{ Field string }
)

func (Const) node()  {}
func (And) node()    {}
func (Or) node()     {}
func (Not) node()    {}
func (In) node()     {}
func (Match) node()  {}
func (Cmp) node()    {}
func (IsNull) node() {}

// True and False are the two constants
var (
	True  Node = Const(true)
	False Node = Const(false)
)

func (c Const) Eval(Getter) bool { return bool(c) }

func (a And) Eval(g Getter) bool {
	for _, n := range a {
		if !n.Eval(g) {
			return false
		}
	}
	return true
}

func (o Or) Eval(g Getter) bool {
	for _, n := range o {
		if n.Eval(g) {
			return true
		}
	}
	return false
}

func (n Not) Eval(g Getter) bool { return !n.X.Eval(g) }

func (in In) Eval(g Getter) bool {
	for _, v := range g.Values(in.Field) {
		for _, want := range in.Values {
			if v == want {
				return true
			}
		}
	}
	return false
}

func (m Match) Eval(g Getter) bool {
	for _, v := range g.Values(m.Field) {
		if m.matches(v) {
			return true
		}
	}
	return false
}

func (m Match) matches(v string) bool {
	switch m.Op {
	case MatchBegins:
		return strings.HasPrefix(v, m.Value)
	case MatchEnds:
		return strings.HasSuffix(v, m.Value)
	case MatchContains:
		return strings.Contains(v, m.Value)
	default:
		return false
	}
}

func (c Cmp) Eval(g Getter) bool {
	v, ok := g.Number(c.Field)
	if !ok {
		return false
	}
	switch c.Op {
	case Lt:
		return v < c.Value
	case Lte:
		return v <= c.Value
	case Gt:
		return v > c.Value
	case Gte:
		return v >= c.Value
	default:
		return false
	}
}

func (n IsNull) Eval(g Getter) bool {
	if _, ok := g.Number(n.Field); ok {
		return false
	}
	return len(g.Values(n.Field)) == 0
}

// AllOf builds a conjunction, flattening nested Ands and dropping true constants
// a false constant short circuits to False
func AllOf(nodes ...Node) Node {
	out := make(And, 0, len(nodes))
	for _, n := range nodes {
		switch x := n.(type) {
		case nil:
			continue
		case Const:
			if !x {
				return False
			}
		case And:
			for _, c := range x {
				if c := AllOf(c); c != True {
					if c == False {
						return False
					}
					out = append(out, c)
				}
			}
		default:
			out = append(out, n)
		}
	}
	switch len(out) {
	case 0:
		return True
	case 1:
		return out[0]
	}
	return out
}

// AnyOf builds a disjunction, flattening nested Ors and dropping false constants
// a true constant short circuits to True
func AnyOf(nodes ...Node) Node {
	out := make(Or, 0, len(nodes))
	for _, n := range nodes {
		switch x := n.(type) {
		case nil:
			continue
		case Const:
			if x {
				return True
			}
		case Or:
			for _, c := range x {
				if c := AnyOf(c); c != False {
					if c == True {
						return True
					}
					out = append(out, c)
				}
			}
		default:
			out = append(out, n)
		}
	}
	switch len(out) {
	case 0:
		return False
	case 1:
		return out[0]
	}
	return out
}

// Negate wraps n in Not, folding constants and double negation
func Negate(n Node) Node {
	switch x := n.(type) {
	case nil:
		return False
	case Const:
		return Const(!x)
	case Not:
		return x.X
	}
	return Not{X: n}
}

// Fields returns the distinct field names referenced by n in first-seen order
func Fields(n Node) []string {
	seen := map[string]bool{}
	var out []string
	add := func(f string) {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	var walk func(Node)
	walk = func(n Node) {
		switch x := n.(type) {
		case And:
			for _, c := range x {
				walk(c)
			}
		case Or:
			for _, c := range x {
				walk(c)
			}
		case Not:
			walk(x.X)
		case In:
			add(x.Field)
		case Match:
			add(x.Field)
		case Cmp:
			add(x.Field)
		case IsNull:
			add(x.Field)
		}
	}
	walk(n)
	return out
}

// String renders n in a compact debug form used by logs and tests
func String(n Node) string {
	var b strings.Builder
	write(&b, n)
	return b.String()
}

func write(b *strings.Builder, n Node) {
	switch x := n.(type) {
	case nil:
		b.WriteString("<nil>")
	case Const:
		if x {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case And:
		writeList(b, "and", x)
	case Or:
		writeList(b, "or", x)
	case Not:
		b.WriteString("not(")
		write(b, x.X)
		b.WriteString(")")
	case In:
		fmt.Fprintf(b, "%s in %q", x.Field, x.Values)
	case Match:
		fmt.Fprintf(b, "%s %s %q", x.Field, x.Op, x.Value)
	case Cmp:
		fmt.Fprintf(b, "%s %s %g", x.Field, x.Op, x.Value)
	case IsNull:
		fmt.Fprintf(b, "%s is null", x.Field)
	default:
		fmt.Fprintf(b, "%T", n)
	}
}

func writeList(b *strings.Builder, op string, nodes []Node) {
	b.WriteString(op)
	b.WriteString("(")
	for i, c := range nodes {
		if i > 0 {
			b.WriteString(", ")
		}
		write(b, c)
	}
	b.WriteString(")")
}
