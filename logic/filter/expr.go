package filter

// Comparator comparison operator of a single attribute term
type Comparator string

const (
	OpEq  Comparator = "eq"
	OpNe  Comparator = "ne"
	OpLt  Comparator = "lt"
	OpLte Comparator = "lte"
	OpGt  Comparator = "gt"
	OpGte Comparator = "gte"
)

var comparators = map[Comparator]struct{}{
	OpEq: {}, OpNe: {}, OpLt: {}, OpLte: {}, OpGt: {}, OpGte: {},
}

// Valid reports whether c is a known comparator.
func (c Comparator) Valid() bool {
	_, ok := comparators[c]
	return ok
}

// Inequality reports whether c orders values (lt, lte, gt, gte).
func (c Comparator) Inequality() bool {
	switch c {
	case OpLt, OpLte, OpGt, OpGte:
		return true
	}
	return false
}

// LogicalOp connective of a compound expression
type LogicalOp string

const (
	OpAnd LogicalOp = "and"
	OpOr  LogicalOp = "or"
	OpNot LogicalOp = "not"
)

// Valid reports whether op is a known connective.
func (op LogicalOp) Valid() bool {
	return op == OpAnd || op == OpOr || op == OpNot
}

// Expr is a filter expression. The set of implementations is closed:
// *Comparison and *Logical are the only variants.
type Expr interface {
	expr()
}

// Comparison `attribute operator value`
type Comparison struct {
	Attribute string
	Operator  Comparator
	Value     any
}

// Logical combines child expressions. NOT negates the conjunction of its children.
type Logical struct {
	Op       LogicalOp
	Children []Expr
}

func (*Comparison) expr() {}
func (*Logical) expr()    {}

// Compare builds a comparison term.
func Compare(attribute string, op Comparator, value any) *Comparison {
	return &Comparison{Attribute: attribute, Operator: op, Value: value}
}

// And builds a conjunction.
func And(children ...Expr) *Logical {
	return &Logical{Op: OpAnd, Children: children}
}

// Or builds a disjunction.
func Or(children ...Expr) *Logical {
	return &Logical{Op: OpOr, Children: children}
}

// Not negates child.
func Not(child Expr) *Logical {
	return &Logical{Op: OpNot, Children: []Expr{child}}
}

// Terms returns every comparison in expr, depth first.
func Terms(expr Expr) []*Comparison {
	var out []*Comparison
	var walk func(Expr)
	walk = func(e Expr) {
		switch v := e.(type) {
		case *Comparison:
			if v != nil {
				out = append(out, v)
			}
		case *Logical:
			if v == nil {
				return
			}
			for _, c := range v.Children {
				walk(c)
			}
		}
	}
	walk(expr)
	return out
}
