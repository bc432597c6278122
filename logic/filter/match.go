package filter

import (
	"fmt"
	"strings"
)

// Record exposes metadata values by attribute name.
type Record interface {
	Value(field string) (any, bool)
}

// Match evaluates expr against rec. A nil expression matches everything;
// a term on a field the record does not carry never matches.
func Match(expr Expr, rec Record) bool {
	switch v := expr.(type) {
	case nil:
		return true
	case *Comparison:
		if v == nil {
			return true
		}
		got, ok := rec.Value(v.Attribute)
		if !ok {
			return false
		}
		return compare(got, v.Operator, v.Value)
	case *Logical:
		if v == nil {
			return true
		}
		switch v.Op {
		case OpAnd:
			for _, c := range v.Children {
				if !Match(c, rec) {
					return false
				}
			}
			return true
		case OpOr:
			for _, c := range v.Children {
				if Match(c, rec) {
					return true
				}
			}
			return len(v.Children) == 0
		case OpNot:
			return !Match(And(v.Children...), rec)
		}
	}
	return false
}

func compare(got any, op Comparator, want any) bool {
	gi, gok := toInt(got)
	wi, wok := toInt(want)
	var c int
	if gok && wok {
		switch {
		case gi < wi:
			c = -1
		case gi > wi:
			c = 1
		}
	} else {
		c = strings.Compare(fmt.Sprint(got), fmt.Sprint(want))
	}
	switch op {
	case OpEq:
		return c == 0
	case OpNe:
		return c != 0
	case OpLt:
		return c < 0
	case OpLte:
		return c <= 0
	case OpGt:
		return c > 0
	case OpGte:
		return c >= 0
	}
	return false
}
