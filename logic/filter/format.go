package filter

import (
	"fmt"
	"strings"
)

// Formatter renders filter expressions for the transparency panel.
type Formatter struct {
	And   string // AND 连接词
	Or    string
	Not   string
	Empty string // 无过滤条件时的提示
}

// DefaultFormatter Portuguese tokens used by the chat UI.
func DefaultFormatter() Formatter {
	return Formatter{
		And:   " E ",
		Or:    " OU ",
		Not:   "NÃO",
		Empty: "Nenhum filtro aplicado.",
	}
}

var opSymbols = map[Comparator]string{
	OpEq:  "=",
	OpNe:  "!=",
	OpLt:  "<",
	OpLte: "<=",
	OpGt:  ">",
	OpGte: ">=",
}

// Format renders expr as "attribute op 'value'" terms joined by the configured
// connectives. nil, or an expression without terms, yields f.Empty. Malformed
// input never panics; it falls back to a raw rendering.
func (f Formatter) Format(expr Expr) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = fmt.Sprintf("%+v", expr)
		}
	}()
	f = f.withDefaults()
	s := f.render(expr, false)
	if s == "" {
		return f.Empty
	}
	return s
}

func (f Formatter) render(expr Expr, nested bool) string {
	switch v := expr.(type) {
	case nil:
		return ""
	case *Comparison:
		if v == nil {
			return ""
		}
		op, ok := opSymbols[v.Operator]
		if !ok {
			op = string(v.Operator)
		}
		return fmt.Sprintf("%s %s '%v'", v.Attribute, op, v.Value)
	case *Logical:
		if v == nil {
			return ""
		}
		parts := make([]string, 0, len(v.Children))
		for _, c := range v.Children {
			if s := f.render(c, true); s != "" {
				parts = append(parts, s)
			}
		}
		if len(parts) == 0 {
			return ""
		}
		switch v.Op {
		case OpNot:
			return fmt.Sprintf("%s (%s)", f.Not, strings.Join(parts, f.And))
		case OpOr:
			return wrap(strings.Join(parts, f.Or), nested && len(parts) > 1)
		default:
			return wrap(strings.Join(parts, f.And), nested && len(parts) > 1)
		}
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (f Formatter) withDefaults() Formatter {
	d := DefaultFormatter()
	if f.And == "" {
		f.And = d.And
	}
	if f.Or == "" {
		f.Or = d.Or
	}
	if f.Not == "" {
		f.Not = d.Not
	}
	if f.Empty == "" {
		f.Empty = d.Empty
	}
	return f
}

func wrap(s string, paren bool) string {
	if paren {
		return "(" + s + ")"
	}
	return s
}
