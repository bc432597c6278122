package filter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// NoFilter model output meaning "no attribute terms".
const NoFilter = "NO_FILTER"

// ErrMalformed the JSON does not describe an expression.
var ErrMalformed = errors.New("malformed filter expression")

// Node JSON shape of an expression. Logical nodes carry operator+arguments,
// comparisons carry comparator+attribute+value.
type Node struct {
	Operator   string `json:"operator,omitempty"`
	Arguments  []Node `json:"arguments,omitempty"`
	Comparator string `json:"comparator,omitempty"`
	Attribute  string `json:"attribute,omitempty"`
	Value      any    `json:"value,omitempty"`
}

var comparatorAliases = map[string]Comparator{
	"eq": OpEq, "==": OpEq, "=": OpEq, "equal": OpEq,
	"ne": OpNe, "!=": OpNe, "<>": OpNe, "neq": OpNe,
	"lt": OpLt, "<": OpLt,
	"lte": OpLte, "<=": OpLte, "le": OpLte,
	"gt": OpGt, ">": OpGt,
	"gte": OpGte, ">=": OpGte, "ge": OpGte,
}

var logicalAliases = map[string]LogicalOp{
	"and": OpAnd, "&&": OpAnd, "e": OpAnd,
	"or": OpOr, "||": OpOr, "ou": OpOr,
	"not": OpNot, "!": OpNot,
}

// Encode converts expr to its JSON node, nil for no filter.
func Encode(expr Expr) *Node {
	switch v := expr.(type) {
	case *Comparison:
		if v == nil {
			return nil
		}
		return &Node{Comparator: string(v.Operator), Attribute: v.Attribute, Value: v.Value}
	case *Logical:
		if v == nil {
			return nil
		}
		n := &Node{Operator: string(v.Op), Arguments: make([]Node, 0, len(v.Children))}
		for _, c := range v.Children {
			if cn := Encode(c); cn != nil {
				n.Arguments = append(n.Arguments, *cn)
			}
		}
		return n
	}
	return nil
}

// Decode converts a JSON node into an expression. Operator spellings are
// normalised ("AND", "==", "<=" ...). A nil node decodes to nil.
func Decode(n *Node) (Expr, error) {
	if n == nil {
		return nil, nil
	}
	if n.Attribute != "" {
		name := n.Comparator
		if name == "" {
			// {"operator":"eq","attribute":...}
			name = n.Operator
		}
		op, ok := comparatorAliases[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("%w: comparator %q", ErrMalformed, name)
		}
		return &Comparison{Attribute: strings.TrimSpace(n.Attribute), Operator: op, Value: n.Value}, nil
	}
	op, ok := logicalAliases[strings.ToLower(strings.TrimSpace(n.Operator))]
	if !ok {
		return nil, fmt.Errorf("%w: operator %q", ErrMalformed, n.Operator)
	}
	children := make([]Expr, 0, len(n.Arguments))
	for i := range n.Arguments {
		c, err := Decode(&n.Arguments[i])
		if err != nil {
			return nil, err
		}
		if c != nil {
			children = append(children, c)
		}
	}
	return &Logical{Op: op, Children: children}, nil
}

// Parse decodes the "filter" member of a structured query. null, "" and
// "NO_FILTER" mean no filter.
func Parse(raw json.RawMessage) (Expr, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		s = strings.TrimSpace(s)
		if s == "" || strings.EqualFold(s, NoFilter) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: unexpected string %q", ErrMalformed, s)
	}
	var n Node
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return Decode(&n)
}
