package filter

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"sumulas-rag/types"
)

var yearRe = regexp.MustCompile(`\b(1[89]\d{2}|2\d{3})\b`)

// Validate checks expr against the schema and returns a canonical copy:
// values coerced to the attribute type, single-child AND/OR collapsed, empty
// compounds removed. An inequality on a text date carrying a four-digit year is
// moved onto the year attribute. Any other reference the schema does not
// declare yields an error wrapping types.ErrSchemaViolation.
func (s *Schema) Validate(expr Expr) (Expr, error) {
	switch v := expr.(type) {
	case nil:
		return nil, nil
	case *Comparison:
		if v == nil {
			return nil, nil
		}
		return s.validateComparison(v)
	case *Logical:
		if v == nil {
			return nil, nil
		}
		return s.validateLogical(v)
	default:
		return nil, fmt.Errorf("%w: unsupported expression %T", types.ErrSchemaViolation, expr)
	}
}

func (s *Schema) validateComparison(c *Comparison) (Expr, error) {
	attr, ok := s.Lookup(c.Attribute)
	if !ok {
		return nil, fmt.Errorf("%w: unknown attribute %q", types.ErrSchemaViolation, c.Attribute)
	}
	if !c.Operator.Valid() {
		return nil, fmt.Errorf("%w: unknown operator %q", types.ErrSchemaViolation, c.Operator)
	}
	if !attr.Allows(c.Operator) {
		if rewritten, ok := s.toYear(attr, c); ok {
			return rewritten, nil
		}
		return nil, fmt.Errorf("%w: operator %q not allowed on %q", types.ErrSchemaViolation, c.Operator, attr.Name)
	}
	value, err := coerce(attr, c.Value)
	if err != nil {
		return nil, err
	}
	return &Comparison{Attribute: attr.Name, Operator: c.Operator, Value: value}, nil
}

// toYear "status_date lt '2010'" -> "status_year lt 2010"
func (s *Schema) toYear(attr Attribute, c *Comparison) (*Comparison, bool) {
	if s.year == "" || attr.Type != TypeString || !c.Operator.Inequality() {
		return nil, false
	}
	m := yearRe.FindString(fmt.Sprint(c.Value))
	if m == "" {
		return nil, false
	}
	year, _ := strconv.Atoi(m)
	return &Comparison{Attribute: s.year, Operator: c.Operator, Value: year}, true
}

func (s *Schema) validateLogical(l *Logical) (Expr, error) {
	if !l.Op.Valid() {
		return nil, fmt.Errorf("%w: unknown logical operator %q", types.ErrSchemaViolation, l.Op)
	}
	children := make([]Expr, 0, len(l.Children))
	for _, child := range l.Children {
		v, err := s.Validate(child)
		if err != nil {
			return nil, err
		}
		if v != nil {
			children = append(children, v)
		}
	}
	switch {
	case len(children) == 0:
		return nil, nil
	case l.Op == OpNot:
		if len(children) > 1 {
			return Not(And(children...)), nil
		}
		return Not(children[0]), nil
	case len(children) == 1:
		return children[0], nil
	}
	return &Logical{Op: l.Op, Children: children}, nil
}

func coerce(attr Attribute, value any) (any, error) {
	switch attr.Type {
	case TypeInteger:
		n, ok := toInt(value)
		if !ok {
			return nil, fmt.Errorf("%w: attribute %q expects an integer, got %v", types.ErrSchemaViolation, attr.Name, value)
		}
		return n, nil
	default:
		var str string
		switch v := value.(type) {
		case nil:
			return nil, fmt.Errorf("%w: attribute %q has no value", types.ErrSchemaViolation, attr.Name)
		case string:
			str = strings.TrimSpace(v)
		case float64:
			if v == math.Trunc(v) {
				str = strconv.FormatInt(int64(v), 10)
			} else {
				str = strconv.FormatFloat(v, 'f', -1, 64)
			}
		default:
			str = fmt.Sprint(v)
		}
		if attr.Normalize != nil {
			str = attr.Normalize(str)
		}
		return str, nil
	}
}

func toInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case int32:
		return int(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}
