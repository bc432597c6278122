package milvus

import (
	"fmt"
	"strings"

	"sumulas-rag/logic/filter"
)

var milvusOps = map[filter.Comparator]string{
	filter.OpEq:  "==",
	filter.OpNe:  "!=",
	filter.OpLt:  "<",
	filter.OpLte: "<=",
	filter.OpGt:  ">",
	filter.OpGte: ">=",
}

// BuildExpr 构建 Milvus 布尔过滤表达式，nil 返回空串（不过滤）
func BuildExpr(expr filter.Expr) string {
	switch v := expr.(type) {
	case *filter.Comparison:
		if v == nil {
			return ""
		}
		op, ok := milvusOps[v.Operator]
		if !ok {
			return ""
		}
		return fmt.Sprintf("%s %s %s", v.Attribute, op, literal(v.Value))
	case *filter.Logical:
		if v == nil {
			return ""
		}
		parts := make([]string, 0, len(v.Children))
		for _, c := range v.Children {
			if s := BuildExpr(c); s != "" {
				parts = append(parts, s)
			}
		}
		if len(parts) == 0 {
			return ""
		}
		switch v.Op {
		case filter.OpOr:
			return "(" + strings.Join(parts, " || ") + ")"
		case filter.OpNot:
			return "not (" + strings.Join(parts, " && ") + ")"
		default:
			// 使用 && 连接所有条件
			return "(" + strings.Join(parts, " && ") + ")"
		}
	}
	return ""
}

func literal(v any) string {
	switch x := v.(type) {
	case int, int32, int64:
		return fmt.Sprintf("%d", x)
	case float64:
		return fmt.Sprintf("%v", x)
	case string:
		return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(x) + "'"
	}
	return literal(fmt.Sprint(v))
}
