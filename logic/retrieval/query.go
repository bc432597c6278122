package retrieval

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"sumulas-rag/logic/filter"
)

// StructuredQuery 自查询结果：语义检索文本 + 元数据过滤
type StructuredQuery struct {
	Query  string      // 语义检索文本，非空
	Filter filter.Expr // nil 表示不过滤
	Limit  int         // 用户指定的结果数量，0 表示未指定
}

type structuredQueryJSON struct {
	Query  string          `json:"query"`
	Filter json.RawMessage `json:"filter"`
	Limit  json.RawMessage `json:"limit,omitempty"`
}

func (q StructuredQuery) MarshalJSON() ([]byte, error) {
	var f json.RawMessage = []byte("null")
	if node := filter.Encode(q.Filter); node != nil {
		b, err := json.Marshal(node)
		if err != nil {
			return nil, err
		}
		f = b
	}
	out := structuredQueryJSON{Query: q.Query, Filter: f}
	if q.Limit > 0 {
		out.Limit = []byte(strconv.Itoa(q.Limit))
	}
	return json.Marshal(out)
}

func (q *StructuredQuery) UnmarshalJSON(b []byte) error {
	var raw structuredQueryJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	expr, err := filter.Parse(raw.Filter)
	if err != nil {
		return err
	}
	limit, err := parseLimit(raw.Limit)
	if err != nil {
		return err
	}
	*q = StructuredQuery{Query: raw.Query, Filter: expr, Limit: limit}
	return nil
}

// parseLimit accepts null, a number or a numeric string.
func parseLimit(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, err
	}
	var n int
	switch x := v.(type) {
	case float64:
		n = int(x)
	case string:
		if strings.TrimSpace(x) == "" {
			return 0, nil
		}
		i, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0, fmt.Errorf("invalid limit %q", x)
		}
		n = i
	default:
		return 0, fmt.Errorf("invalid limit %s", raw)
	}
	if n < 0 {
		n = 0
	}
	return n, nil
}
