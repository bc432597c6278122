package es

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"sumulas-rag/logic/filter"
	"sumulas-rag/types"
)

var metaFields = []string{
	MetaDocID,
	types.FieldSourceName, types.FieldSummaryNumber, types.FieldStatus,
	types.FieldStatusDate, types.FieldStatusYear, types.FieldChunkType, types.FieldChunkIndex,
}

// Searcher BM25 关键词检索
type Searcher struct {
	client *elasticsearch.Client
	index  string
}

func NewSearcher(client *elasticsearch.Client, index string) *Searcher {
	return &Searcher{client: client, index: index}
}

// SearchSparse 执行 ES 检索
// query: 关键词查询语句（用于 BM25）
// expr: 过滤条件（nil 表示无过滤）
func (s *Searcher) SearchSparse(ctx context.Context, query string, expr filter.Expr, k int) ([]*schema.Document, error) {
	start := time.Now()

	var buf strings.Builder
	if err := json.NewEncoder(&buf).Encode(BuildQuery(query, expr, k)); err != nil {
		return nil, fmt.Errorf("error encoding query: %w", err)
	}
	logrus.Debugf(">>> [ES] Query: %s", buf.String())

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  strings.NewReader(buf.String()),
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("error getting response: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("error response: %s", res.String())
	}

	var result searchResponse
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("error parsing response body: %w", err)
	}
	docs := result.documents()

	logrus.WithFields(logrus.Fields{
		"index": s.index,
		"hits":  len(docs),
		"took":  time.Since(start),
	}).Debug(">>> [ES] Retrieved")
	return docs, nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string                 `json:"_id"`
			Score  float64                `json:"_score"`
			Source map[string]interface{} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (r searchResponse) documents() []*schema.Document {
	docs := make([]*schema.Document, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		if hit.Source == nil {
			continue
		}
		doc := &schema.Document{
			ID:       hit.ID,
			Content:  toString(hit.Source[types.FieldContent]),
			MetaData: make(map[string]any),
		}
		// chunk_id 与 Milvus 主键一致，用于融合去重
		if id := toString(hit.Source["chunk_id"]); id != "" {
			doc.ID = id
		}
		for _, f := range metaFields {
			if val, ok := hit.Source[f]; ok {
				doc.MetaData[f] = val
			}
		}
		docs = append(docs, doc.WithScore(hit.Score))
	}
	return docs
}

// BuildQuery 构建 ES 查询语句（BM25 + 过滤）
func BuildQuery(query string, expr filter.Expr, topK int) map[string]interface{} {
	boolQuery := map[string]interface{}{
		"must": []map[string]interface{}{
			{
				"match": map[string]interface{}{
					types.FieldContent: map[string]interface{}{
						"query": query,
					},
				},
			},
		},
	}
	if clause := BuildFilter(expr); clause != nil {
		boolQuery["filter"] = []map[string]interface{}{clause}
	}
	return map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
		"size":  topK,
	}
}

var rangeOps = map[filter.Comparator]string{
	filter.OpLt:  "lt",
	filter.OpLte: "lte",
	filter.OpGt:  "gt",
	filter.OpGte: "gte",
}

// BuildFilter 表达式 -> ES filter 子句，nil 表示不过滤
func BuildFilter(expr filter.Expr) map[string]interface{} {
	switch v := expr.(type) {
	case *filter.Comparison:
		if v == nil {
			return nil
		}
		term := map[string]interface{}{
			"term": map[string]interface{}{v.Attribute: v.Value},
		}
		switch v.Operator {
		case filter.OpEq:
			return term
		case filter.OpNe:
			return boolClause("must_not", []map[string]interface{}{term})
		}
		if op, ok := rangeOps[v.Operator]; ok {
			return map[string]interface{}{
				"range": map[string]interface{}{
					v.Attribute: map[string]interface{}{op: v.Value},
				},
			}
		}
		return nil
	case *filter.Logical:
		if v == nil {
			return nil
		}
		clauses := make([]map[string]interface{}, 0, len(v.Children))
		for _, c := range v.Children {
			if clause := BuildFilter(c); clause != nil {
				clauses = append(clauses, clause)
			}
		}
		if len(clauses) == 0 {
			return nil
		}
		switch v.Op {
		case filter.OpOr:
			q := boolClause("should", clauses)
			q["bool"].(map[string]interface{})["minimum_should_match"] = 1 // 至少匹配一个条件
			return q
		case filter.OpNot:
			// must_not 多个子句是“都不满足”，这里取反的是合取
			if len(clauses) > 1 {
				clauses = []map[string]interface{}{boolClause("filter", clauses)}
			}
			return boolClause("must_not", clauses)
		default:
			if len(clauses) == 1 {
				return clauses[0]
			}
			return boolClause("filter", clauses)
		}
	}
	return nil
}

func boolClause(occur string, clauses []map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"bool": map[string]interface{}{occur: clauses},
	}
}

// toString 安全地将任意类型转为 string
func toString(v interface{}) string {
	if v == nil {
		return ""
	}
	if str, ok := v.(string); ok {
		return str
	}
	return fmt.Sprintf("%v", v)
}
