package milvus

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/retriever/milvus"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/sirupsen/logrus"

	"sumulas-rag/logic/filter"
	"sumulas-rag/types"
)

var (
	stringFields = []string{
		types.FieldSourceName, types.FieldSummaryNumber, types.FieldStatus,
		types.FieldStatusDate, types.FieldChunkType,
	}
	intFields = []string{types.FieldStatusYear, types.FieldChunkIndex}
)

// Searcher Milvus 向量检索
type Searcher struct {
	retriever  retriever.Retriever
	collection string
}

// NewSearcher 创建向量检索器（接收外部创建的 Client）
func NewSearcher(ctx context.Context, cli client.Client, emb embedding.Embedder, collection string) (*Searcher, error) {
	outputFields := append([]string{types.FieldContent}, stringFields...)
	outputFields = append(outputFields, intFields...)

	retr, err := milvus.NewRetriever(ctx, &milvus.RetrieverConfig{
		Client:            cli,
		Collection:        collection,
		VectorField:       "vector",
		OutputFields:      outputFields,
		DocumentConverter: convertResult,
		MetricType:        entity.L2,
		TopK:              10,
		Embedding:         emb,
	})
	if err != nil {
		return nil, fmt.Errorf("init retriever failed: %w", err)
	}

	// 确保 Collection 已加载到内存
	ensureLoaded(ctx, cli, collection)

	return &Searcher{retriever: retr, collection: collection}, nil
}

// SearchDense 向量检索，expr 下推为 Milvus 过滤表达式
func (s *Searcher) SearchDense(ctx context.Context, query string, expr filter.Expr, k int) ([]*schema.Document, error) {
	start := time.Now()
	opts := []retriever.Option{retriever.WithTopK(k)}
	if e := BuildExpr(expr); e != "" {
		opts = append(opts, milvus.WithFilter(e))
	}
	docs, err := s.retriever.Retrieve(ctx, query, opts...)
	if err != nil {
		return nil, fmt.Errorf("milvus retrieve failed: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"collection": s.collection,
		"expr":       BuildExpr(expr),
		"hits":       len(docs),
		"took":       time.Since(start),
	}).Debug(">>> [Milvus Retrieval]")
	return docs, nil
}

// convertResult 自定义 DocumentConverter，包含分数信息
// L2 距离越小越相似，这里转成 1/(1+d)，越大越相似
func convertResult(ctx context.Context, result client.SearchResult) ([]*schema.Document, error) {
	docs := make([]*schema.Document, result.IDs.Len())
	for i := 0; i < result.IDs.Len(); i++ {
		id, err := result.IDs.GetAsString(i)
		if err != nil {
			return nil, fmt.Errorf("failed to get id: %w", err)
		}
		doc := &schema.Document{
			ID:       id,
			MetaData: make(map[string]any),
		}
		if len(result.Scores) > i {
			doc = doc.WithScore(Similarity(result.Scores[i]))
		}

		for _, field := range result.Fields {
			name := field.Name()
			switch {
			case name == types.FieldContent:
				if v, err := field.GetAsString(i); err == nil {
					doc.Content = v
				}
			case contains(stringFields, name):
				v, err := field.GetAsString(i)
				if err != nil {
					logrus.Warnf(">>> [Milvus] 字段 %s 获取失败 (索引 %d): %v", name, i, err)
					continue
				}
				doc.MetaData[name] = v
			case contains(intFields, name):
				v, err := field.GetAsInt64(i)
				if err != nil {
					logrus.Warnf(">>> [Milvus] 字段 %s 获取失败 (索引 %d): %v", name, i, err)
					continue
				}
				doc.MetaData[name] = v
			}
		}
		docs[i] = doc
	}
	return docs, nil
}

// Similarity L2 距离 -> (0,1]
func Similarity(distance float32) float64 {
	d := float64(distance)
	if d < 0 {
		d = 0
	}
	return 1 / (1 + d)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
