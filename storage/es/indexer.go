package es

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/cloudwego/eino/schema"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/sirupsen/logrus"

	"sumulas-rag/types"
)

// MetaDocID 切片所属文档 id
const MetaDocID = "doc_id"

type ESIndexer struct {
	client *elasticsearch.Client
	index  string
}

// GetClient 返回 ES 客户端（用于检索）
func (e *ESIndexer) GetClient() *elasticsearch.Client {
	return e.client
}

// Index 索引名
func (e *ESIndexer) Index() string {
	return e.index
}

// NewESIndexer 初始化 ES 客户端并确保索引存在
func NewESIndexer(ctx context.Context, addresses []string, indexName string) (*ESIndexer, error) {
	cfg := elasticsearch.Config{
		Addresses: addresses,
	}
	es, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("error creating the client: %w", err)
	}

	indexer := &ESIndexer{client: es, index: indexName}

	// 初始化索引 Mapping (定义字段类型)
	if err := indexer.initMapping(ctx); err != nil {
		return nil, err
	}

	return indexer, nil
}

// 葡语分析器做 BM25，元数据全部 keyword 精确匹配
const mapping = `
{
  "settings": {
	"number_of_shards": 1,
	"number_of_replicas": 0,
	"analysis": {
	  "analyzer": {
		"sumula_pt": {
		  "type": "portuguese"
		}
	  }
	}
  },
  "mappings": {
	"properties": {
	  "doc_id":         { "type": "keyword" },
	  "chunk_id":       { "type": "keyword" },
	  "content":        { "type": "text", "analyzer": "sumula_pt" },
	  "source_name":    { "type": "keyword" },
	  "summary_number": { "type": "keyword" },
	  "status":         { "type": "keyword" },
	  "status_date":    { "type": "keyword" },
	  "status_year":    { "type": "integer" },
	  "chunk_type":     { "type": "keyword" },
	  "chunk_index":    { "type": "integer" }
	}
  }
}`

func (e *ESIndexer) initMapping(ctx context.Context) error {
	// 1. 检查索引是否存在
	res, err := e.client.Indices.Exists([]string{e.index}, e.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index error: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil // 已存在，跳过
	}

	logrus.Infof(">>> [ES] Creating index %s with portuguese analyzer...", e.index)
	res, err = e.client.Indices.Create(
		e.index,
		e.client.Indices.Create.WithBody(strings.NewReader(mapping)),
		e.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create index error: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("create index response error: %s", res.String())
	}
	return nil
}

// sourceOf 切片 -> ES 文档
func sourceOf(docID string, chunk *schema.Document) map[string]interface{} {
	meta := types.MetadataFromMap(chunk.MetaData)
	return map[string]interface{}{
		MetaDocID:                docID,
		"chunk_id":               chunk.ID,
		types.FieldContent:       chunk.Content,
		types.FieldSourceName:    meta.SourceName,
		types.FieldSummaryNumber: meta.SummaryNumber,
		types.FieldStatus:        meta.Status,
		types.FieldStatusDate:    meta.StatusDate,
		types.FieldStatusYear:    meta.StatusYear,
		types.FieldChunkType:     string(meta.ChunkType),
		types.FieldChunkIndex:    meta.ChunkIndex,
	}
}

// Store 批量存储
func (e *ESIndexer) Store(ctx context.Context, docID string, chunks []*schema.Document) error {
	var failed atomic.Int64
	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Index:   e.index,
		Client:  e.client,
		Refresh: "true", // 写入后立即可查
	})
	if err != nil {
		return err
	}

	for _, chunk := range chunks {
		data, err := json.Marshal(sourceOf(docID, chunk))
		if err != nil {
			return err
		}

		// 加入批量队列
		err = bi.Add(ctx, esutil.BulkIndexerItem{
			Action:     "index",
			DocumentID: chunk.ID, // 使用 ChunkID 作为 ES 的 _id，避免重复
			Body:       strings.NewReader(string(data)),
			OnFailure: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
				failed.Add(1)
				if err != nil {
					logrus.WithError(err).Errorf(">>> [ES] 写入失败 id=%s", item.DocumentID)
					return
				}
				logrus.Errorf(">>> [ES] 写入失败 id=%s: %s %s", item.DocumentID, res.Error.Type, res.Error.Reason)
			},
		})
		if err != nil {
			return err
		}
	}

	if err := bi.Close(ctx); err != nil {
		return err
	}
	if n := failed.Load(); n > 0 {
		return fmt.Errorf("ES bulk index: %d of %d chunks failed", n, len(chunks))
	}
	return nil
}

func (e *ESIndexer) DeleteByDocID(ctx context.Context, docID string) error {
	// 构造查询语句：{"query": {"term": {"doc_id": "xxx"}}}
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{
				MetaDocID: docID, // 注意：doc_id 字段必须是 keyword 类型
			},
		},
	}

	var buf strings.Builder
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return fmt.Errorf("error encoding query: %w", err)
	}

	res, err := e.client.DeleteByQuery(
		[]string{e.index},
		strings.NewReader(buf.String()),
		e.client.DeleteByQuery.WithContext(ctx),
		e.client.DeleteByQuery.WithRefresh(true),
	)
	if err != nil {
		return fmt.Errorf("ES delete request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("ES delete response error: %s", res.String())
	}

	logrus.Infof(">>> [ES] 已回滚/删除 DocID=%s 的相关数据", docID)
	return nil
}
