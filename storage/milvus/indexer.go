package milvus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino-ext/components/indexer/milvus"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/indexer"
	"github.com/cloudwego/eino/schema"
	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/sirupsen/logrus"

	"sumulas-rag/types"
)

// MetaDocID 切片所属文档 id
const MetaDocID = "doc_id"

func varchar(name string, maxLen int) *entity.Field {
	return &entity.Field{
		Name:       name,
		DataType:   entity.FieldTypeVarChar,
		TypeParams: map[string]string{"max_length": fmt.Sprintf("%d", maxLen)},
	}
}

func collectionFields(dim int) []*entity.Field {
	id := varchar("id", 64) // 主键，切片 UUID
	id.PrimaryKey = true
	return []*entity.Field{
		id,
		varchar(MetaDocID, 64),
		{
			Name:       "vector",
			DataType:   entity.FieldTypeFloatVector,
			TypeParams: map[string]string{"dim": fmt.Sprintf("%d", dim)}, // 强制使用正确的维度
		},
		varchar(types.FieldContent, 65535),
		varchar(types.FieldSourceName, 255),
		varchar(types.FieldSummaryNumber, 32),
		varchar(types.FieldStatus, 64),
		varchar(types.FieldStatusDate, 16),
		varchar(types.FieldChunkType, 32),
		{Name: types.FieldStatusYear, DataType: entity.FieldTypeInt64},
		{Name: types.FieldChunkIndex, DataType: entity.FieldTypeInt64},
		{Name: "metadata", DataType: entity.FieldTypeJSON},
	}
}

// Store 向量写入，支持按 doc_id 回滚
type Store struct {
	indexer.Indexer
	cli        client.Client
	collection string
}

// NewStore 建表、建索引并返回写入端
func NewStore(ctx context.Context, cli client.Client, embedder embedding.Embedder, collection string) (*Store, error) {
	idx, err := NewIndexer(ctx, cli, embedder, collection)
	if err != nil {
		return nil, err
	}
	return &Store{Indexer: idx, cli: cli, collection: collection}, nil
}

// NewIndexer 使用外部创建的 Client（复用连接）建表并创建索引
func NewIndexer(ctx context.Context, cli client.Client, embedder embedding.Embedder, collection string) (indexer.Indexer, error) {
	vecs, err := embedder.EmbedStrings(ctx, []string{"test"})
	if err != nil {
		return nil, fmt.Errorf("embedder 不可用: %w", err)
	}
	dim := len(vecs[0])
	logrus.Infof(">>> [Milvus] collection=%s 向量维度: %d", collection, dim)

	idx, err := milvus.NewIndexer(ctx, &milvus.IndexerConfig{
		Client:            cli,
		Collection:        collection,
		Embedding:         embedder,
		Fields:            collectionFields(dim),
		DocumentConverter: convertRows,
		MetricType:        milvus.L2,
	})
	if err != nil {
		return nil, fmt.Errorf("[NewIndexer] 建表失败: %w", err)
	}

	// 先 Release 才能操作索引
	_ = cli.ReleaseCollection(ctx, collection)
	if err := cli.DropIndex(ctx, collection, "vector"); err != nil {
		logrus.Debugf(">>> [Milvus] DropIndex 提示: %v", err)
	}
	hnswIdx, err := entity.NewIndexHNSW(entity.L2, 16, 200)
	if err != nil {
		return nil, err
	}
	if err := cli.CreateIndex(ctx, collection, "vector", hnswIdx, false); err != nil {
		return nil, fmt.Errorf("创建 HNSW 向量索引失败: %w", err)
	}

	logrus.Info(">>> [Milvus] 正在为标量字段创建索引...")
	for _, field := range append(append([]string{}, stringFields...), intFields...) {
		if err := cli.CreateIndex(ctx, collection, field, entity.NewScalarIndex(), false); err != nil {
			return nil, fmt.Errorf("创建 %s 索引失败: %w", field, err)
		}
	}

	if err := cli.LoadCollection(ctx, collection, false); err != nil {
		return nil, fmt.Errorf("load collection 失败: %w", err)
	}
	return idx, nil
}

// convertRows schema.Document -> Milvus 行
func convertRows(ctx context.Context, docs []*schema.Document, vectors [][]float64) ([]interface{}, error) {
	if len(docs) != len(vectors) {
		return nil, fmt.Errorf("docs/vectors length mismatch: %d != %d", len(docs), len(vectors))
	}
	rows := make([]interface{}, len(docs))
	for i, doc := range docs {
		// float64 -> float32
		vec32 := make([]float32, len(vectors[i]))
		for j, v := range vectors[i] {
			vec32[j] = float32(v)
		}
		if doc.MetaData == nil {
			doc.MetaData = make(map[string]any)
		}
		meta := types.MetadataFromMap(doc.MetaData)
		docID, _ := doc.MetaData[MetaDocID].(string)
		metaBytes, err := json.Marshal(meta)
		if err != nil {
			metaBytes = []byte("{}")
		}
		rows[i] = map[string]interface{}{
			"id":                     doc.ID,
			MetaDocID:                docID,
			"vector":                 vec32,
			types.FieldContent:       doc.Content,
			types.FieldSourceName:    meta.SourceName,
			types.FieldSummaryNumber: meta.SummaryNumber,
			types.FieldStatus:        meta.Status,
			types.FieldStatusDate:    meta.StatusDate,
			types.FieldChunkType:     string(meta.ChunkType),
			types.FieldStatusYear:    int64(meta.StatusYear),
			types.FieldChunkIndex:    int64(meta.ChunkIndex),
			"metadata":               metaBytes,
		}
	}
	return rows, nil
}

// DeleteByDocID 回滚：删除某文档的全部切片
func (s *Store) DeleteByDocID(ctx context.Context, docID string) error {
	expr := fmt.Sprintf("%s == %s", MetaDocID, literal(docID))
	if err := s.cli.Delete(ctx, s.collection, "", expr); err != nil {
		return fmt.Errorf("milvus delete failed: %w", err)
	}
	logrus.Infof(">>> [Milvus] 已回滚/删除 DocID=%s 的相关数据", docID)
	return nil
}
