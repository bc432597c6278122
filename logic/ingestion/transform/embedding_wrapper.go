package transform

import (
	"context"
	"math"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/sirupsen/logrus"
)

// CleanEmbedder 包装原始 embedder，处理 NaN/Inf 值
type CleanEmbedder struct {
	inner embedding.Embedder
}

// NewCleanEmbedder 创建带 NaN 清理功能的 embedder
func NewCleanEmbedder(inner embedding.Embedder) *CleanEmbedder {
	return &CleanEmbedder{inner: inner}
}

// EmbedStrings NaN/Inf 替换为 0.0，Milvus 不接受
func (e *CleanEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	vectors, err := e.inner.EmbedStrings(ctx, texts, opts...)
	if err != nil {
		return nil, err
	}

	cleaned := 0
	for _, vec := range vectors {
		for j, val := range vec {
			if math.IsNaN(val) || math.IsInf(val, 0) {
				vec[j] = 0.0
				cleaned++
			}
		}
	}
	if cleaned > 0 {
		logrus.Warnf(">>> [Embedder] 检测到 NaN/Inf 值，已清理 %d 个维度", cleaned)
	}
	return vectors, nil
}
