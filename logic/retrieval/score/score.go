package score

import (
	"sort"

	"github.com/cloudwego/eino/schema"
)

const (
	SourceDense  = "milvus"
	SourceSparse = "es"
)

// Config 混合检索融合配置
type Config struct {
	DenseWeight  float64 // Milvus 向量检索权重，默认 0.6
	SparseWeight float64 // ES 关键词检索权重，默认 0.4
}

// DefaultConfig 默认混合检索配置
func DefaultConfig() *Config {
	return &Config{
		DenseWeight:  0.6,
		SparseWeight: 0.4,
	}
}

// Fused 融合后的文档（带来源标记）
type Fused struct {
	*schema.Document
	FinalScore float64  // 最终融合分数
	Sources    []string // 来源标记：["milvus", "es"] 或 ["milvus"] 或 ["es"]
}

// Fuse 合并 Milvus 和 ES 的检索结果
// 1. 分数归一化（Min-Max 到 [0,1]），不修改入参
// 2. 按 ID 去重，同一文档在两个结果集中都出现时分数累加
// 3. 加权融合 finalScore = dense * DenseWeight + sparse * SparseWeight
// 4. 按 FinalScore 降序，分数相同按 ID 升序，保证结果稳定
func Fuse(dense, sparse []*schema.Document, config *Config) []*Fused {
	if config == nil {
		config = DefaultConfig()
	}

	byID := make(map[string]*Fused, len(dense)+len(sparse))
	results := make([]*Fused, 0, len(dense)+len(sparse))

	add := func(docs []*schema.Document, weight float64, source string) {
		norm := normalize(docs)
		for i, doc := range docs {
			if doc == nil {
				continue
			}
			if existing, ok := byID[doc.ID]; ok {
				if hasSource(existing.Sources, source) {
					continue
				}
				existing.FinalScore += norm[i] * weight
				existing.Sources = append(existing.Sources, source)
				continue
			}
			f := &Fused{Document: doc, FinalScore: norm[i] * weight, Sources: []string{source}}
			byID[doc.ID] = f
			results = append(results, f)
		}
	}
	add(dense, config.DenseWeight, SourceDense)
	add(sparse, config.SparseWeight, SourceSparse)

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].FinalScore != results[j].FinalScore {
			return results[i].FinalScore > results[j].FinalScore
		}
		return results[i].ID < results[j].ID
	})
	return results
}

// normalize Min-Max 归一化
// 公式：normalized = (score - min) / (max - min)，所有分数相同时均为 1
func normalize(docs []*schema.Document) []float64 {
	out := make([]float64, len(docs))
	first := true
	var maxScore, minScore float64
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		s := doc.Score()
		if first {
			maxScore, minScore, first = s, s, false
			continue
		}
		if s > maxScore {
			maxScore = s
		}
		if s < minScore {
			minScore = s
		}
	}
	for i, doc := range docs {
		if doc == nil {
			continue
		}
		if maxScore == minScore {
			out[i] = 1
			continue
		}
		out[i] = (doc.Score() - minScore) / (maxScore - minScore)
	}
	return out
}

func hasSource(sources []string, s string) bool {
	for _, v := range sources {
		if v == s {
			return true
		}
	}
	return false
}
