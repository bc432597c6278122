package retrieval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/sirupsen/logrus"

	"sumulas-rag/logic/filter"
	"sumulas-rag/logic/retrieval/score"
	"sumulas-rag/types"
	"sumulas-rag/vars"
)

// DenseSearcher 向量检索 (Milvus)
type DenseSearcher interface {
	SearchDense(ctx context.Context, query string, expr filter.Expr, k int) ([]*schema.Document, error)
}

// SparseSearcher 关键词检索 (ES BM25)
type SparseSearcher interface {
	SearchSparse(ctx context.Context, query string, expr filter.Expr, k int) ([]*schema.Document, error)
}

// RetrieverConfig 混合检索配置
type RetrieverConfig struct {
	// CandidateFactor 每路召回 k*CandidateFactor 条后再融合，默认 2
	CandidateFactor int
	// MaxK 单次召回上限，超出的 k 被截断，默认 vars.MAXK
	MaxK   int
	Fusion *score.Config
	// Timeout 单次检索超时，0 表示不限制
	Timeout time.Duration
}

// Result 检索结果，Query 为实际执行的查询
type Result struct {
	Query  StructuredQuery
	Chunks []types.Chunk
}

// Retriever 混合检索：Milvus + ES，融合后按过滤条件硬过滤
type Retriever struct {
	dense  DenseSearcher
	sparse SparseSearcher
	config RetrieverConfig
}

func NewRetriever(dense DenseSearcher, sparse SparseSearcher, config *RetrieverConfig) *Retriever {
	r := &Retriever{dense: dense, sparse: sparse}
	if config != nil {
		r.config = *config
	}
	if r.config.CandidateFactor <= 0 {
		r.config.CandidateFactor = 2
	}
	if r.config.MaxK <= 0 {
		r.config.MaxK = vars.MAXK
	}
	if r.config.Fusion == nil {
		r.config.Fusion = score.DefaultConfig()
	}
	return r
}

// Retrieve returns at most k chunks matching q.Filter, best first. No match is
// an empty result, not an error. Any backend failure is ErrIndexUnavailable.
func (r *Retriever) Retrieve(ctx context.Context, q StructuredQuery, k int) (*Result, error) {
	if r.dense == nil && r.sparse == nil {
		return nil, fmt.Errorf("%w: no search backend configured", types.ErrIndexUnavailable)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 {
		k = vars.TOPK
	}
	k = min(k, r.config.MaxK)
	limit := k
	if q.Limit > 0 && q.Limit < k {
		limit = q.Limit
	}
	candidates := k * r.config.CandidateFactor

	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
	}

	searchStart := time.Now()
	log := logrus.WithFields(logrus.Fields{"query": q.Query, "k": k})

	var denseDocs, sparseDocs []*schema.Document
	if r.dense != nil {
		start := time.Now()
		docs, err := r.dense.SearchDense(ctx, q.Query, q.Filter, candidates)
		if err != nil {
			return nil, indexErr("milvus", err)
		}
		denseDocs = docs
		log.Debugf(">>> [Milvus] 找到 %d 个结果, 耗时: %v", len(docs), time.Since(start))
	}
	if r.sparse != nil {
		start := time.Now()
		docs, err := r.sparse.SearchSparse(ctx, q.Query, q.Filter, candidates)
		if err != nil {
			return nil, indexErr("es", err)
		}
		sparseDocs = docs
		log.Debugf(">>> [ES] 找到 %d 个结果, 耗时: %v", len(docs), time.Since(start))
	}

	fused := score.Fuse(denseDocs, sparseDocs, r.config.Fusion)

	chunks := make([]types.Chunk, 0, min(limit, len(fused)))
	for _, f := range fused {
		if len(chunks) == limit {
			break
		}
		c := types.ChunkFromDocument(f.Document, f.FinalScore)
		// 过滤条件是硬约束，后端漏过的结果在这里剔除
		if !filter.Match(q.Filter, c.Metadata) {
			continue
		}
		chunks = append(chunks, c)
	}

	log.WithFields(logrus.Fields{
		"chunks": len(chunks),
		"took":   time.Since(searchStart),
	}).Info(">>> [Hybrid Search] 检索完成")

	return &Result{Query: q, Chunks: chunks}, nil
}

func indexErr(backend string, err error) error {
	if errors.Is(err, types.ErrIndexUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", types.ErrIndexUnavailable, backend, err)
}
