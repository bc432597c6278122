package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"sumulas-rag/logic/pipeline"
	"sumulas-rag/logic/retrieval"
	"sumulas-rag/types"
)

type RetrievalService struct {
	pipeline *pipeline.Pipeline
}

func NewRetrievalService(p *pipeline.Pipeline) *RetrievalService {
	return &RetrievalService{pipeline: p}
}

// SearchResult 只检索不生成，展示实际执行的查询与召回切片
type SearchResult struct {
	Query         retrieval.StructuredQuery `json:"structured_query"`
	FilterDisplay string                    `json:"filter"`
	Chunks        []types.Chunk             `json:"chunks"`
	Sources       []types.SourceRef         `json:"sources"`
}

// Search 自查询 + 混合检索
func (s *RetrievalService) Search(ctx context.Context, question string, k int) (*SearchResult, error) {
	start := time.Now()
	res, display, err := s.pipeline.Search(ctx, question, k)
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"question": question,
		"chunks":   len(res.Chunks),
		"took":     time.Since(start),
	}).Info(">>> [Search] 检索完成")
	return &SearchResult{
		Query:         res.Query,
		FilterDisplay: display,
		Chunks:        res.Chunks,
		Sources:       types.Sources(res.Chunks),
	}, nil
}
