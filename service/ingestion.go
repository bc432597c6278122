package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/indexer"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"sumulas-rag/logic/ingestion/extract"
	"sumulas-rag/logic/ingestion/loaders"
	"sumulas-rag/logic/ingestion/processors"
	"sumulas-rag/storage/postgres"
	"sumulas-rag/types"
)

// ErrIngestionBusy 已有入库任务在执行
var ErrIngestionBusy = errors.New("ingestion already running")

// SummaryStore súmula 登记表
type SummaryStore interface {
	Create(ctx context.Context, s *postgres.Summary) error
	GetBySourceName(ctx context.Context, sourceName string) (*postgres.Summary, error)
	Delete(ctx context.Context, docID string) error
	List(ctx context.Context, status string, limit, offset int) ([]postgres.Summary, error)
}

// SparseStore 关键词索引写入端 (ES)
type SparseStore interface {
	Store(ctx context.Context, docID string, chunks []*schema.Document) error
	DeleteByDocID(ctx context.Context, docID string) error
}

// DenseStore 向量索引写入端 (Milvus)
type DenseStore interface {
	Store(ctx context.Context, docs []*schema.Document, opts ...indexer.Option) ([]string, error)
	DeleteByDocID(ctx context.Context, docID string) error
}

// DocumentLoader PDF -> Document
type DocumentLoader interface {
	Load(ctx context.Context, path string) (*schema.Document, error)
	Parse(ctx context.Context, r io.Reader, name string) (*schema.Document, error)
}

// FileOutcome 单个文件的处理结果
type FileOutcome string

const (
	OutcomeIndexed FileOutcome = "indexed"
	OutcomeSkipped FileOutcome = "skipped" // 已存在
	OutcomeFailed  FileOutcome = "failed"
)

type FileResult struct {
	SourceName string      `json:"source_name"`
	Outcome    FileOutcome `json:"outcome"`
	DocID      string      `json:"doc_id,omitempty"`
	Chunks     int         `json:"chunks,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// IngestReport 一次入库的汇总
type IngestReport struct {
	Files   []FileResult  `json:"files"`
	Indexed int           `json:"indexed"`
	Skipped int           `json:"skipped"`
	Failed  int           `json:"failed"`
	Chunks  int           `json:"chunks"`
	Took    time.Duration `json:"took"`
}

func (r *IngestReport) add(res FileResult) {
	r.Files = append(r.Files, res)
	switch res.Outcome {
	case OutcomeIndexed:
		r.Indexed++
		r.Chunks += res.Chunks
	case OutcomeSkipped:
		r.Skipped++
	default:
		r.Failed++
	}
}

type IngestionService struct {
	repo      SummaryStore
	chatModel model.BaseChatModel
	loader    DocumentLoader
	esStore   SparseStore
	vecStore  DenseStore
	now       func() time.Time
	mu        sync.Mutex
}

// 构造函数：依赖注入
func NewIngestionService(repo SummaryStore, chatModel model.BaseChatModel, loader DocumentLoader, esStore SparseStore, vecStore DenseStore) *IngestionService {
	return &IngestionService{
		repo:      repo,
		chatModel: chatModel,
		loader:    loader,
		esStore:   esStore,
		vecStore:  vecStore,
		now:       time.Now,
	}
}

// IngestDir 扫描目录下所有 PDF 并入库；单个文件失败不影响其余文件
func (s *IngestionService) IngestDir(ctx context.Context, dir string) (*IngestReport, error) {
	if !s.mu.TryLock() {
		return nil, ErrIngestionBusy
	}
	defer s.mu.Unlock()

	start := time.Now()
	files, err := loaders.ListPDFs(dir)
	if err != nil {
		return nil, fmt.Errorf("list pdf dir failed: %w", err)
	}
	if len(files) == 0 {
		logrus.Warnf(">>> [Ingest] 目录中没有 PDF: %s", dir)
	}

	report := &IngestReport{}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		doc, err := s.loader.Load(ctx, path)
		if err != nil {
			report.add(FileResult{SourceName: path, Outcome: OutcomeFailed, Error: err.Error()})
			logrus.WithError(err).Errorf(">>> [Ingest] 解析失败: %s", path)
			continue
		}
		report.add(s.ingest(ctx, doc))
	}
	report.Took = time.Since(start)

	logrus.WithFields(logrus.Fields{
		"dir":     dir,
		"indexed": report.Indexed,
		"skipped": report.Skipped,
		"failed":  report.Failed,
		"chunks":  report.Chunks,
		"took":    report.Took,
	}).Info(">>> [性能总览] 入库完成")
	return report, nil
}

// IngestUpload 处理上传的单个 PDF
func (s *IngestionService) IngestUpload(ctx context.Context, r io.Reader, name string) (FileResult, error) {
	if !s.mu.TryLock() {
		return FileResult{}, ErrIngestionBusy
	}
	defer s.mu.Unlock()

	doc, err := s.loader.Parse(ctx, r, name)
	if err != nil {
		return FileResult{SourceName: name, Outcome: OutcomeFailed, Error: err.Error()}, nil
	}
	return s.ingest(ctx, doc), nil
}

// ListSummaries 已入库 súmula 列表
func (s *IngestionService) ListSummaries(ctx context.Context, status string, limit, offset int) ([]postgres.Summary, error) {
	return s.repo.List(ctx, status, limit, offset)
}

func (s *IngestionService) ingest(ctx context.Context, doc *schema.Document) FileResult {
	docStart := time.Now()
	name, _ := doc.MetaData[loaders.MetaKeyFileName].(string)
	if name == "" {
		name = doc.ID
	}
	res := FileResult{SourceName: name, Outcome: OutcomeFailed}
	log := logrus.WithField("source", name)

	// 查重
	one, err := s.repo.GetBySourceName(ctx, name)
	if err != nil {
		res.Error = err.Error()
		log.WithError(err).Error(">>> [Ingest] 查重失败")
		return res
	}
	if one != nil {
		log.Debug(">>> [Ingest] 跳过: 文件已存在数据库中")
		res.Outcome, res.DocID = OutcomeSkipped, one.DocID
		return res
	}

	cleaned, _ := processors.Processor(ctx, []*schema.Document{doc})
	if len(cleaned) == 0 {
		res.Error = fmt.Errorf("%w: empty document", types.ErrIngestionParseFailure).Error()
		log.Warn(">>> [Ingest] 空文档")
		return res
	}

	// 结构化提取
	llmStart := time.Now()
	info, err := extract.Extract(ctx, s.chatModel, cleaned[0], s.now())
	if err != nil {
		res.Error = err.Error()
		log.WithError(err).Warn(">>> [Ingest] 结构化提取失败，已跳过")
		return res
	}
	log.Debugf(">>> [性能] LLM 结构化提取耗时: %v", time.Since(llmStart))

	// 生成全局唯一的 DocID
	docID := uuid.New().String()
	chunks := extract.BuildChunks(info, name, docID, s.now())
	if len(chunks) == 0 {
		res.Error = fmt.Errorf("%w: no sections extracted", types.ErrIngestionParseFailure).Error()
		log.Warn(">>> [Ingest] 未抽取到任何切片，已跳过")
		return res
	}
	meta := types.MetadataFromMap(chunks[0].MetaData)

	now := s.now()
	err = s.repo.Create(ctx, &postgres.Summary{
		DocID:         docID,
		SourceName:    name,
		SummaryNumber: meta.SummaryNumber,
		Status:        meta.Status,
		StatusDate:    meta.StatusDate,
		StatusYear:    meta.StatusYear,
		ChunkCount:    len(chunks),
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		res.Error = err.Error()
		log.WithError(err).Error(">>> [Ingest] postgresql存储失败")
		return res
	}

	// es存储
	if err := s.esStore.Store(ctx, docID, chunks); err != nil {
		_ = s.repo.Delete(ctx, docID)
		_ = s.esStore.DeleteByDocID(ctx, docID)
		res.Error = err.Error()
		log.WithError(err).Error(">>> [Ingest] es存储失败，已回滚PG记录")
		return res
	}

	// 向量化存储
	if _, err := s.vecStore.Store(ctx, chunks); err != nil {
		_ = s.repo.Delete(ctx, docID)
		_ = s.esStore.DeleteByDocID(ctx, docID)
		_ = s.vecStore.DeleteByDocID(ctx, docID)
		res.Error = err.Error()
		log.WithError(err).Error(">>> [Ingest] Milvus 存储失败，已回滚PG记录和ES记录")
		return res
	}

	log.WithFields(logrus.Fields{
		"doc_id": docID,
		"chunks": len(chunks),
		"took":   time.Since(docStart),
	}).Info(">>> [Ingest] 入库成功")
	res.Outcome, res.DocID, res.Chunks = OutcomeIndexed, docID, len(chunks)
	return res
}
