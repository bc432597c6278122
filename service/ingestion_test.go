package service

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/indexer"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sumulas-rag/logic/ingestion/loaders"
	"sumulas-rag/storage/postgres"
)

type memRepo struct {
	mu   sync.Mutex
	rows map[string]*postgres.Summary
}

func newMemRepo() *memRepo { return &memRepo{rows: map[string]*postgres.Summary{}} }

func (r *memRepo) Create(ctx context.Context, s *postgres.Summary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[s.DocID] = s
	return nil
}

func (r *memRepo) GetBySourceName(ctx context.Context, name string) (*postgres.Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.rows {
		if s.SourceName == name {
			return s, nil
		}
	}
	return nil, nil
}

func (r *memRepo) Delete(ctx context.Context, docID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, docID)
	return nil
}

func (r *memRepo) List(ctx context.Context, status string, limit, offset int) ([]postgres.Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []postgres.Summary
	for _, s := range r.rows {
		if status == "" || s.Status == status {
			out = append(out, *s)
		}
	}
	return out, nil
}

type memIndex struct {
	err     error
	docs    map[string][]*schema.Document
	deleted []string
}

func newMemIndex() *memIndex { return &memIndex{docs: map[string][]*schema.Document{}} }

func (m *memIndex) put(docs []*schema.Document) error {
	if m.err != nil {
		return m.err
	}
	for _, d := range docs {
		id := d.MetaData["doc_id"].(string)
		m.docs[id] = append(m.docs[id], d)
	}
	return nil
}

func (m *memIndex) DeleteByDocID(ctx context.Context, docID string) error {
	m.deleted = append(m.deleted, docID)
	delete(m.docs, docID)
	return nil
}

type memSparse struct{ *memIndex }

func (m memSparse) Store(ctx context.Context, docID string, chunks []*schema.Document) error {
	return m.put(chunks)
}

type memDense struct{ *memIndex }

func (m memDense) Store(ctx context.Context, docs []*schema.Document, opts ...indexer.Option) ([]string, error) {
	if err := m.put(docs); err != nil {
		return nil, err
	}
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids, nil
}

// stubLoader 文件内容即 PDF 文本
type stubLoader struct{}

func (stubLoader) Load(ctx context.Context, path string) (*schema.Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	name := filepath.Base(path)
	return &schema.Document{ID: name, Content: string(b), MetaData: map[string]any{loaders.MetaKeyFileName: name}}, nil
}

func (stubLoader) Parse(ctx context.Context, r io.Reader, name string) (*schema.Document, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return &schema.Document{ID: name, Content: string(b), MetaData: map[string]any{loaders.MetaKeyFileName: name}}, nil
}

// extractModel 按文本中的 súmula 编号回复
type extractModel struct{}

func (extractModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	prompt := input[len(input)-1].Content
	switch {
	case strings.Contains(prompt, "SÚMULA 70"):
		return schema.AssistantMessage(`{"metadados":{"num_sumula":"70","status_atual":"VIGENTE","data_status":"07/04/14"},
			"chunks":[{"chunk_type":"principal_content","text":"enunciado 70"},{"chunk_type":"precedents","text":"precedentes 70"}]}`, nil), nil
	case strings.Contains(prompt, "SÚMULA 12"):
		return schema.AssistantMessage(`{"metadados":{"num_sumula":"12","status_atual":"REVOGADA","data_status":"01/02/05"},
			"chunks":[{"chunk_type":"principal_content","text":"enunciado 12"}]}`, nil), nil
	}
	return schema.AssistantMessage("desculpe", nil), nil
}

func (extractModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

type ingestFixture struct {
	svc    *IngestionService
	repo   *memRepo
	sparse *memIndex
	dense  *memIndex
	dir    string
}

func newIngestFixture(t *testing.T, files map[string]string) *ingestFixture {
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	f := &ingestFixture{repo: newMemRepo(), sparse: newMemIndex(), dense: newMemIndex(), dir: dir}
	f.svc = NewIngestionService(f.repo, extractModel{}, stubLoader{}, memSparse{f.sparse}, memDense{f.dense})
	f.svc.now = func() time.Time { return time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC) }
	return f
}

func TestIngestDir(t *testing.T) {
	f := newIngestFixture(t, map[string]string{
		"Sumula_70.pdf": "SÚMULA 70\ntexto",
		"Sumula_12.pdf": "SÚMULA 12\ntexto",
		"ruim.pdf":      "ilegível",
		"notas.txt":     "SÚMULA 70",
	})

	report, err := f.svc.IngestDir(context.Background(), f.dir)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Indexed)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 3, report.Chunks)
	assert.Len(t, report.Files, 3)

	rows, err := f.svc.ListSummaries(context.Background(), "VIGENTE", 0, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "70", rows[0].SummaryNumber)
	assert.Equal(t, 2014, rows[0].StatusYear)
	assert.Equal(t, 2, rows[0].ChunkCount)
	assert.Len(t, f.dense.docs[rows[0].DocID], 2)
	assert.Len(t, f.sparse.docs[rows[0].DocID], 2)

	// 再次执行全部跳过
	report, err = f.svc.IngestDir(context.Background(), f.dir)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Indexed)
	assert.Equal(t, 2, report.Skipped)
}

func TestIngest_DenseFailureRollsBack(t *testing.T) {
	f := newIngestFixture(t, map[string]string{"Sumula_70.pdf": "SÚMULA 70"})
	f.dense.err = errors.New("milvus down")

	report, err := f.svc.IngestDir(context.Background(), f.dir)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Contains(t, report.Files[0].Error, "milvus down")

	assert.Empty(t, f.repo.rows)
	assert.Empty(t, f.sparse.docs)
	assert.Len(t, f.sparse.deleted, 1)
}

func TestIngest_SparseFailureRollsBack(t *testing.T) {
	f := newIngestFixture(t, map[string]string{"Sumula_70.pdf": "SÚMULA 70"})
	f.sparse.err = errors.New("es down")

	report, err := f.svc.IngestDir(context.Background(), f.dir)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Empty(t, f.repo.rows)
	assert.Empty(t, f.dense.docs)
}

func TestIngestUpload(t *testing.T) {
	f := newIngestFixture(t, nil)

	res, err := f.svc.IngestUpload(context.Background(), strings.NewReader("SÚMULA 12 ..."), "Sumula_12.pdf")
	require.NoError(t, err)
	assert.Equal(t, OutcomeIndexed, res.Outcome)
	assert.Equal(t, 1, res.Chunks)

	res, err = f.svc.IngestUpload(context.Background(), strings.NewReader("   "), "vazio.pdf")
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, res.Outcome)
}

func TestIngest_Busy(t *testing.T) {
	f := newIngestFixture(t, nil)
	f.svc.mu.Lock()
	defer f.svc.mu.Unlock()

	_, err := f.svc.IngestDir(context.Background(), f.dir)
	assert.ErrorIs(t, err, ErrIngestionBusy)
}

func TestIngestDir_Missing(t *testing.T) {
	f := newIngestFixture(t, nil)
	_, err := f.svc.IngestDir(context.Background(), filepath.Join(f.dir, "nope"))
	assert.Error(t, err)
}
