package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sumulas-rag/api/response"
	"sumulas-rag/logic/filter"
	"sumulas-rag/logic/pipeline"
	"sumulas-rag/logic/retrieval"
	"sumulas-rag/service"
	"sumulas-rag/storage/postgres"
	"sumulas-rag/types"
)

type stubConstructor struct{}

func (stubConstructor) Construct(ctx context.Context, question string) (*retrieval.StructuredQuery, error) {
	if strings.TrimSpace(question) == "" {
		return nil, types.ErrEmptyQuestion
	}
	return &retrieval.StructuredQuery{
		Query:  "precedentes",
		Filter: filter.Compare(types.FieldSummaryNumber, filter.OpEq, "70"),
	}, nil
}

type stubRetriever struct{ err error }

func (r stubRetriever) Retrieve(ctx context.Context, q retrieval.StructuredQuery, k int) (*retrieval.Result, error) {
	if r.err != nil {
		return nil, r.err
	}
	return &retrieval.Result{Query: q, Chunks: []types.Chunk{{
		ID:   "70-p",
		Text: "Precedentes da súmula 70",
		Metadata: types.ChunkMetadata{
			SourceName: "Sumula_70.pdf", SummaryNumber: "70", Status: "VIGENTE",
			StatusDate: "07/04/14", StatusYear: 2014, ChunkType: types.ChunkPrecedents,
		},
		Score: 1,
	}}}, nil
}

type stubGenerator struct{}

func (stubGenerator) Generate(ctx context.Context, question, contextText string) (*schema.StreamReader[string], []*schema.Message, error) {
	return schema.StreamReaderFromArray([]string{"Conforme ", "a Súmula 70"}), nil, nil
}

type stubIngestion struct{}

func (stubIngestion) IngestUpload(ctx context.Context, r io.Reader, name string) (service.FileResult, error) {
	return service.FileResult{SourceName: name, Outcome: service.OutcomeIndexed, Chunks: 3}, nil
}

func (stubIngestion) ListSummaries(ctx context.Context, status string, limit, offset int) ([]postgres.Summary, error) {
	return []postgres.Summary{{DocID: "d1", SourceName: "Sumula_70.pdf", SummaryNumber: "70", Status: "VIGENTE"}}, nil
}

func newTestHandler(t *testing.T, retrieverErr error) *gin.Engine {
	gin.SetMode(gin.TestMode)
	p, err := pipeline.New(pipeline.Config{K: 5, Formatter: filter.DefaultFormatter()},
		stubConstructor{}, stubRetriever{err: retrieverErr}, stubGenerator{})
	require.NoError(t, err)

	h := NewSumulaHandler(service.NewChatService(p), service.NewRetrievalService(p), stubIngestion{})
	r := gin.New()
	r.GET("/health", h.Health)
	r.POST("/chat", h.ChatStream)
	r.POST("/search", h.Search)
	r.GET("/summaries", h.ListSummaries)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	w := do(newTestHandler(t, nil), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestChatStream(t *testing.T) {
	w := do(newTestHandler(t, nil), http.MethodPost, "/chat", `{"question":"precedentes da súmula 70"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/event-stream")

	body := w.Body.String()
	details := strings.Index(body, "event:details")
	token := strings.Index(body, "event:token")
	sources := strings.Index(body, "event:sources")
	require.True(t, details >= 0 && token > details && sources > token, body)
	assert.NotContains(t, body, "event:error")
	assert.Contains(t, body, `summary_number = '70'`)
	assert.Contains(t, body, `"text":"Conforme "`)
	assert.Contains(t, body, `"source_name":"Sumula_70.pdf"`)
}

func TestChatStream_IndexUnavailable(t *testing.T) {
	w := do(newTestHandler(t, types.ErrIndexUnavailable), http.MethodPost, "/chat", `{"question":"x"}`)
	body := w.Body.String()

	assert.Contains(t, body, "event:error")
	assert.Contains(t, body, `"kind":"index_unavailable"`)
	assert.NotContains(t, body, "event:details")
	assert.NotContains(t, body, "event:token")
}

func TestChatStream_BadRequest(t *testing.T) {
	w := do(newTestHandler(t, nil), http.MethodPost, "/chat", `{}`)

	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, -1, resp.Code)
}

func TestSearch(t *testing.T) {
	w := do(newTestHandler(t, nil), http.MethodPost, "/search", `{"question":"precedentes da súmula 70","k":3}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Code int                  `json:"code"`
		Data service.SearchResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Code)
	assert.Equal(t, "precedentes", resp.Data.Query.Query)
	assert.Equal(t, "summary_number = '70'", resp.Data.FilterDisplay)
	require.Len(t, resp.Data.Chunks, 1)
	assert.Equal(t, "70-p", resp.Data.Chunks[0].ID)
}

func TestSearch_IndexUnavailable(t *testing.T) {
	err := errors.Join(types.ErrIndexUnavailable, errors.New("milvus: timeout"))
	w := do(newTestHandler(t, err), http.MethodPost, "/search", `{"question":"x"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotContains(t, w.Body.String(), "milvus")
}

func TestListSummaries(t *testing.T) {
	w := do(newTestHandler(t, nil), http.MethodGet, "/summaries?status=VIGENTE", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_count":1`)
}

func TestSearch_KOutOfRange(t *testing.T) {
	r := newTestHandler(t, nil)
	for _, body := range []string{
		`{"question":"x","k":20000}`,
		`{"question":"x","k":-1}`,
	} {
		w := do(r, http.MethodPost, "/search", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)

		var resp response.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, -1, resp.Code)
	}
}

func TestListSummaries_BadPaging(t *testing.T) {
	r := newTestHandler(t, nil)
	for _, q := range []string{"limit=abc", "limit=0", "offset=-1", "offset=x"} {
		w := do(r, http.MethodGet, "/summaries?"+q, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}

	w := do(r, http.MethodGet, "/summaries?limit=10&offset=5", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
