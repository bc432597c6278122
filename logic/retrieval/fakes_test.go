package retrieval

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"sumulas-rag/logic/filter"
	"sumulas-rag/types"
)

// fakeChatModel answers every Generate call with reply
type fakeChatModel struct {
	reply string
	err   error
	calls int
	last  []*schema.Message
}

func (m *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.calls++
	m.last = input
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage(m.reply, nil), nil
}

func (m *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

// fakeIndex in-memory index scoring by term overlap. leaky ignores the filter.
type fakeIndex struct {
	docs  []*schema.Document
	leaky bool
	err   error
	lastK int
}

func (f *fakeIndex) search(query string, expr filter.Expr, k int) ([]*schema.Document, error) {
	f.lastK = k
	if f.err != nil {
		return nil, f.err
	}
	terms := strings.Fields(strings.ToLower(query))
	var out []*schema.Document
	for _, d := range f.docs {
		if !f.leaky && !filter.Match(expr, types.MetadataFromMap(d.MetaData)) {
			continue
		}
		var s float64
		content := strings.ToLower(d.Content)
		for _, t := range terms {
			if strings.Contains(content, t) {
				s++
			}
		}
		cp := *d
		cp.MetaData = make(map[string]any, len(d.MetaData))
		for key, v := range d.MetaData {
			cp.MetaData[key] = v
		}
		out = append(out, cp.WithScore(s))
	}
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func (f *fakeIndex) SearchDense(ctx context.Context, query string, expr filter.Expr, k int) ([]*schema.Document, error) {
	return f.search(query, expr, k)
}

func (f *fakeIndex) SearchSparse(ctx context.Context, query string, expr filter.Expr, k int) ([]*schema.Document, error) {
	return f.search(query, expr, k)
}

type memCache struct {
	mu sync.Mutex
	m  map[string]*StructuredQuery
}

func (c *memCache) Get(ctx context.Context, question string) (*StructuredQuery, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, ok := c.m[question]
	return q, ok, nil
}

func (c *memCache) Set(ctx context.Context, question string, q *StructuredQuery) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.m == nil {
		c.m = map[string]*StructuredQuery{}
	}
	c.m[question] = q
	return nil
}

func sumulaDoc(id, content string, meta types.ChunkMetadata) *schema.Document {
	return &schema.Document{ID: id, Content: content, MetaData: meta.MetaData()}
}

func corpus() []*schema.Document {
	return []*schema.Document{
		sumulaDoc("70-p", "precedentes da súmula 70 licitação", types.ChunkMetadata{
			SourceName: "Sumula_70.pdf", SummaryNumber: "70", Status: "VIGENTE", StatusDate: "07/04/14",
			StatusYear: 2014, ChunkType: types.ChunkPrecedents, ChunkIndex: 2,
		}),
		sumulaDoc("70-c", "conteúdo principal súmula 70 licitação", types.ChunkMetadata{
			SourceName: "Sumula_70.pdf", SummaryNumber: "70", Status: "VIGENTE", StatusDate: "07/04/14",
			StatusYear: 2014, ChunkType: types.ChunkPrincipalContent, ChunkIndex: 0,
		}),
		sumulaDoc("12-c", "conteúdo principal súmula 12 concurso público", types.ChunkMetadata{
			SourceName: "Sumula_12.pdf", SummaryNumber: "12", Status: "REVOGADA", StatusDate: "15/03/05",
			StatusYear: 2005, ChunkType: types.ChunkPrincipalContent, ChunkIndex: 0,
		}),
		sumulaDoc("5-c", "conteúdo principal súmula 5 licitação dispensa", types.ChunkMetadata{
			SourceName: "Sumula_5.pdf", SummaryNumber: "5", Status: "VIGENTE", StatusDate: "01/02/99",
			StatusYear: 1999, ChunkType: types.ChunkPrincipalContent, ChunkIndex: 0,
		}),
	}
}
