package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"sumulas-rag/logic/chat"
	"sumulas-rag/logic/filter"
	"sumulas-rag/logic/retrieval"
	"sumulas-rag/types"
)

// fakeLLM answers the self-query call with selfQuery and streams answer.
// With breakAfter > 0 the stream fails after that many tokens.
type fakeLLM struct {
	selfQuery   string
	generateErr error
	answer      []string
	streamErr   error
	breakAfter  int
	streams     int
}

func (m *fakeLLM) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	if m.generateErr != nil {
		return nil, m.generateErr
	}
	return schema.AssistantMessage(m.selfQuery, nil), nil
}

func (m *fakeLLM) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	m.streams++
	if m.streamErr != nil {
		return nil, m.streamErr
	}
	sr, sw := schema.Pipe[*schema.Message](1)
	go func() {
		defer sw.Close()
		for i, tok := range m.answer {
			if m.breakAfter > 0 && i == m.breakAfter {
				sw.Send(nil, errors.New("connection reset by peer"))
				return
			}
			if closed := sw.Send(schema.AssistantMessage(tok, nil), nil); closed {
				return
			}
		}
	}()
	return sr, nil
}

type fakeIndex struct {
	docs []*schema.Document
	err  error
}

func (f *fakeIndex) SearchDense(ctx context.Context, query string, expr filter.Expr, k int) ([]*schema.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*schema.Document
	for _, d := range f.docs {
		if !filter.Match(expr, types.MetadataFromMap(d.MetaData)) {
			continue
		}
		var s float64
		for _, t := range strings.Fields(strings.ToLower(query)) {
			if strings.Contains(strings.ToLower(d.Content), t) {
				s++
			}
		}
		out = append(out, (&schema.Document{ID: d.ID, Content: d.Content, MetaData: copyMeta(d.MetaData)}).WithScore(s))
	}
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func copyMeta(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func corpus() []*schema.Document {
	meta := func(num, status string, year int, ct types.ChunkType) map[string]any {
		return types.ChunkMetadata{
			SourceName:    "Sumula_" + num + ".pdf",
			SummaryNumber: num,
			Status:        status,
			StatusDate:    fmt.Sprintf("01/01/%02d", year%100),
			StatusYear:    year,
			ChunkType:     ct,
		}.MetaData()
	}
	return []*schema.Document{
		{ID: "70-p", Content: "precedentes súmula 70", MetaData: meta("70", "VIGENTE", 2014, types.ChunkPrecedents)},
		{ID: "70-c", Content: "enunciado súmula 70", MetaData: meta("70", "VIGENTE", 2014, types.ChunkPrincipalContent)},
		{ID: "8-c", Content: "enunciado súmula 8 licitação", MetaData: meta("8", "REVOGADA", 2005, types.ChunkPrincipalContent)},
		{ID: "3-c", Content: "enunciado súmula 3 licitação", MetaData: meta("3", "VIGENTE", 1998, types.ChunkPrincipalContent)},
	}
}

func newPipeline(llm *fakeLLM, idx *fakeIndex) *Pipeline {
	p, err := New(
		Config{K: 5, Formatter: filter.DefaultFormatter()},
		retrieval.NewQueryConstructor(llm, filter.SumulaSchema()),
		retrieval.NewRetriever(idx, nil, nil),
		chat.NewGenerator(llm),
	)
	if err != nil {
		panic(err)
	}
	return p
}
