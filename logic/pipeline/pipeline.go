package pipeline

import (
	"context"
	"errors"

	"github.com/cloudwego/eino/schema"

	"sumulas-rag/logic/filter"
	"sumulas-rag/logic/retrieval"
	"sumulas-rag/logic/trace"
	"sumulas-rag/vars"
)

// QueryConstructor question -> structured query
type QueryConstructor interface {
	Construct(ctx context.Context, question string) (*retrieval.StructuredQuery, error)
}

// Retriever structured query -> ranked chunks
type Retriever interface {
	Retrieve(ctx context.Context, q retrieval.StructuredQuery, k int) (*retrieval.Result, error)
}

// Generator question + context -> token stream
type Generator interface {
	Generate(ctx context.Context, question, contextText string) (*schema.StreamReader[string], []*schema.Message, error)
}

// Config 编排配置，进程启动时构建一次
type Config struct {
	K          int // 召回数量
	Formatter  filter.Formatter
	Collection string // 只用于追踪日志
}

var runTags = []string{"sumulas"}

// Pipeline is built once at start and shared by reference between requests.
// It holds no per-question state.
type Pipeline struct {
	config      Config
	constructor QueryConstructor
	retriever   Retriever
	generator   Generator
}

func New(config Config, constructor QueryConstructor, retriever Retriever, generator Generator) (*Pipeline, error) {
	if constructor == nil || retriever == nil || generator == nil {
		return nil, errors.New("pipeline: missing collaborator")
	}
	if config.K <= 0 {
		config.K = vars.TOPK
	}
	return &Pipeline{
		config:      config,
		constructor: constructor,
		retriever:   retriever,
		generator:   generator,
	}, nil
}

func (p *Pipeline) Config() Config { return p.config }

// Run starts a fresh per-question stream. Nothing happens until the first Next.
func (p *Pipeline) Run(ctx context.Context, question string) *Stream {
	ctx, cancel := context.WithCancel(p.trace(ctx, "Chat", question))
	return &Stream{
		p:      p,
		ctx:    ctx,
		cancel: cancel,
		state:  State{Question: question, Phase: PhaseStart},
	}
}

// Search runs only the retrieving stage, returning the result and the filter
// display string.
func (p *Pipeline) Search(ctx context.Context, question string, k int) (*retrieval.Result, string, error) {
	if k <= 0 {
		k = p.config.K
	}
	ctx = p.trace(ctx, "Search", question)
	res, err := p.retrieve(ctx, question, k)
	if err != nil {
		return nil, "", err
	}
	return res, p.config.Formatter.Format(res.Query.Filter), nil
}

func (p *Pipeline) trace(ctx context.Context, name, question string) context.Context {
	return trace.Start(ctx, trace.Run{Name: name, Tags: runTags, Collection: p.config.Collection, K: p.config.K}, question)
}

// retrieve 自查询 + 混合检索，两个阶段各自上报回调
func (p *Pipeline) retrieve(ctx context.Context, question string, k int) (*retrieval.Result, error) {
	cctx := trace.Stage(ctx, "construct", question)
	q, err := p.constructor.Construct(cctx, question)
	if err != nil {
		trace.Fail(cctx, err)
		return nil, err
	}
	trace.End(cctx, q)

	rctx := trace.Stage(ctx, "retrieve", q)
	res, err := p.retriever.Retrieve(rctx, *q, k)
	if err != nil {
		trace.Fail(rctx, err)
		return nil, err
	}
	trace.End(rctx, len(res.Chunks))
	return res, nil
}
