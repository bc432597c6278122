package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/sirupsen/logrus"

	"sumulas-rag/logic/filter"
	"sumulas-rag/types"
	"sumulas-rag/vars"
)

var selfQueryTmpl = template.Must(template.New("selfquery").Parse(vars.SELFQUERY))

// QueryCache 自查询结果缓存，key 为规范化后的问题
type QueryCache interface {
	Get(ctx context.Context, question string) (*StructuredQuery, bool, error)
	Set(ctx context.Context, question string, q *StructuredQuery) error
}

// QueryConstructor 问题 -> StructuredQuery (self-query)
type QueryConstructor struct {
	chatModel model.BaseChatModel
	schema    *filter.Schema
	cache     QueryCache
	now       func() time.Time
}

type ConstructorOption func(*QueryConstructor)

// WithQueryCache enables caching of constructed queries.
func WithQueryCache(cache QueryCache) ConstructorOption {
	return func(c *QueryConstructor) {
		c.cache = cache
	}
}

// WithClock overrides the date shown to the model.
func WithClock(now func() time.Time) ConstructorOption {
	return func(c *QueryConstructor) {
		c.now = now
	}
}

func NewQueryConstructor(chatModel model.BaseChatModel, s *filter.Schema, opts ...ConstructorOption) *QueryConstructor {
	c := &QueryConstructor{
		chatModel: chatModel,
		schema:    s,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Construct infers the semantic text and metadata filter for question.
// The returned Query is never empty. A filter that does not fit the schema is
// dropped and the search proceeds unfiltered.
func (c *QueryConstructor) Construct(ctx context.Context, question string) (*StructuredQuery, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, types.ErrEmptyQuestion
	}
	key := normalizeQuestion(question)

	if c.cache != nil {
		cached, ok, err := c.cache.Get(ctx, key)
		if err != nil {
			logrus.WithError(err).Warn(">>> [SelfQuery] 缓存读取失败")
		} else if ok && cached != nil && strings.TrimSpace(cached.Query) != "" {
			logrus.WithField("question", question).Debug(">>> [SelfQuery] 命中缓存")
			return cached, nil
		}
	}

	// 渲染 Prompt
	var buf bytes.Buffer
	err := selfQueryTmpl.Execute(&buf, map[string]string{
		"CurrentDate": c.now().Format("2006-01-02"),
		"Content":     c.schema.ContentDescription(),
		"Attributes":  c.schema.Describe(),
	})
	if err != nil {
		return nil, err
	}

	// 调用 LLM
	start := time.Now()
	resp, err := c.chatModel.Generate(ctx, []*schema.Message{
		schema.SystemMessage(buf.String()),
		schema.UserMessage(question),
	}, model.WithTemperature(0))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrInferenceUnavailable, err)
	}
	logrus.WithField("took", time.Since(start)).Debugf(">>> [LLM Raw Response]: %s", resp.Content)

	q := c.parse(question, resp.Content)

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, q); err != nil {
			logrus.WithError(err).Warn(">>> [SelfQuery] 缓存写入失败")
		}
	}
	return q, nil
}

// parse 清洗模型输出并按 schema 校验，任何一步失败都降级
func (c *QueryConstructor) parse(question, content string) *StructuredQuery {
	fallback := &StructuredQuery{Query: question}

	raw, ok := extractJSON(content)
	if !ok {
		logrus.Warn(">>> [SelfQuery] 无法在响应中找到 JSON 对象，降级为纯语义检索")
		return fallback
	}
	var out structuredQueryJSON
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		logrus.WithError(err).Warn(">>> [SelfQuery] JSON 解析失败，降级为纯语义检索")
		return fallback
	}

	q := &StructuredQuery{Query: strings.TrimSpace(out.Query)}
	if q.Query == "" {
		q.Query = question
	}
	if limit, err := parseLimit(out.Limit); err == nil {
		q.Limit = limit
	}

	expr, err := filter.Parse(out.Filter)
	if err != nil {
		logrus.WithError(err).Warn(">>> [SelfQuery] 过滤条件格式错误，已忽略")
		return q
	}
	valid, err := c.schema.Validate(expr)
	if err != nil {
		logrus.WithError(err).Warn(">>> [SelfQuery] 过滤条件不符合 schema，已忽略")
		return q
	}
	q.Filter = valid
	return q
}

// extractJSON 取最外层大括号之间的内容（兼容 ```json 代码块）
func extractJSON(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

func normalizeQuestion(q string) string {
	return strings.ToLower(strings.Join(strings.Fields(q), " "))
}
