package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"sumulas-rag/vars"
)

// Generator 基于检索上下文流式生成回答
type Generator struct {
	chatModel model.BaseChatModel
	template  prompt.ChatTemplate
	noInfo    string
}

func NewGenerator(chatModel model.BaseChatModel) *Generator {
	return &Generator{
		chatModel: chatModel,
		template: prompt.FromMessages(schema.FString,
			schema.SystemMessage(vars.GROUNDING),
			schema.UserMessage(vars.GROUNDING_HUMAN),
		),
		noInfo: vars.NOINFO,
	}
}

// Generate streams the answer to question grounded on contextText. The returned
// messages are the prompt that was sent. An empty context never reaches the
// model: the fixed "no information" answer is streamed instead.
// The caller owns the stream and must Close it.
func (g *Generator) Generate(ctx context.Context, question, contextText string) (*schema.StreamReader[string], []*schema.Message, error) {
	messages, err := g.template.Format(ctx, map[string]any{
		"question": question,
		"context":  contextText,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("format prompt: %w", err)
	}

	if strings.TrimSpace(contextText) == "" {
		return schema.StreamReaderFromArray([]string{g.noInfo}), messages, nil
	}

	sr, err := g.chatModel.Stream(ctx, messages, model.WithTemperature(0))
	if err != nil {
		return nil, messages, err
	}
	// 空 chunk 直接跳过
	tokens := schema.StreamReaderWithConvert(sr, func(m *schema.Message) (string, error) {
		if m == nil || m.Content == "" {
			return "", schema.ErrNoValue
		}
		return m.Content, nil
	})
	return tokens, messages, nil
}
