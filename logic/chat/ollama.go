package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"sumulas-rag/vars"
)

// ModelConfig 对话模型配置
type ModelConfig struct {
	Provider string // ollama | openai
	BaseURL  string
	Model    string
	APIKey   string
	Timeout  time.Duration
}

// NewChatModel 按 Provider 创建对话模型
func NewChatModel(ctx context.Context, cfg ModelConfig) (model.ToolCallingChatModel, error) {
	switch cfg.Provider {
	case "", vars.PROVIDER_OLLAMA:
		return CreateOllamaChatModel(ctx, cfg)
	case vars.PROVIDER_OPENAI:
		return CreateOpenAIChatModel(ctx, cfg)
	}
	return nil, fmt.Errorf("unknown chat model provider %q", cfg.Provider)
}

func CreateOllamaChatModel(ctx context.Context, cfg ModelConfig) (model.ToolCallingChatModel, error) {
	chatModel, err := ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
		BaseURL: cfg.BaseURL, // Ollama 服务地址
		Model:   cfg.Model,   // 模型名称
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create ollama chat model failed: %w", err)
	}
	return chatModel, nil
}

func CreateOpenAIChatModel(ctx context.Context, cfg ModelConfig) (model.ToolCallingChatModel, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("create openai chat model failed: empty api key")
	}
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL, // 为空时使用官方地址
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create openai chat model failed: %w", err)
	}
	return chatModel, nil
}
