package transform

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/embedding/ollama"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/sirupsen/logrus"
)

// NewEmbedder ollama embedder，外面包一层 NaN 清理
func NewEmbedder(ctx context.Context, baseURL, model string, timeout time.Duration) (embedding.Embedder, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	embedder, err := ollama.NewEmbedder(ctx, &ollama.EmbeddingConfig{
		BaseURL: baseURL,
		Model:   model,
		Timeout: timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("NewEmbedder of ollama error: %w", err)
	}
	logrus.Infof(">>> [Embedder] ollama model=%s url=%s", model, baseURL)
	return NewCleanEmbedder(embedder), nil
}
