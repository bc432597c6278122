package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"sumulas-rag/logic/pipeline"
)

type ChatService struct {
	pipeline *pipeline.Pipeline
}

func NewChatService(p *pipeline.Pipeline) *ChatService {
	return &ChatService{pipeline: p}
}

// Ask 为一个问题启动事件流，调用方负责消费并 Close
func (s *ChatService) Ask(ctx context.Context, question string) *pipeline.Stream {
	question = strings.TrimSpace(question)
	logrus.WithField("question", question).Info(">>> [Chat] 收到问题")
	return s.pipeline.Run(ctx, question)
}
