package pipeline

import (
	"github.com/cloudwego/eino/schema"

	"sumulas-rag/types"
)

// State per-question pipeline state, owned by one Stream
type State struct {
	Question       string
	Phase          Phase
	Chunks         []types.Chunk
	GeneratedQuery string
	FilterDisplay  string
	Answer         string            // 已生成的回答（中断时为部分回答）
	Messages       []*schema.Message // prompt + assistant 回答
	Err            error
}

func (s State) clone() State {
	out := s
	out.Chunks = append([]types.Chunk(nil), s.Chunks...)
	out.Messages = append([]*schema.Message(nil), s.Messages...)
	return out
}
