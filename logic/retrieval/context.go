package retrieval

import (
	"fmt"
	"strings"

	"sumulas-rag/types"
)

// ChunkDelimiter 上下文中切片之间的分隔符
const ChunkDelimiter = "\n\n---\n\n"

// AssembleContext 将检索结果拼成带来源信息的上下文，顺序与检索结果一致，不截断
func AssembleContext(chunks []types.Chunk) string {
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		m := c.Metadata
		header := fmt.Sprintf("[%s | Súmula %s | %s]\nstatus_atual: %s\ndata_status: %s",
			orDefault(m.SourceName, "?"),
			orDefault(m.SummaryNumber, "?"),
			orDefault(string(m.ChunkType), "?"),
			orDefault(m.Status, "não informado"),
			orDefault(m.StatusDate, "não informado"),
		)
		parts = append(parts, header+"\n\n"+c.Text)
	}
	return strings.Join(parts, ChunkDelimiter)
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
