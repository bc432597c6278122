package retrieval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"sumulas-rag/types"
)

func TestAssembleContext(t *testing.T) {
	chunks := []types.Chunk{
		{ID: "1", Text: "Texto literal da súmula 70.", Metadata: types.ChunkMetadata{
			SourceName: "Sumula_70.pdf", SummaryNumber: "70", Status: "VIGENTE", StatusDate: "07/04/14",
			ChunkType: types.ChunkPrincipalContent,
		}},
		{ID: "2", Text: "Precedentes sem metadados."},
	}

	got := AssembleContext(chunks)
	want := "[Sumula_70.pdf | Súmula 70 | principal_content]\nstatus_atual: VIGENTE\ndata_status: 07/04/14\n\nTexto literal da súmula 70." +
		"\n\n---\n\n" +
		"[? | Súmula ? | ?]\nstatus_atual: não informado\ndata_status: não informado\n\nPrecedentes sem metadados."
	assert.Equal(t, want, got)
	assert.Equal(t, got, AssembleContext(chunks))
}

func TestAssembleContext_KeepsOrderAndText(t *testing.T) {
	long := strings.Repeat("a", 10000)
	chunks := []types.Chunk{{ID: "b", Text: "second"}, {ID: "a", Text: long}}

	got := AssembleContext(chunks)
	assert.Less(t, strings.Index(got, "second"), strings.Index(got, long))
	assert.Contains(t, got, long)
	assert.Equal(t, 1, strings.Count(got, ChunkDelimiter))
	assert.Empty(t, AssembleContext(nil))
}
